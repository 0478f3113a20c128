package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("config: invalid")

// ServerConfig is the commd file layout.
type ServerConfig struct {
	Name              string   `toml:"name"`
	Addr              string   `toml:"addr"`
	Path              string   `toml:"path"`
	SessionExpiration string   `toml:"session_expiration"`
	ShutdownTimeout   string   `toml:"shutdown_timeout"`
	CorsOrigins       []string `toml:"cors_origins"`
	AuthToken         string   `toml:"auth_token"`
	TLSCertFile       string   `toml:"tls_cert_file"`
	TLSKeyFile        string   `toml:"tls_key_file"`
	TLSClientCAFile   string   `toml:"tls_client_ca_file"`
}

// ClientConfig is the commctl file layout.
type ClientConfig struct {
	Endpoint       string            `toml:"endpoint"`
	Namespaces     []string          `toml:"namespaces"`
	ConnectTimeout string            `toml:"connect_timeout"`
	RequestTimeout string            `toml:"request_timeout"`
	Headers        map[string]string `toml:"headers"`
	CAFile         string            `toml:"ca_file"`
	CertFile       string            `toml:"cert_file"`
	KeyFile        string            `toml:"key_file"`
	Poll           PollConfig        `toml:"poll"`
}

type PollConfig struct {
	StressInterval string `toml:"stress_interval"`
	BaseInterval   string `toml:"base_interval"`
	MaxInterval    string `toml:"max_interval"`
	Step           string `toml:"step"`
	RelaxThreshold int    `toml:"relax_threshold"`
}

func LoadServerConfig(path string) (ServerConfig, error) {
	var cfg ServerConfig
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if cfg.Name == "" {
		cfg.Name = "commd"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9100"
	}
	if cfg.Path == "" {
		cfg.Path = "/comm"
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func LoadClientConfig(path string) (ClientConfig, error) {
	var cfg ClientConfig
	if err := loadToml(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	if len(cfg.Namespaces) == 0 {
		cfg.Namespaces = []string{""}
	}
	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("%w: server config missing name", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("%w: server config missing addr", ErrInvalidConfig)
	}
	if !strings.HasPrefix(strings.TrimSpace(cfg.Path), "/") {
		return fmt.Errorf("%w: server path must start with /", ErrInvalidConfig)
	}
	if (strings.TrimSpace(cfg.TLSCertFile) == "") != (strings.TrimSpace(cfg.TLSKeyFile) == "") {
		return fmt.Errorf("%w: tls_cert_file and tls_key_file must be set together", ErrInvalidConfig)
	}
	for field, raw := range map[string]string{
		"session_expiration": cfg.SessionExpiration,
		"shutdown_timeout":   cfg.ShutdownTimeout,
	} {
		if _, err := parseDuration(field, raw); err != nil {
			return err
		}
	}
	return nil
}

func ValidateClientConfig(cfg ClientConfig) error {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return fmt.Errorf("%w: client config missing endpoint", ErrInvalidConfig)
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: endpoint must be an http(s) url: %q", ErrInvalidConfig, endpoint)
	}
	if (strings.TrimSpace(cfg.CertFile) == "") != (strings.TrimSpace(cfg.KeyFile) == "") {
		return fmt.Errorf("%w: cert_file and key_file must be set together", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(cfg.Namespaces))
	for _, ns := range cfg.Namespaces {
		ns = strings.TrimSpace(ns)
		if _, dup := seen[ns]; dup {
			return fmt.Errorf("%w: duplicate namespace %q", ErrInvalidConfig, ns)
		}
		seen[ns] = struct{}{}
	}
	for field, raw := range map[string]string{
		"connect_timeout":      cfg.ConnectTimeout,
		"request_timeout":      cfg.RequestTimeout,
		"poll.stress_interval": cfg.Poll.StressInterval,
		"poll.base_interval":   cfg.Poll.BaseInterval,
		"poll.max_interval":    cfg.Poll.MaxInterval,
		"poll.step":            cfg.Poll.Step,
	} {
		if _, err := parseDuration(field, raw); err != nil {
			return err
		}
	}
	return nil
}

// parseDuration treats an empty value as unset.
func parseDuration(field, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, field)
	}
	return d, nil
}
