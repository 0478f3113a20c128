package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/xhrcomm/internal/config"
	"github.com/danmuck/xhrcomm/internal/testutil/testlog"
)

func TestLoadClientConfigDefaultsAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
endpoint = "http://10.0.0.2:9100/comm"
namespaces = [" /io ", "/chat"]
request_timeout = "10s"

[poll]
base_interval = "500ms"
relax_threshold = -1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadClientConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Transport.Endpoint != "http://10.0.0.2:9100/comm" {
		t.Fatalf("unexpected endpoint: %q", cfg.Transport.Endpoint)
	}
	if len(cfg.Namespaces) != 2 || cfg.Namespaces[0] != "/io" {
		t.Fatalf("unexpected namespaces: %v", cfg.Namespaces)
	}
	if cfg.Transport.RequestTimeout != 10*time.Second || cfg.Transport.ConnectTimeout != 5*time.Second {
		t.Fatalf("unexpected timeouts: %+v", cfg.Transport)
	}
	if cfg.Channel.Poll.BaseInterval != 500*time.Millisecond {
		t.Fatalf("unexpected base interval: %v", cfg.Channel.Poll.BaseInterval)
	}
	if cfg.Channel.Poll.StressInterval != 100*time.Millisecond || cfg.Channel.Poll.MaxInterval != time.Second {
		t.Fatalf("unset poll keys should keep defaults: %+v", cfg.Channel.Poll)
	}
	if cfg.Channel.Poll.RelaxThreshold != -1 {
		t.Fatalf("explicit relax threshold lost: %d", cfg.Channel.Poll.RelaxThreshold)
	}
}

func TestLoadClientConfigRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[poll]\nstep = \"often\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadClientConfig(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestClientTemplateLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteTemplate(path, "client", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := loadClientConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Transport.Headers["X-Client"] != "commctl" || len(cfg.Namespaces) != 1 {
		t.Fatalf("unexpected template config: %+v", cfg)
	}
}

func writeClientConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadClientConfigValidatesThroughConfigPackage(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"duplicate namespace": "namespaces = [\"/io\", \" /io \"]\n",
		"bad scheme":          "endpoint = \"ftp://host/comm\"\n",
		"half client cert":    "cert_file = \"client.crt\"\n",
	}
	for name, content := range cases {
		_, err := loadClientConfig(writeClientConfig(t, content))
		if !errors.Is(err, config.ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestEmptyPathUsesDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadClientConfig("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Transport.Endpoint != defaultEndpoint || cfg.Transport.RequestTimeout != 30*time.Second {
		t.Fatalf("unexpected default transport: %+v", cfg.Transport)
	}
	if len(cfg.Namespaces) != 1 || cfg.Namespaces[0] != "" || cfg.Channel.Poll.RelaxThreshold != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestPreferNamespaceDoesNotDuplicate(t *testing.T) {
	testlog.Start(t)
	got := preferNamespace([]string{"", "/io", "/chat"}, " /io")
	if len(got) != 3 || got[0] != "/io" || got[1] != "" || got[2] != "/chat" {
		t.Fatalf("unexpected order: %q", got)
	}
	raw := fileDefaults()
	raw.Namespaces = preferNamespace(raw.Namespaces, "/new")
	if _, err := resolveClientConfig(raw); err != nil {
		t.Fatalf("preferred namespace should validate: %v", err)
	}
}
