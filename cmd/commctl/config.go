package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/xhrcomm/internal/channel"
	"github.com/danmuck/xhrcomm/internal/config"
	"github.com/danmuck/xhrcomm/internal/transport"
	"github.com/rs/zerolog/log"
)

const defaultEndpoint = "http://localhost:9100/comm"

type clientConfig struct {
	Transport  transport.Config
	Channel    channel.Config
	Namespaces []string
}

// fileDefaults is the layout assumed for keys a config file leaves out.
func fileDefaults() config.ClientConfig {
	return config.ClientConfig{
		Endpoint:   defaultEndpoint,
		Namespaces: []string{""},
	}
}

// readClientFile overlays the keys defined in path onto fileDefaults. An
// empty path returns the defaults.
func readClientFile(path string) (config.ClientConfig, error) {
	raw := fileDefaults()
	if strings.TrimSpace(path) == "" {
		return raw, nil
	}
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config.ClientConfig{}, fmt.Errorf("load commctl config: %w", err)
	}
	if meta.IsDefined("endpoint") {
		raw.Endpoint = strings.TrimSpace(raw.Endpoint)
	}
	if meta.IsDefined("namespaces") {
		raw.Namespaces = normalizeNamespaces(raw.Namespaces)
	}
	for _, key := range meta.Undecoded() {
		log.Warn().Str("path", path).Str("key", key.String()).Msg("ignoring unknown commctl config key")
	}
	return raw, nil
}

// resolveClientConfig validates raw and converts it to runtime settings.
func resolveClientConfig(raw config.ClientConfig) (clientConfig, error) {
	if err := config.ValidateClientConfig(raw); err != nil {
		return clientConfig{}, err
	}
	tr, err := raw.Transport()
	if err != nil {
		return clientConfig{}, err
	}
	ch, err := raw.Channel()
	if err != nil {
		return clientConfig{}, err
	}
	return clientConfig{Transport: tr, Channel: ch, Namespaces: raw.Namespaces}, nil
}

func loadClientConfig(path string) (clientConfig, error) {
	raw, err := readClientFile(path)
	if err != nil {
		return clientConfig{}, err
	}
	return resolveClientConfig(raw)
}

// preferNamespace moves ns to the front of namespaces, adding it if absent.
func preferNamespace(namespaces []string, ns string) []string {
	ns = strings.TrimSpace(ns)
	out := []string{ns}
	for _, existing := range namespaces {
		if existing != ns {
			out = append(out, existing)
		}
	}
	return out
}

func normalizeNamespaces(in []string) []string {
	out := make([]string, 0, len(in))
	for _, ns := range in {
		out = append(out, strings.TrimSpace(ns))
	}
	if len(out) == 0 {
		return []string{""}
	}
	return out
}
