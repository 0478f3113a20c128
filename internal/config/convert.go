package config

import (
	"strings"
	"time"

	"github.com/danmuck/xhrcomm/internal/channel"
	"github.com/danmuck/xhrcomm/internal/server"
	"github.com/danmuck/xhrcomm/internal/transport"
)

// Server converts the file layout to runtime server settings. Unset values
// fall back to server defaults.
func (c ServerConfig) Server() (server.Config, error) {
	expiry, err := parseDuration("session_expiration", c.SessionExpiration)
	if err != nil {
		return server.Config{}, err
	}
	shutdown, err := parseDuration("shutdown_timeout", c.ShutdownTimeout)
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{
		Name:              strings.TrimSpace(c.Name),
		Addr:              strings.TrimSpace(c.Addr),
		Path:              strings.TrimSpace(c.Path),
		SessionExpiration: expiry,
		ShutdownTimeout:   shutdown,
		CorsOrigins:       c.CorsOrigins,
		AuthToken:         strings.TrimSpace(c.AuthToken),
		TLSCertFile:       strings.TrimSpace(c.TLSCertFile),
		TLSKeyFile:        strings.TrimSpace(c.TLSKeyFile),
		TLSClientCAFile:   strings.TrimSpace(c.TLSClientCAFile),
	}.WithDefaults(), nil
}

func (c ClientConfig) Transport() (transport.Config, error) {
	connect, err := parseDuration("connect_timeout", c.ConnectTimeout)
	if err != nil {
		return transport.Config{}, err
	}
	request, err := parseDuration("request_timeout", c.RequestTimeout)
	if err != nil {
		return transport.Config{}, err
	}
	if request == 0 {
		request = transport.DefaultConfig().RequestTimeout
	}
	return transport.Config{
		Endpoint:       strings.TrimSpace(c.Endpoint),
		ConnectTimeout: connect,
		RequestTimeout: request,
		Headers:        c.Headers,
		CAFile:         strings.TrimSpace(c.CAFile),
		CertFile:       strings.TrimSpace(c.CertFile),
		KeyFile:        strings.TrimSpace(c.KeyFile),
	}.WithDefaults(), nil
}

// Channel returns the channel template shared by every namespace.
func (c ClientConfig) Channel() (channel.Config, error) {
	poll, err := c.Poll.poll()
	if err != nil {
		return channel.Config{}, err
	}
	return channel.Config{Poll: poll}, nil
}

func (p PollConfig) poll() (channel.PollConfig, error) {
	var out channel.PollConfig
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"poll.stress_interval", p.StressInterval, &out.StressInterval},
		{"poll.base_interval", p.BaseInterval, &out.BaseInterval},
		{"poll.max_interval", p.MaxInterval, &out.MaxInterval},
		{"poll.step", p.Step, &out.Step},
	}
	for _, f := range fields {
		d, err := parseDuration(f.name, f.raw)
		if err != nil {
			return channel.PollConfig{}, err
		}
		*f.dst = d
	}
	out.RelaxThreshold = p.RelaxThreshold
	return out.WithDefaults(), nil
}
