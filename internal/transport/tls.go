package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrTLSConfig = errors.New("transport: invalid tls config")

// clientTLSConfig returns nil when no TLS material is configured, which
// keeps the system roots.
func clientTLSConfig(cfg Config) (*tls.Config, error) {
	caFile := strings.TrimSpace(cfg.CAFile)
	certFile := strings.TrimSpace(cfg.CertFile)
	keyFile := strings.TrimSpace(cfg.KeyFile)
	if caFile == "" && certFile == "" && keyFile == "" {
		return nil, nil
	}

	out := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("%w: read ca file: %w", ErrTLSConfig, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: no certificates in %s", ErrTLSConfig, caFile)
		}
		out.RootCAs = pool
	}
	if (certFile == "") != (keyFile == "") {
		return nil, fmt.Errorf("%w: cert_file and key_file must be set together", ErrTLSConfig)
	}
	if certFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: load client cert: %w", ErrTLSConfig, err)
		}
		out.Certificates = []tls.Certificate{cert}
	}
	return out, nil
}
