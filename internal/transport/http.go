// Package transport carries channel exchanges over HTTP POST.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danmuck/xhrcomm/internal/protocol"
)

var (
	ErrEndpointRequired = errors.New("transport: endpoint required")
	ErrBadStatus        = errors.New("transport: unexpected status")
)

const maxErrorBody = 512

// Config configures the HTTP exchange transport.
type Config struct {
	// Endpoint is the absolute URL exchanges are posted to.
	Endpoint       string
	ConnectTimeout time.Duration
	// RequestTimeout bounds one exchange; zero means wait for the server.
	RequestTimeout time.Duration
	Headers        map[string]string
	// CAFile pins the roots used to verify an https endpoint.
	CAFile string
	// CertFile and KeyFile present a client certificate.
	CertFile string
	KeyFile  string
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 5 * time.Second,
		RequestTimeout: 30 * time.Second,
	}
}

func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.RequestTimeout < 0 {
		c.RequestTimeout = 0
	}
	return c
}

// HTTP posts one request per exchange and decodes the ordered event list.
type HTTP struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
}

func NewHTTP(cfg Config) (*HTTP, error) {
	cfg = cfg.WithDefaults()
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("transport: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("transport: unsupported endpoint scheme %q", u.Scheme)
	}
	tlsCfg, err := clientTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	return &HTTP{
		endpoint: u.String(),
		headers:  cfg.Headers,
		client: &http.Client{
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSClientConfig:     tlsCfg,
				TLSHandshakeTimeout: cfg.ConnectTimeout,
				MaxIdleConnsPerHost: 4,
			},
			Timeout: cfg.RequestTimeout,
		},
	}, nil
}

// NewHTTPWithClient uses an existing client, e.g. one from httptest.
func NewHTTPWithClient(endpoint string, client *http.Client) (*HTTP, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, ErrEndpointRequired
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{endpoint: endpoint, client: client}, nil
}

func (t *HTTP) Endpoint() string {
	return t.endpoint
}

func (t *HTTP) Exchange(ctx context.Context, req protocol.Request) ([]protocol.Event, error) {
	var body bytes.Buffer
	if err := protocol.EncodeRequest(&body, req); err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: POST %s: %d %s", ErrBadStatus, t.endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return protocol.DecodeEvents(resp.Body)
}
