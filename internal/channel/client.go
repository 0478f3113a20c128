package channel

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/danmuck/xhrcomm/internal/protocol"
)

// Client hands out one Channel per namespace over a shared transport.
type Client struct {
	cfg       Config
	transport Transport

	mu       sync.Mutex
	channels map[string]*Channel
	closed   bool
}

func NewClient(cfg Config, transport Transport) *Client {
	cfg.ID = ""
	return &Client{
		cfg:       cfg,
		transport: transport,
		channels:  make(map[string]*Channel),
	}
}

// Connect returns the channel for namespace, opening it on first use. A new
// channel announces itself with a connect task.
func (c *Client) Connect(ctx context.Context, namespace string) (*Channel, error) {
	namespace = strings.TrimSpace(namespace)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if ch, ok := c.channels[namespace]; ok {
		return ch, nil
	}

	cfg := c.cfg
	cfg.Namespace = namespace
	ch, err := New(cfg, c.transport)
	if err != nil {
		return nil, err
	}
	c.channels[namespace] = ch
	ch.Start(ctx)
	ch.Emit(protocol.EventConnect)
	return ch, nil
}

func (c *Client) Namespaces() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.channels))
	for ns := range c.channels {
		out = append(out, ns)
	}
	slices.Sort(out)
	return out
}

func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	channels := make([]*Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		channels = append(channels, ch)
	}
	c.mu.Unlock()

	for _, ch := range channels {
		_ = ch.Close()
	}
	return nil
}
