package channel

import (
	"context"
	"time"

	"github.com/danmuck/xhrcomm/internal/protocol"
)

// Transport performs one exchange: send the request, return the ordered
// inbound events. An error means no usable response was received.
type Transport interface {
	Exchange(ctx context.Context, req protocol.Request) ([]protocol.Event, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req protocol.Request) ([]protocol.Event, error)

func (f TransportFunc) Exchange(ctx context.Context, req protocol.Request) ([]protocol.Event, error) {
	return f(ctx, req)
}

// Outcome classifies a finished exchange for pacing.
type Outcome string

const (
	OutcomeData    Outcome = "data"
	OutcomeIdle    Outcome = "idle"
	OutcomeFailure Outcome = "failure"
)

type exchangeResult struct {
	seq    uint64
	tasks  int
	events []protocol.Event
	err    error
	took   time.Duration
}

func (r exchangeResult) outcome() Outcome {
	switch {
	case r.err != nil:
		return OutcomeFailure
	case len(r.events) == 0:
		return OutcomeIdle
	default:
		return OutcomeData
	}
}
