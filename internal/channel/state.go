package channel

import (
	"slices"

	"github.com/danmuck/xhrcomm/internal/protocol"
)

// State is the logical connection state derived from inbound traffic.
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// connTracker turns server connect events into local lifecycle events.
type connTracker struct {
	state State
	last  protocol.Args
}

// observe returns the events to deliver for one inbound event, in order.
func (t *connTracker) observe(ev protocol.Event) []protocol.Event {
	if ev.Name != protocol.EventConnect {
		return []protocol.Event{ev}
	}
	t.last = slices.Clone(ev.Args)
	if t.state == StateConnected {
		return []protocol.Event{
			{Name: protocol.EventDisconnect, Args: slices.Clone(ev.Args)},
			{Name: protocol.EventReconnect, Args: slices.Clone(ev.Args)},
		}
	}
	t.state = StateConnected
	return []protocol.Event{ev}
}
