package protocol

import (
	"encoding/json"
	"fmt"
	"math"
)

// Reserved event names with transport meaning.
const (
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
	EventReconnect  = "reconnect"
	EventError      = "error"
)

// IsReserved reports whether name carries protocol meaning.
func IsReserved(name string) bool {
	switch name {
	case EventConnect, EventDisconnect, EventReconnect, EventError:
		return true
	}
	return false
}

// Args are the positional parameters of an event. Values decoded from the
// wire are plain JSON values (string, float64, bool, nil, []any,
// map[string]any).
type Args []any

func (a Args) Len() int {
	return len(a)
}

func (a Args) String(i int) (string, bool) {
	if i < 0 || i >= len(a) {
		return "", false
	}
	s, ok := a[i].(string)
	return s, ok
}

func (a Args) Int(i int) (int64, bool) {
	if i < 0 || i >= len(a) {
		return 0, false
	}
	switch v := a[i].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	}
	return 0, false
}

func (a Args) Map(i int) (map[string]any, bool) {
	if i < 0 || i >= len(a) {
		return nil, false
	}
	m, ok := a[i].(map[string]any)
	return m, ok
}

// Event is one tagged tuple. On the wire the name is the first element and
// the params follow.
type Event struct {
	Name string
	Args Args
}

func NewEvent(name string, args ...any) Event {
	return Event{Name: name, Args: Args(args)}
}

func (e Event) String() string {
	return fmt.Sprintf("%s%v", e.Name, []any(e.Args))
}

func (e Event) MarshalJSON() ([]byte, error) {
	if e.Name == "" {
		return nil, ErrEmptyName
	}
	tuple := make([]any, 0, 1+len(e.Args))
	tuple = append(tuple, e.Name)
	tuple = append(tuple, e.Args...)
	return json.Marshal(tuple)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(raw) == 0 {
		return ErrEmptyTuple
	}
	var name string
	if err := json.Unmarshal(raw[0], &name); err != nil {
		return ErrNameNotString
	}
	if name == "" {
		return ErrEmptyName
	}
	args := make(Args, 0, len(raw)-1)
	for _, item := range raw[1:] {
		var v any
		if err := json.Unmarshal(item, &v); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		args = append(args, v)
	}
	e.Name = name
	e.Args = args
	return nil
}

// Request is the body of one exchange: who is polling and what it sends.
type Request struct {
	ID        string  `json:"id"`
	Namespace string  `json:"ns,omitempty"`
	Tasks     []Event `json:"tasks"`
}
