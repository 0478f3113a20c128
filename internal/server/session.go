package server

import (
	"sync"
	"time"

	"github.com/danmuck/xhrcomm/internal/protocol"
)

// Session is the server-side state for one client id.
type Session struct {
	ID        string
	Namespace string
	Created   time.Time

	mu      sync.Mutex
	outbox  []protocol.Event
	values  map[string]any
	closing bool
}

func newSession(id, namespace string) *Session {
	return &Session{
		ID:        id,
		Namespace: namespace,
		Created:   time.Now(),
		values:    make(map[string]any),
	}
}

// Emit queues an event for the session's next response.
func (s *Session) Emit(name string, args ...any) {
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, protocol.NewEvent(name, args...))
}

func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Disconnect pushes a disconnect event and drops the session once the
// current response is written. The next poll from the same id opens a fresh
// session. Repeated calls push the event once.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return
	}
	s.outbox = append(s.outbox, protocol.NewEvent(protocol.EventDisconnect))
	s.closing = true
}

func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outbox)
}

func (s *Session) drain() ([]protocol.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.outbox
	s.outbox = nil
	return out, s.closing
}
