package channel

import (
	"runtime/debug"
	"slices"

	"github.com/danmuck/xhrcomm/internal/protocol"
)

// Handler receives the positional params of one event. A returned error or
// a panic is a dispatch failure.
type Handler func(args protocol.Args) error

// Registry maps event names to handlers in registration order. It is
// append-only and not safe for concurrent use; Channel serializes access.
type Registry struct {
	handlers map[string][]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string][]Handler)}
}

func (r *Registry) On(name string, h Handler) {
	if h == nil {
		return
	}
	r.handlers[name] = append(r.handlers[name], h)
}

// Handlers returns a copy of the handlers registered for name.
func (r *Registry) Handlers(name string) []Handler {
	return slices.Clone(r.handlers[name])
}

func (r *Registry) Len(name string) int {
	return len(r.handlers[name])
}

// Dispatch invokes every handler for name in order and stops at the first
// failure, which is returned to the caller.
func (r *Registry) Dispatch(name string, args protocol.Args) error {
	return dispatch(name, r.Handlers(name), args)
}

func dispatch(name string, handlers []Handler, args protocol.Args) error {
	for _, h := range handlers {
		if err := invoke(name, h, args); err != nil {
			return err
		}
	}
	return nil
}

func invoke(name string, h Handler, args protocol.Args) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(name, h, r, debug.Stack())
		}
	}()
	if herr := h(args); herr != nil {
		return newHandlerError(name, h, herr)
	}
	return nil
}
