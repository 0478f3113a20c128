package channel

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/danmuck/xhrcomm/internal/protocol"
)

// DispatchError is a handler failure captured by the dispatch loop.
type DispatchError struct {
	Event string
	Err   error
	// Panic holds the recovered value when the handler panicked.
	Panic    any
	location string
	stack    []byte
}

func newHandlerError(event string, h Handler, err error) *DispatchError {
	return &DispatchError{Event: event, Err: err, location: handlerLocation(h)}
}

func newPanicError(event string, h Handler, value any, stack []byte) *DispatchError {
	err, ok := value.(error)
	if !ok {
		err = fmt.Errorf("%v", value)
	}
	return &DispatchError{Event: event, Err: err, Panic: value, location: handlerLocation(h), stack: stack}
}

func (e *DispatchError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("handler for %q panicked: %v", e.Event, e.Err)
	}
	return fmt.Sprintf("handler for %q failed: %v", e.Event, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func (e *DispatchError) Kind() string {
	if e.Panic != nil {
		return "HandlerPanic"
	}
	return "HandlerError"
}

// Location is the file:line where the failing handler was declared.
func (e *DispatchError) Location() string {
	return e.location
}

func (e *DispatchError) Stack() string {
	return string(e.stack)
}

func handlerLocation(h Handler) string {
	if h == nil {
		return ""
	}
	fn := runtime.FuncForPC(reflect.ValueOf(h).Pointer())
	if fn == nil {
		return ""
	}
	file, line := fn.FileLine(fn.Entry())
	if file == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// FormatError renders whichever of kind, message, code, location and stack
// err exposes, in that order.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	if kind := errorKind(err); kind != "" {
		b.WriteString(kind)
		b.WriteString(": ")
	}
	b.WriteString(err.Error())

	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		fmt.Fprintf(&b, " (code %d)", coded.Code())
	}
	var located interface{ Location() string }
	if errors.As(err, &located) {
		if loc := located.Location(); loc != "" {
			fmt.Fprintf(&b, " (at %s)", loc)
		}
	}
	var stacked interface{ Stack() string }
	if errors.As(err, &stacked) {
		if stack := strings.TrimSpace(stacked.Stack()); stack != "" {
			b.WriteString("\n")
			b.WriteString(stack)
		}
	}
	return b.String()
}

func errorKind(err error) string {
	var kinded interface{ Kind() string }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return fmt.Sprintf("%T", err)
}

// Reporter funnels errors into the outbound event stream as error tasks.
type Reporter struct {
	emit func(name string, args ...any)
}

func NewReporter(emit func(name string, args ...any)) *Reporter {
	return &Reporter{emit: emit}
}

func (r *Reporter) Report(err error) {
	if err == nil || r.emit == nil {
		return
	}
	r.emit(protocol.EventError, FormatError(err))
}
