package protocol

import (
	"encoding/json"
	"fmt"
	"io"
)

// EncodeRequest writes req as one JSON document. Tasks are always written as
// an array, never null.
func EncodeRequest(w io.Writer, req Request) error {
	if req.ID == "" {
		return ErrMissingID
	}
	if req.Tasks == nil {
		req.Tasks = []Event{}
	}
	return json.NewEncoder(w).Encode(req)
}

// EncodeEvents writes events as an array of tuples.
func EncodeEvents(w io.Writer, events []Event) error {
	if events == nil {
		events = []Event{}
	}
	return json.NewEncoder(w).Encode(events)
}

// CheckEncodable reports whether ev can be written into a request. Values
// JSON has no form for (NaN, channels, funcs) fail here.
func CheckEncodable(ev Event) error {
	if _, err := json.Marshal(ev); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnencodable, ev.Name, err)
	}
	return nil
}
