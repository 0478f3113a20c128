package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DecodeRequest reads one request envelope.
func DecodeRequest(r io.Reader) (Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Request{}, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Request{}, ErrEmptyPayload
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, wrapMalformed(err)
	}
	if req.ID == "" {
		return Request{}, ErrMissingID
	}
	return req, nil
}

// DecodeEvents reads an ordered event list. An empty body decodes to no
// events and no error.
func DecodeEvents(r io.Reader) ([]Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, wrapMalformed(err)
	}
	return events, nil
}

func wrapMalformed(err error) error {
	if errors.Is(err, ErrMalformedPayload) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
}
