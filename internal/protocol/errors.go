package protocol

import "errors"

var (
	ErrEmptyPayload     = errors.New("protocol: empty payload")
	ErrMalformedPayload = errors.New("protocol: malformed payload")
	ErrEmptyTuple       = errors.New("protocol: empty event tuple")
	ErrNameNotString    = errors.New("protocol: event name is not a string")
	ErrEmptyName        = errors.New("protocol: empty event name")
	ErrMissingID        = errors.New("protocol: request missing id")
	ErrUnencodable      = errors.New("protocol: event cannot be encoded")
)
