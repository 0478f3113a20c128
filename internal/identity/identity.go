// Package identity generates the per-session client identifier that lets
// the server correlate independent polls to one logical connection.
//
// The identifier is a random version-4 UUID in lowercase text form. It is a
// correlation token, not a credential.
package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidID = errors.New("identity: invalid id")

// ID is an opaque session identifier.
type ID string

// New returns a fresh random identifier.
func New() ID {
	return ID(uuid.New().String())
}

// Parse validates raw as a version-4 identifier and normalizes its case.
// The server keys sessions by the parsed form.
func Parse(raw string) (ID, error) {
	u, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if u.Version() != 4 || u.Variant() != uuid.RFC4122 {
		return "", fmt.Errorf("%w: version=%d variant=%s", ErrInvalidID, u.Version(), u.Variant())
	}
	return ID(u.String()), nil
}

func (id ID) String() string {
	return string(id)
}
