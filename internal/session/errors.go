package session

import (
	"errors"
	"fmt"
)

// ErrNoHostOrigin is returned when no trusted host origin is configured.
// The session must abort before sending anything.
var ErrNoHostOrigin = errors.New("no trusted host origin configured")

// ErrNoEmbedURL is returned when no embedded content URL is configured.
var ErrNoEmbedURL = errors.New("no embedded content URL configured")

// ErrNoCredentialSource is returned when the session has no way to resolve
// a credential at all (no resolver wired).
var ErrNoCredentialSource = errors.New("no credential source configured")

// AuthRejectedError reports a terminal authorization rejection.
type AuthRejectedError struct {
	Reason string
}

func (e *AuthRejectedError) Error() string {
	if e.Reason == "" {
		return "host rejected authorization"
	}
	return fmt.Sprintf("host rejected authorization: %s", e.Reason)
}
