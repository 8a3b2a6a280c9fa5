package session

import (
	"errors"
	"strings"
)

// MessageConnection is the user-facing message for retryable connectivity failures.
const MessageConnection = "connection error"

var (
	ErrInvalidState       = errors.New("session: operation not allowed in current state")
	ErrNotAuthenticated   = errors.New("session: not authenticated")
	ErrConnection         = errors.New(MessageConnection)
	ErrSuperseded         = errors.New("session: result discarded, session changed while in flight")
	ErrProfileUnavailable = errors.New("session: profile could not be loaded")
	ErrTenantChanged      = errors.New("session: profile tenant differs from session tenant")
)

// CredentialError is a login rejected by the backend. It is user-correctable.
type CredentialError struct {
	Messages []string
}

func (e *CredentialError) Error() string {
	if len(e.Messages) == 0 {
		return "invalid credentials"
	}
	return strings.Join(e.Messages, "; ")
}
