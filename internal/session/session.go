// Package session owns the authentication state machine and is the only writer of session
// state and of the persisted credential.
package session

import (
	"context"

	"github.com/hongminglow/backoffice/internal/models"
)

// Status is the authentication state.
type Status string

const (
	StatusAnonymous      Status = "anonymous"
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
	StatusError          Status = "error"
)

// Session is a point-in-time copy of the session state.
// User is non-nil iff Status is StatusAuthenticated, and then Token is non-empty.
type Session struct {
	Status Status       `json:"status" yaml:"status"`
	User   *models.User `json:"user,omitempty" yaml:"user,omitempty"`
	Token  string       `json:"-" yaml:"-"`
	Err    string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// Authenticated reports whether the snapshot carries a complete session.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// CompanyID returns the tenant of an authenticated snapshot, or "".
func (s Session) CompanyID() string {
	if !s.Authenticated() {
		return ""
	}
	return s.User.CompanyID
}

// Backend is the set of remote operations the manager consumes.
type Backend interface {
	Login(ctx context.Context, email, password string) (string, error)
	Profile(ctx context.Context, token string) (models.User, error)
	Invalidate(ctx context.Context, token string) error
}

// TokenStore is durable local storage for the bearer token and the cached tenant id.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	TenantID(ctx context.Context) (string, error)
	SaveTenantID(ctx context.Context, companyID string) error
	Clear(ctx context.Context) error
}

// Clearer is a session-associated cache purged on logout and on session loss.
type Clearer interface {
	Clear()
}
