package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNoSession is returned when an operation requires an authenticated
// operator but the context carries none.
var ErrNoSession = errors.New("no operator session")

// Session identifies the authenticated operator and the tenant whose data
// they act on. It is resolved from the API key on every request and passed
// explicitly; there is no ambient tenant state.
type Session struct {
	TenantID     string
	OperatorID   string
	OperatorName string
}

// APIKey is the stored form of an operator credential. Only the HMAC-SHA256
// hash of the key is persisted.
type APIKey struct {
	ID           string
	TenantID     string
	KeyHash      string
	OperatorName string
}

// Repository provides API key lookups.
type Repository interface {
	// FindByHash looks up an active API key by its HMAC-SHA256 hex hash.
	FindByHash(ctx context.Context, hash string) (*APIKey, error)
}

type sessionKey struct{}

// WithSession returns a context carrying the given session.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext extracts the operator session from the context.
func SessionFromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	if !ok || s.TenantID == "" {
		return Session{}, ErrNoSession
	}
	return s, nil
}
