package middlewares

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/sbilibin2017/bank-system/internal/logger"
)

// ErrNoSession is returned when an account command runs without a logged-in session.
var ErrNoSession = errors.New("not logged in")

// Session is the console's record of a successful login.
// It lives only in the context of the account menu.
type Session struct {
	ID            string
	AccountNumber int
	PIN           string
}

// NewSession starts a session for accountNumber with a fresh ID.
func NewSession(accountNumber int, pin string) *Session {
	return &Session{
		ID:            uuid.New().String(),
		AccountNumber: accountNumber,
		PIN:           pin,
	}
}

// contextKey is an unexported type for keys in context
type contextKey struct{}

var sessionKey = contextKey{}

// SetSessionToContext stores a session in the context
func SetSessionToContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// GetSessionFromContext retrieves the session from the context. Returns nil if not present.
func GetSessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

// AuthMiddleware rejects commands that run outside a logged-in session.
func AuthMiddleware() func(Command) Command {
	return func(next Command) Command {
		return func(ctx context.Context) error {
			if GetSessionFromContext(ctx) == nil {
				logger.Log.Errorw("authorization failed", "err", ErrNoSession)
				return ErrNoSession
			}
			return next(ctx)
		}
	}
}
