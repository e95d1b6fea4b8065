package middlewares

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type requestIDKey struct{}

// LoggingMiddleware returns a middleware that logs each command and its outcome
// using the provided SugaredLogger.
// It also generates a unique request ID for each command run.
func LoggingMiddleware(log *zap.SugaredLogger, name string) func(Command) Command {
	return func(next Command) Command {
		return func(ctx context.Context) error {
			// Generate a new UUID for this command
			reqID := uuid.New().String()
			ctx = context.WithValue(ctx, requestIDKey{}, reqID)

			start := time.Now()
			err := next(ctx)
			duration := time.Since(start)

			fields := []any{
				"request_id", reqID,
				"command", name,
				"duration", duration,
			}
			if s := GetSessionFromContext(ctx); s != nil {
				fields = append(fields, "session_id", s.ID, "account_number", s.AccountNumber)
			}

			if err != nil {
				log.Warnw("command failed", append(fields, "error", err)...)
				return err
			}
			log.Infow("command completed", fields...)
			return nil
		}
	}
}

// GetRequestIDFromContext returns the request ID set by LoggingMiddleware, or "".
func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
