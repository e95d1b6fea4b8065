package middlewares

import (
	"context"
	"fmt"

	"github.com/sbilibin2017/bank-system/internal/logger"
)

// RecoverMiddleware turns a panic inside a command into an error so the menu keeps running.
func RecoverMiddleware() func(Command) Command {
	return func(next Command) Command {
		return func(ctx context.Context) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Log.Errorw("command panicked", "panic", rec, "request_id", GetRequestIDFromContext(ctx))
					err = fmt.Errorf("internal error: %v", rec)
				}
			}()
			return next(ctx)
		}
	}
}
