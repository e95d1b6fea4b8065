package middlewares

import "context"

// Command is a single menu action run by the console.
type Command func(ctx context.Context) error

// Chain wraps cmd with the given middlewares; the first one runs outermost.
func Chain(cmd Command, mws ...func(Command) Command) Command {
	for i := len(mws) - 1; i >= 0; i-- {
		cmd = mws[i](cmd)
	}
	return cmd
}
