package services

import (
	"context"
	"time"
)

// cleanupTimeout bounds work done after the run context is gone.
const cleanupTimeout = 30 * time.Second

// persistentContext keeps ctx values (trace span, logger attrs) but drops its
// cancellation, so in-flight records and lock bookkeeping can complete.
func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}

// cleanupContext is persistentContext with a deadline, for ledger writes and
// session teardown that must not hang a shutdown.
func cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(persistentContext(ctx), cleanupTimeout)
}
