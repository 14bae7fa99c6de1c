package command

import (
	"context"
	"time"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
)

// waitUntil polls pred every interval until it reports true, the timeout
// elapses, or ctx is cancelled. The predicate is evaluated once immediately.
func (e *Executors) waitUntil(ctx context.Context, what string, timeout time.Duration, pred func() bool) error {
	if pred() {
		return nil
	}

	deadline := e.now().Add(timeout)
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if pred() {
				return nil
			}
			if e.now().After(deadline) {
				return &core.TimeoutError{What: what}
			}
		}
	}
}
