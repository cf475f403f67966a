package platform

import (
	"context"
	"time"
)

// Every returns a task body that calls fn once per interval until the
// context ends. An error from fn ends the run so the supervisor can restart
// it.
func Every(interval time.Duration, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					return err
				}
			}
		}
	}
}
