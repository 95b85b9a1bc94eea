// Package background runs best-effort side tasks whose failure must
// not affect the response that triggered them.
package background

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Runner dispatches a named task without the caller awaiting it.
// Tests substitute a synchronous implementation to assert dispatch.
type Runner interface {
	Go(name string, fn func(ctx context.Context) error)
}

// Detached runs each task on its own goroutine with a bounded context.
// Failures and panics are logged, never propagated or retried.
type Detached struct {
	log     zerolog.Logger
	timeout time.Duration
}

func NewDetached(log zerolog.Logger, timeout time.Duration) *Detached {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Detached{log: log, timeout: timeout}
}

func (d *Detached) Go(name string, fn func(ctx context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.log.Error().Interface("panic", r).Str("task", name).Msg("background task panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			d.log.Warn().Err(err).Str("task", name).Msg("background task failed")
		}
	}()
}
