package background

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDetachedGo(t *testing.T) {
	t.Parallel()

	t.Run("task runs off the caller goroutine", func(t *testing.T) {
		t.Parallel()

		runner := NewDetached(zerolog.Nop(), time.Second)
		done := make(chan struct{})

		runner.Go("probe", func(ctx context.Context) error {
			close(done)
			return nil
		})

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("task never ran")
		}
	})

	t.Run("context carries the deadline", func(t *testing.T) {
		t.Parallel()

		runner := NewDetached(zerolog.Nop(), time.Minute)
		deadlines := make(chan bool, 1)

		runner.Go("probe", func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			deadlines <- ok
			return nil
		})

		require.True(t, <-deadlines)
	})

	t.Run("failures and panics stay contained", func(t *testing.T) {
		t.Parallel()

		runner := NewDetached(zerolog.Nop(), time.Second)
		done := make(chan struct{})

		runner.Go("fails", func(ctx context.Context) error {
			return errors.New("task error")
		})
		runner.Go("panics", func(ctx context.Context) error {
			defer close(done)
			panic("task panic")
		})

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("panicking task never ran")
		}
	})
}
