package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

func newTestRunner(timeout time.Duration) *Runner {
	return NewRunner(timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunner_Go(t *testing.T) {
	t.Run("outlives the scheduling context and keeps its values", func(t *testing.T) {
		r := newTestRunner(time.Second)
		ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "req-1"))

		got := make(chan string, 1)
		r.Go(ctx, "value", func(ctx context.Context) error {
			time.Sleep(20 * time.Millisecond)
			if ctx.Err() != nil {
				got <- "cancelled"
				return ctx.Err()
			}
			got <- ctx.Value(ctxKey{}).(string)
			return nil
		})
		cancel()

		require.NoError(t, r.Shutdown(context.Background()))
		assert.Equal(t, "req-1", <-got)
	})

	t.Run("task timeout applies", func(t *testing.T) {
		r := newTestRunner(10 * time.Millisecond)
		var sawDeadline atomic.Bool
		r.Go(context.Background(), "slow", func(ctx context.Context) error {
			<-ctx.Done()
			sawDeadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
			return ctx.Err()
		})
		require.NoError(t, r.Shutdown(context.Background()))
		assert.True(t, sawDeadline.Load())
	})

	t.Run("panic is contained", func(t *testing.T) {
		r := newTestRunner(time.Second)
		r.Go(context.Background(), "panics", func(ctx context.Context) error {
			panic("boom")
		})
		assert.NoError(t, r.Shutdown(context.Background()))
	})

	t.Run("tasks after shutdown are dropped", func(t *testing.T) {
		r := newTestRunner(time.Second)
		require.NoError(t, r.Shutdown(context.Background()))

		var ran atomic.Bool
		r.Go(context.Background(), "late", func(ctx context.Context) error {
			ran.Store(true)
			return nil
		})
		require.NoError(t, r.Shutdown(context.Background()))
		assert.False(t, ran.Load())
	})

	t.Run("shutdown honours its context", func(t *testing.T) {
		r := newTestRunner(time.Second)
		release := make(chan struct{})
		r.Go(context.Background(), "blocked", func(ctx context.Context) error {
			<-release
			return nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, r.Shutdown(ctx), context.DeadlineExceeded)
		close(release)
		assert.NoError(t, r.Shutdown(context.Background()))
	})
	t.Run("shutdown racing with scheduling waits for every accepted task", func(t *testing.T) {
		r := newTestRunner(time.Second)
		var started, finished atomic.Int64

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.Go(context.Background(), "racing", func(ctx context.Context) error {
					started.Add(1)
					time.Sleep(time.Millisecond)
					finished.Add(1)
					return nil
				})
			}()
		}
		require.NoError(t, r.Shutdown(context.Background()))
		assert.Equal(t, started.Load(), finished.Load())

		wg.Wait()
		time.Sleep(5 * time.Millisecond)
		assert.Equal(t, started.Load(), finished.Load())
	})
}
