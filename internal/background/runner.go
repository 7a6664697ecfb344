package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-tourease-suggestions/app/observability/metrics"
)

const defaultTimeout = 90 * time.Second

// Runner executes fire-and-forget work that must outlive the HTTP request
// that scheduled it. Tasks keep the request's context values but not its
// cancellation, and each one runs under its own timeout.
type Runner struct {
	// mu orders wg.Add in Go against the close in Shutdown.
	mu      sync.Mutex
	closed  bool
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *slog.Logger
}

func NewRunner(timeout time.Duration, logger *slog.Logger) *Runner {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Runner{timeout: timeout, logger: logger}
}

// Go schedules task. Errors and panics are logged and counted, never returned.
// Tasks scheduled after Shutdown are dropped.
func (r *Runner) Go(ctx context.Context, name string, task func(ctx context.Context) error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.WarnContext(ctx, "Background runner closed, dropping task", slog.String("task", name))
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()

		taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		defer func() {
			if rec := recover(); rec != nil {
				r.logger.ErrorContext(taskCtx, "Background task panicked", slog.String("task", name), slog.Any("panic", rec))
				r.countFailure(taskCtx, name)
			}
		}()

		start := time.Now()
		if err := task(taskCtx); err != nil {
			r.logger.ErrorContext(taskCtx, "Background task failed",
				slog.String("task", name),
				slog.Duration("elapsed", time.Since(start)),
				slog.Any("error", err))
			r.countFailure(taskCtx, name)
			return
		}
		r.logger.DebugContext(taskCtx, "Background task finished",
			slog.String("task", name),
			slog.Duration("elapsed", time.Since(start)))
	}()
}

func (r *Runner) countFailure(ctx context.Context, name string) {
	metrics.Get().BackgroundTaskFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("task", name)))
}

// Shutdown stops accepting tasks and waits for the running ones or ctx.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
