// Package deadline bounds every data store call with a fixed timeout.
//
// The operation receives a context that expires with the deadline, so drivers
// that honour cancellation stop early. Drivers that do not are abandoned: the
// caller gets ErrTimeout as soon as the deadline passes and the operation's
// eventual result is discarded.
package deadline

import (
	"context"
	"fmt"
	"time"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/domain"
)

// DefaultTimeout is applied when no explicit timeout is configured.
const DefaultTimeout = 350 * time.Millisecond

type result[T any] struct {
	value T
	err   error
}

// Run executes fn with the given timeout. A failure reported by fn is wrapped
// with domain.ErrDataStore, an expired deadline with domain.ErrTimeout.
func Run[T any](ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so an abandoned operation can still deliver and exit.
	done := make(chan result[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- result[T]{value: v, err: err}
	}()

	var zero T
	select {
	case res := <-done:
		if res.err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return zero, fmt.Errorf("%s: %w", op, domain.ErrTimeout)
			}
			return zero, fmt.Errorf("%s: %w: %w", op, domain.ErrDataStore, res.err)
		}
		return res.value, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return zero, fmt.Errorf("%s: %w", op, domain.ErrTimeout)
		}
		return zero, fmt.Errorf("%s: %w: %w", op, domain.ErrDataStore, ctx.Err())
	}
}

// Exec is Run for operations without a result.
func Exec(ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) error) error {
	_, err := Run(ctx, timeout, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
