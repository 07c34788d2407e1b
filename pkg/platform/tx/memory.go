package tx

import (
	"context"
	"sync"
	"time"

	dErrors "estatehub/pkg/domain-errors"
)

// Memory serializes units of work for in-memory stores. Stores register undo
// functions with OnRollback so a failed unit of work leaves no partial writes.
type Memory struct {
	mu      sync.Mutex
	timeout time.Duration
}

// NewMemory constructs an in-memory transaction runner.
func NewMemory() *Memory {
	return &Memory{}
}

type journalKey struct{}

type journal struct {
	undo []func()
}

func (t *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}

	ctx, cancel := withTimeout(ctx, t.timeout)
	defer cancel()

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		return err
	}
	return nil
}

// OnRollback registers undo to run if the enclosing in-memory unit of work fails.
// Outside a unit of work it does nothing.
func OnRollback(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}
