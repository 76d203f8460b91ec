package history

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
)

// ErrDegraded is reported by [Guard.Ping] while the last store operation
// failed.
var ErrDegraded = errors.New("history: store degraded")

// Guard wraps a [Store] and makes reads and writes non-fatal. A failing
// store never blocks an analysis from being shown; failures are logged and
// the guard is marked degraded until the next successful operation.
//
// All methods are safe for concurrent use.
type Guard struct {
	store    Store
	degraded atomic.Bool
}

// Compile-time interface check.
var _ Store = (*Guard)(nil)

// NewGuard wraps store.
func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// Append writes r to the underlying store. Failures are logged and
// swallowed.
func (g *Guard) Append(ctx context.Context, r Record) error {
	if err := g.store.Append(ctx, r); err != nil {
		g.degraded.Store(true)
		slog.Warn("history guard: append failed, swallowing error", "record_id", r.ID, "err", err)
		return nil
	}
	g.degraded.Store(false)
	return nil
}

// Recent reads from the underlying store. On failure an empty slice is
// returned.
func (g *Guard) Recent(ctx context.Context, limit int) ([]Record, error) {
	recs, err := g.store.Recent(ctx, limit)
	if err != nil {
		g.degraded.Store(true)
		slog.Warn("history guard: recent failed, returning empty", "limit", limit, "err", err)
		return []Record{}, nil
	}
	g.degraded.Store(false)
	return recs, nil
}

// Ping reports the underlying store's error, or [ErrDegraded] while the last
// operation failed.
func (g *Guard) Ping(ctx context.Context) error {
	if err := g.store.Ping(ctx); err != nil {
		return err
	}
	if g.IsDegraded() {
		return ErrDegraded
	}
	return nil
}

// Close closes the underlying store.
func (g *Guard) Close() error { return g.store.Close() }

// IsDegraded reports whether the most recent operation failed.
func (g *Guard) IsDegraded() bool { return g.degraded.Load() }
