package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry of a [FallbackGroup] failed or
// was skipped by its breaker.
var ErrAllFailed = errors.New("resilience: all entries failed")

// FallbackConfig is the template for the breaker created per entry. Name is
// replaced by the entry name.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

type fallbackEntry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup tries a primary value and then its fallbacks in registration
// order, skipping entries whose breaker is open.
//
// Entries must all be added before the group is used concurrently.
type FallbackGroup[T any] struct {
	entries []fallbackEntry[T]
	cfg     FallbackConfig
}

// NewFallbackGroup creates a group with primary as its first entry.
func NewFallbackGroup[T any](primaryName string, primary T, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends an entry tried after all earlier ones.
func (fg *FallbackGroup[T]) AddFallback(name string, value T) {
	cbCfg := fg.cfg.CircuitBreaker
	cbCfg.Name = name
	fg.entries = append(fg.entries, fallbackEntry[T]{
		name:    name,
		value:   value,
		breaker: NewCircuitBreaker(cbCfg),
	})
}

// Len returns the number of entries.
func (fg *FallbackGroup[T]) Len() int { return len(fg.entries) }

// Breaker returns the breaker of entry i.
func (fg *FallbackGroup[T]) Breaker(i int) *CircuitBreaker { return fg.entries[i].breaker }

// Healthy reports whether at least one entry's breaker is not open.
func (fg *FallbackGroup[T]) Healthy() bool {
	for _, e := range fg.entries {
		if e.breaker.State() != StateOpen {
			return true
		}
	}
	return false
}

// Execute runs fn against each entry in turn until one succeeds.
func (fg *FallbackGroup[T]) Execute(ctx context.Context, fn func(T) error) error {
	_, err := Do(ctx, fg, func(v T) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// Do runs fn against each entry of fg in turn and returns the first
// successful result. It stops early when ctx is done. When nothing succeeds
// the returned error wraps [ErrAllFailed] and every entry's error.
func Do[T, R any](ctx context.Context, fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var (
		zero R
		errs []error
	)
	for i := range fg.entries {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		entry := &fg.entries[i]

		var result R
		err := entry.breaker.Execute(func() error {
			var innerErr error
			result, innerErr = fn(entry.value)
			return innerErr
		})
		if err == nil {
			if i > 0 {
				slog.Info("served by fallback", "entry", entry.name)
			}
			return result, nil
		}

		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("skipping entry, circuit open", "entry", entry.name)
		} else {
			slog.Warn("entry failed, trying next", "entry", entry.name, "err", err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", entry.name, err))
	}
	return zero, fmt.Errorf("%w: %w", ErrAllFailed, errors.Join(errs...))
}
