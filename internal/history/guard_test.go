package history_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/elocute/internal/history"
)

// fakeStore is a Store whose operations fail while err is set.
type fakeStore struct {
	err     error
	pingErr error
	appends int
	closed  bool
}

func (f *fakeStore) Append(context.Context, history.Record) error {
	f.appends++
	return f.err
}

func (f *fakeStore) Recent(context.Context, int) ([]history.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []history.Record{{ID: "a"}}, nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func TestGuard_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		store := &fakeStore{}
		g := history.NewGuard(store)
		if err := g.Append(ctx, history.Record{ID: "1"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if g.IsDegraded() || store.appends != 1 {
			t.Errorf("degraded = %v, appends = %d", g.IsDegraded(), store.appends)
		}
	})

	t.Run("failure is swallowed and recovers", func(t *testing.T) {
		store := &fakeStore{err: errors.New("disk full")}
		g := history.NewGuard(store)
		if err := g.Append(ctx, history.Record{ID: "1"}); err != nil {
			t.Fatalf("Append: %v, want swallowed", err)
		}
		if !g.IsDegraded() {
			t.Error("should be degraded after a failed append")
		}
		if err := g.Ping(ctx); !errors.Is(err, history.ErrDegraded) {
			t.Errorf("Ping = %v, want ErrDegraded", err)
		}

		store.err = nil
		_ = g.Append(ctx, history.Record{ID: "2"})
		if g.IsDegraded() {
			t.Error("should recover after a successful append")
		}
		if err := g.Ping(ctx); err != nil {
			t.Errorf("Ping = %v, want nil", err)
		}
	})
}

func TestGuard_Recent(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{err: errors.New("connection reset")}
	g := history.NewGuard(store)

	recs, err := g.Recent(ctx, 5)
	if err != nil || recs == nil || len(recs) != 0 {
		t.Errorf("Recent = %v, %v; want empty slice, nil", recs, err)
	}
	if !g.IsDegraded() {
		t.Error("should be degraded")
	}

	store.err = nil
	recs, _ = g.Recent(ctx, 5)
	if len(recs) != 1 || g.IsDegraded() {
		t.Errorf("Recent = %v, degraded = %v", recs, g.IsDegraded())
	}
}

func TestGuard_PingAndClose(t *testing.T) {
	down := errors.New("no route")
	store := &fakeStore{pingErr: down}
	g := history.NewGuard(store)
	if err := g.Ping(context.Background()); !errors.Is(err, down) {
		t.Errorf("Ping = %v, want %v", err, down)
	}
	if err := g.Close(); err != nil || !store.closed {
		t.Errorf("Close = %v, closed = %v", err, store.closed)
	}
}
