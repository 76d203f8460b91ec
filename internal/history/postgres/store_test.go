package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/MrWong99/elocute/internal/history"
	"github.com/MrWong99/elocute/internal/history/postgres"
)

// testDSN skips the test unless ELOCUTE_TEST_POSTGRES_DSN is set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("ELOCUTE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ELOCUTE_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration tests")
	}
	return dsn
}

func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	ctx := context.Background()
	s, err := postgres.NewStore(ctx, testDSN(t))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_AppendRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	score := 91
	base := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	first := history.Record{ID: "6f1d2c1e-0000-4000-8000-000000000001", Timestamp: base, Sentence: "first", Success: true, Score: &score, Corrections: 1}
	second := history.Record{ID: "6f1d2c1e-0000-4000-8000-000000000002", Timestamp: base.Add(time.Second), Sentence: "second", Error: "too short"}
	for _, r := range []history.Record{first, second} {
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Sentence != "second" || got[1].Sentence != "first" {
		t.Errorf("order = %q, %q; want newest first", got[0].Sentence, got[1].Sentence)
	}
	if got[0].Score != nil || got[1].Score == nil || *got[1].Score != 91 {
		t.Errorf("scores not round-tripped: %+v", got)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
