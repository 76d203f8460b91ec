// Package history records every analysed attempt so learners can track their
// progress. Records are stored either as JSON lines in a local file
// ([FileStore]) or in PostgreSQL (package postgres).
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/elocute/internal/analysis"
)

// DefaultLimit is the number of records Recent returns when asked for a
// non-positive limit.
const DefaultLimit = 20

// Record is one analysed attempt.
type Record struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Sentence    string    `json:"sentence"`
	Success     bool      `json:"success"`
	Score       *int      `json:"score,omitempty"`
	Corrections int       `json:"corrections"`
	Recording   string    `json:"recording,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// NewRecord summarises res. recording is the stored audio file name, if any.
func NewRecord(sentence string, res analysis.Result, recording string) Record {
	if res.Sentence != "" {
		sentence = res.Sentence
	}
	return Record{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Sentence:    sentence,
		Success:     res.Success,
		Score:       res.Score,
		Corrections: len(res.Corrections),
		Recording:   recording,
		Error:       res.Error,
	}
}

// Store persists attempt records. Implementations are safe for concurrent
// use.
type Store interface {
	// Append adds a record.
	Append(ctx context.Context, r Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// Ping reports whether the store is usable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
