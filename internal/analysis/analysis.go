// Package analysis defines the contract with the external pronunciation
// analyzer and ships two implementations: a fixed-result [Mock] for local
// practice and an [HTTP] client for a remote analyzer service.
package analysis

import (
	"context"
	"errors"

	"github.com/MrWong99/elocute/internal/correction"
)

// ErrNoAudio is returned when a request carries no audio payload.
var ErrNoAudio = errors.New("analysis: no audio data provided")

// Request is a recorded attempt at a sentence. Audio is base64, optionally
// prefixed with a data URL header.
type Request struct {
	Audio    string `json:"audio"`
	Sentence string `json:"sentence"`
}

// Result is the analyzer's verdict. When Success is false only Error is
// meaningful and no alignment is performed.
type Result struct {
	Success     bool                    `json:"success"`
	Sentence    string                  `json:"sentence,omitempty"`
	Score       *int                    `json:"score,omitempty"`
	Message     string                  `json:"message,omitempty"`
	Corrections []correction.Correction `json:"corrections,omitempty"`
	Error       string                  `json:"error,omitempty"`

	// ExpectedPhonemes and HeardPhonemes are the IPA transcriptions of the
	// target and of the attempt, when the analyzer provides them.
	ExpectedPhonemes string `json:"expected_phonemes,omitempty"`
	HeardPhonemes    string `json:"user_phonemes,omitempty"`

	// PhonemeErrors lists the IPA fragments the user got wrong.
	PhonemeErrors []string `json:"phoneme_errors,omitempty"`
}

// Failure builds an unsuccessful Result carrying err's message.
func Failure(err error) Result {
	return Result{Success: false, Error: err.Error()}
}

// HasScore reports whether the Result includes a score.
func (r Result) HasScore() bool { return r.Score != nil }

// Analyzer scores a recorded attempt.
//
// Implementations must be safe for concurrent use. A returned error means the
// analyzer could not be reached or answered garbage; an analyzer that ran but
// rejected the attempt reports it through Result.Success instead.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (Result, error)
}

// AnalyzerFunc adapts a function to [Analyzer].
type AnalyzerFunc func(ctx context.Context, req Request) (Result, error)

// Analyze calls f.
func (f AnalyzerFunc) Analyze(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
