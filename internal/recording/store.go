// Package recording persists submitted audio clips to disk.
package recording

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/MrWong99/elocute/internal/analysis"
)

// maxNameRunes bounds the sentence part of a recording file name.
const maxNameRunes = 30

// Saved describes a stored recording.
type Saved struct {
	Filename string `json:"filename"`
	Path     string `json:"filepath"`
	Bytes    int    `json:"bytes"`
}

// Store writes recordings into a directory.
type Store struct {
	dir string
	now func() time.Time
}

// Option configures a [Store].
type Option func(*Store)

// WithClock replaces time.Now for file naming.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates dir if needed and returns a Store writing into it.
func NewStore(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("recording: directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("recording: create dir: %w", err)
	}
	s := &Store{dir: dir, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Dir returns the directory recordings are written to.
func (s *Store) Dir() string { return s.dir }

// Save decodes base64 audio, optionally prefixed with a data URL header, and
// writes it as YYYYmmdd_HHMMSS_<sentence>.wav. Empty audio returns
// [analysis.ErrNoAudio].
func (s *Store) Save(audio, sentence string) (Saved, error) {
	data, err := Decode(audio)
	if err != nil {
		return Saved{}, err
	}

	name := fmt.Sprintf("%s_%s.wav", s.now().Format("20060102_150405"), SafeName(sentence))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Saved{}, fmt.Errorf("recording: write %s: %w", name, err)
	}
	return Saved{Filename: name, Path: path, Bytes: len(data)}, nil
}

// Decode strips an optional data URL header from audio and decodes the
// base64 payload.
func Decode(audio string) ([]byte, error) {
	if _, payload, ok := strings.Cut(audio, ","); ok {
		audio = payload
	}
	if audio == "" {
		return nil, analysis.ErrNoAudio
	}
	data, err := base64.StdEncoding.DecodeString(audio)
	if err != nil {
		return nil, fmt.Errorf("recording: decode audio: %w", err)
	}
	if len(data) == 0 {
		return nil, analysis.ErrNoAudio
	}
	return data, nil
}

// SafeName keeps letters, digits, spaces, dashes and underscores of sentence,
// trims surrounding space and cuts the result to 30 runes.
func SafeName(sentence string) string {
	kept := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			return r
		}
		return -1
	}, sentence)
	runes := []rune(strings.TrimSpace(kept))
	if len(runes) > maxNameRunes {
		runes = runes[:maxNameRunes]
	}
	return string(runes)
}
