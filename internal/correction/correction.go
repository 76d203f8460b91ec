// Package correction aligns an analyzer's character-range corrections with
// the reference sentence they were computed against.
//
// [Align] sorts the corrections by position and partitions the sentence into
// an ordered list of [Segment] values that covers every character exactly
// once. Each correction gets a stable correction index (its position in
// sorted order). Corrections that carry a visual aid additionally get a
// visual-aid index, counted only over corrections with an aid. The two
// numbering spaces are kept apart at the type level by [Ref].
package correction

import "errors"

// Kind classifies a segment of the reference sentence.
type Kind string

const (
	KindCorrect      Kind = "correct"
	KindInsertion    Kind = "insertion"
	KindDeletion     Kind = "deletion"
	KindSubstitution Kind = "substitution"
)

// IsError reports whether k is one of the three error kinds an analyzer may
// emit.
func (k Kind) IsError() bool {
	switch k {
	case KindInsertion, KindDeletion, KindSubstitution:
		return true
	}
	return false
}

var (
	// ErrInvalidRange is returned when a correction lies outside the
	// sentence, is empty or reversed, or overlaps another correction.
	ErrInvalidRange = errors.New("correction: invalid range")

	// ErrUnknownType is returned for a correction whose type is not an
	// error kind.
	ErrUnknownType = errors.New("correction: unknown type")
)

// Correction is one edit reported by the analyzer. Indices count runes of
// the reference sentence; EndIndex is exclusive.
type Correction struct {
	StartIndex int  `json:"start_index"`
	EndIndex   int  `json:"end_index"`
	Type       Kind `json:"type"`

	// VisemeImagePath is the visual aid reference. Empty means the
	// correction has no aid.
	VisemeImagePath string `json:"viseme_img_path,omitempty"`
}

// HasAid reports whether the correction carries a visual aid.
func (c Correction) HasAid() bool { return c.VisemeImagePath != "" }

// Ref identifies an aligned correction. It is either [WithAid] or
// [WithoutAid]; no other implementations exist.
type Ref interface {
	// CorrectionIndex is the position of the correction in sorted order.
	CorrectionIndex() int
	isRef()
}

// WithAid references a correction that has a visual aid. AidIndex counts
// only corrections with an aid.
type WithAid struct {
	Index    int
	AidIndex int
}

// WithoutAid references a correction without a visual aid.
type WithoutAid struct {
	Index int
}

func (r WithAid) CorrectionIndex() int    { return r.Index }
func (r WithoutAid) CorrectionIndex() int { return r.Index }

func (WithAid) isRef()    {}
func (WithoutAid) isRef() {}

// Segment is a contiguous slice of the reference sentence.
type Segment struct {
	Text string
	Kind Kind

	// Start and End are rune offsets into the sentence, End exclusive.
	Start int
	End   int

	// Ref is nil for correct segments.
	Ref Ref
}

// CorrectionIndex returns the correction index of an error segment.
func (s Segment) CorrectionIndex() (int, bool) {
	if s.Ref == nil {
		return 0, false
	}
	return s.Ref.CorrectionIndex(), true
}

// AidIndex returns the visual-aid index when the segment's correction has
// an aid.
func (s Segment) AidIndex() (int, bool) {
	if r, ok := s.Ref.(WithAid); ok {
		return r.AidIndex, true
	}
	return 0, false
}

// Entry is a correction in sorted order together with its reference and
// the text it covers.
type Entry struct {
	Correction
	Ref  Ref
	Text string
}

// Alignment is the result of [Align].
type Alignment struct {
	Sentence string

	// Segments covers Sentence exactly, in order.
	Segments []Segment

	// Entries holds the corrections in sorted order; Entries[i] has
	// correction index i.
	Entries []Entry
}

// Len returns the number of corrections.
func (a Alignment) Len() int { return len(a.Entries) }

// AidCount returns the number of corrections carrying a visual aid.
func (a Alignment) AidCount() int {
	n := 0
	for _, e := range a.Entries {
		if _, ok := e.Ref.(WithAid); ok {
			n++
		}
	}
	return n
}

// Text concatenates every segment. For a valid alignment it equals the
// sentence.
func (a Alignment) Text() string {
	n := 0
	for _, s := range a.Segments {
		n += len(s.Text)
	}
	b := make([]byte, 0, n)
	for _, s := range a.Segments {
		b = append(b, s.Text...)
	}
	return string(b)
}
