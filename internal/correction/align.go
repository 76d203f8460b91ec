package correction

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// Align partitions sentence into segments around the given corrections.
//
// Corrections may arrive in any order. They are sorted by StartIndex, then
// EndIndex, keeping input order for full ties. Gaps before, between and after
// corrections become [KindCorrect] segments. With no corrections the whole
// sentence is one correct segment (an empty sentence yields no segments).
//
// Any correction outside [0, len(sentence runes)], with StartIndex >=
// EndIndex, or overlapping another correction makes Align fail with an error
// wrapping [ErrInvalidRange]; an unrecognised type wraps [ErrUnknownType].
// No partial alignment is returned.
func Align(sentence string, corrections []Correction) (Alignment, error) {
	runes := []rune(sentence)

	sorted := slices.Clone(corrections)
	slices.SortStableFunc(sorted, func(a, b Correction) int {
		return cmp.Or(cmp.Compare(a.StartIndex, b.StartIndex), cmp.Compare(a.EndIndex, b.EndIndex))
	})
	if err := validate(sorted, len(runes)); err != nil {
		return Alignment{}, err
	}

	out := Alignment{
		Sentence: sentence,
		Segments: make([]Segment, 0, 2*len(sorted)+1),
		Entries:  make([]Entry, 0, len(sorted)),
	}
	appendCorrect := func(start, end int) {
		if start < end {
			out.Segments = append(out.Segments, Segment{
				Text:  string(runes[start:end]),
				Kind:  KindCorrect,
				Start: start,
				End:   end,
			})
		}
	}

	cursor, aids := 0, 0
	for i, c := range sorted {
		appendCorrect(cursor, c.StartIndex)

		var ref Ref = WithoutAid{Index: i}
		if c.HasAid() {
			ref = WithAid{Index: i, AidIndex: aids}
			aids++
		}
		text := string(runes[c.StartIndex:c.EndIndex])
		out.Segments = append(out.Segments, Segment{
			Text:  text,
			Kind:  c.Type,
			Start: c.StartIndex,
			End:   c.EndIndex,
			Ref:   ref,
		})
		out.Entries = append(out.Entries, Entry{Correction: c, Ref: ref, Text: text})
		cursor = c.EndIndex
	}
	appendCorrect(cursor, len(runes))
	return out, nil
}

// validate checks sorted corrections against a sentence of n runes and
// reports every problem found.
func validate(sorted []Correction, n int) error {
	var errs []error
	prevEnd := 0
	for i, c := range sorted {
		if !c.Type.IsError() {
			errs = append(errs, fmt.Errorf("%w %q at [%d,%d)", ErrUnknownType, c.Type, c.StartIndex, c.EndIndex))
		}
		switch {
		case c.StartIndex < 0 || c.EndIndex > n:
			errs = append(errs, fmt.Errorf("%w: [%d,%d) outside sentence of length %d", ErrInvalidRange, c.StartIndex, c.EndIndex, n))
		case c.StartIndex >= c.EndIndex:
			errs = append(errs, fmt.Errorf("%w: [%d,%d) is empty", ErrInvalidRange, c.StartIndex, c.EndIndex))
		case i > 0 && c.StartIndex < prevEnd:
			errs = append(errs, fmt.Errorf("%w: [%d,%d) overlaps previous correction ending at %d", ErrInvalidRange, c.StartIndex, c.EndIndex, prevEnd))
		}
		prevEnd = max(prevEnd, c.EndIndex)
	}
	return errors.Join(errs...)
}
