// Package render turns an analysis result and its correction overlay into
// the markup the practice page swaps in, and into a terminal view for the
// review command.
package render

import (
	"github.com/MrWong99/elocute/internal/analysis"
	"github.com/MrWong99/elocute/internal/correction"
	"github.com/MrWong99/elocute/internal/overlay"
)

// Score colours.
const (
	ColorGood = "#58CC02"
	ColorFair = "#FFC800"
	ColorPoor = "#FF4B4B"
)

// ScoreColor returns the colour a score is displayed in.
func ScoreColor(score int) string {
	switch {
	case score >= 90:
		return ColorGood
	case score >= 70:
		return ColorFair
	}
	return ColorPoor
}

// SegmentClass returns the CSS class of an inline segment.
func SegmentClass(k correction.Kind) string {
	if k == correction.KindCorrect {
		return "correct-text"
	}
	return "error-" + string(k)
}

// SegmentTitle returns the tooltip of an error segment.
func SegmentTitle(k correction.Kind) string {
	switch k {
	case correction.KindInsertion:
		return "Remove this sound"
	case correction.KindDeletion:
		return "This sound is missing or incorrect"
	case correction.KindSubstitution:
		return "Incorrect pronunciation"
	}
	return ""
}

// Feedback is everything needed to draw the result panel.
type Feedback struct {
	Result analysis.Result

	// Overlay is nil when the result failed or could not be aligned.
	Overlay *overlay.Synchronizer

	// Hover is the current visual-aid highlight.
	Hover overlay.Hover
}

// Perfect reports whether the result has nothing to correct.
func (f Feedback) Perfect() bool {
	return f.Result.Success && (f.Overlay == nil || f.Overlay.Count() == 0)
}

// segmentView is one inline span with its cross-reference attributes.
type segmentView struct {
	Text            string
	Class           string
	Title           string
	CorrectionIndex int
	HasCorrection   bool
	AidIndex        int
	HasAid          bool
	Current         bool
	Active          bool
}

func segments(a correction.Alignment, v overlay.View, h overlay.Hover) []segmentView {
	out := make([]segmentView, 0, len(a.Segments))
	for _, s := range a.Segments {
		sv := segmentView{
			Text:  s.Text,
			Class: SegmentClass(s.Kind),
			Title: SegmentTitle(s.Kind),
		}
		sv.CorrectionIndex, sv.HasCorrection = s.CorrectionIndex()
		sv.AidIndex, sv.HasAid = s.AidIndex()
		sv.Current = v.IsHighlighted(s)
		sv.Active = sv.HasAid && h.IsActive(sv.AidIndex)
		out = append(out, sv)
	}
	return out
}
