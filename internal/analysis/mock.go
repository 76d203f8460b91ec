package analysis

import (
	"context"
	"strings"

	"github.com/MrWong99/elocute/internal/correction"
)

// MockMessage is the feedback message returned by [Mock].
const MockMessage = "Great job! Your pronunciation is clear and accurate."

// MockScore is the score returned by [Mock].
const MockScore = 85

// mockCorrections is the fixed correction set reported by Mock.
var mockCorrections = []correction.Correction{
	{StartIndex: 10, EndIndex: 12, Type: correction.KindSubstitution, VisemeImagePath: "visemes/viseme-id-0.jpg"},
	{StartIndex: 23, EndIndex: 24, Type: correction.KindInsertion},
}

// Mock is an offline Analyzer that returns the same corrections for every
// attempt, trimmed so they always fit the sentence.
type Mock struct {
	// ImageDir replaces the "visemes" directory of the fixed visual aid.
	ImageDir string
}

// Compile-time interface check.
var _ Analyzer = (*Mock)(nil)

// NewMock returns a Mock whose visual aids live under imageDir.
func NewMock(imageDir string) *Mock {
	return &Mock{ImageDir: imageDir}
}

// Analyze implements [Analyzer].
func (m *Mock) Analyze(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if req.Audio == "" {
		return Failure(ErrNoAudio), nil
	}
	sentence := strings.TrimSpace(req.Sentence)
	score := MockScore
	return Result{
		Success:     true,
		Sentence:    sentence,
		Score:       &score,
		Message:     MockMessage,
		Corrections: m.clip(len([]rune(sentence))),
	}, nil
}

// clip drops corrections starting past the end of a sentence of n runes and
// shortens those running over it.
func (m *Mock) clip(n int) []correction.Correction {
	var out []correction.Correction
	for _, c := range mockCorrections {
		if c.StartIndex >= n {
			continue
		}
		c.EndIndex = min(c.EndIndex, n)
		if c.VisemeImagePath != "" && m.ImageDir != "" {
			id, _ := ParseImagePath(c.VisemeImagePath)
			c.VisemeImagePath = ImagePath(m.ImageDir, id)
		}
		out = append(out, c)
	}
	return out
}
