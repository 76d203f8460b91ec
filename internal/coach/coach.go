// Package coach turns an analysis result into free-form pronunciation advice
// using a chat model.
package coach

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrWong99/elocute/internal/analysis"
	"github.com/MrWong99/elocute/internal/observe"
)

// SystemPrompt frames the model as a pronunciation tutor.
const SystemPrompt = "You are a phonetics coach helping learners improve pronunciation. " +
	"Answer in a few short sentences. You may use **bold**, *italic* and `code`."

// Coach writes feedback for a successful analysis.
type Coach interface {
	Feedback(ctx context.Context, res analysis.Result) (string, error)
}

// Prompt describes res to the model: the sentence, the transcriptions when
// known, each erroneous phoneme with its mouth-shape description, and each
// flagged span of the sentence.
func Prompt(res analysis.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user pronounced the sentence %q", res.Sentence)
	if res.HeardPhonemes != "" && res.ExpectedPhonemes != "" {
		fmt.Fprintf(&b, " this way: %s with the expected way being: %s", res.HeardPhonemes, res.ExpectedPhonemes)
	}
	b.WriteString(".")

	for _, v := range analysis.Visemes(strings.Join(res.PhonemeErrors, "")) {
		fmt.Fprintf(&b, " User had a mistake with the phoneme %s which can be pronounced using the following description: %s", v.Phoneme, v.Description())
	}

	runes := []rune(res.Sentence)
	for _, c := range res.Corrections {
		if c.StartIndex < 0 || c.EndIndex > len(runes) || c.StartIndex >= c.EndIndex {
			continue
		}
		fmt.Fprintf(&b, " The part %q was flagged as %s.", string(runes[c.StartIndex:c.EndIndex]), c.Type)
		if id, ok := analysis.ParseImagePath(c.VisemeImagePath); ok {
			fmt.Fprintf(&b, " Target mouth shape: %s", analysis.VisemeDescription(id))
		}
	}
	if res.HasScore() {
		fmt.Fprintf(&b, " The overall score was %d/100.", *res.Score)
	}
	b.WriteString(" Give encouraging feedback with one concrete tip per mistake.")
	return b.String()
}

// Decorate returns an analyzer that asks c for a message whenever next
// succeeds without one. Coach failures are logged and leave the message
// empty.
func Decorate(next analysis.Analyzer, c Coach) analysis.Analyzer {
	if c == nil {
		return next
	}
	return analysis.AnalyzerFunc(func(ctx context.Context, req analysis.Request) (analysis.Result, error) {
		res, err := next.Analyze(ctx, req)
		if err != nil || !res.Success || res.Message != "" {
			return res, err
		}
		msg, cerr := c.Feedback(ctx, res)
		if cerr != nil {
			observe.Logger(ctx).Warn("coach: feedback failed", "err", cerr)
			return res, nil
		}
		res.Message = strings.TrimSpace(msg)
		return res, nil
	})
}
