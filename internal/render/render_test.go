package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MrWong99/elocute/internal/analysis"
	"github.com/MrWong99/elocute/internal/correction"
	"github.com/MrWong99/elocute/internal/overlay"
)

func intp(v int) *int { return &v }

func catResult() analysis.Result {
	return analysis.Result{
		Success:  true,
		Sentence: "the cat sat",
		Score:    intp(72),
		Message:  "Nice **effort**.",
		Corrections: []correction.Correction{
			{StartIndex: 4, EndIndex: 7, Type: correction.KindSubstitution, VisemeImagePath: `visemes\viseme-id-4.jpg`},
			{StartIndex: 8, EndIndex: 9, Type: correction.KindInsertion},
		},
	}
}

func newFeedback(t *testing.T, res analysis.Result) Feedback {
	t.Helper()
	a, err := correction.Align(res.Sentence, res.Corrections)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	return Feedback{Result: res, Overlay: overlay.New(a)}
}

func renderHTML(t *testing.T, f Feedback) string {
	t.Helper()
	h, err := NewHTML()
	if err != nil {
		t.Fatalf("NewHTML: %v", err)
	}
	var buf bytes.Buffer
	if err := h.Feedback(&buf, f); err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	return buf.String()
}

func TestScoreColor(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, ColorGood},
		{90, ColorGood},
		{89, ColorFair},
		{70, ColorFair},
		{69, ColorPoor},
		{0, ColorPoor},
	}
	for _, tt := range tests {
		if got := ScoreColor(tt.score); got != tt.want {
			t.Errorf("ScoreColor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestSegmentClassAndTitle(t *testing.T) {
	tests := []struct {
		kind  correction.Kind
		class string
		title string
	}{
		{correction.KindCorrect, "correct-text", ""},
		{correction.KindInsertion, "error-insertion", "Remove this sound"},
		{correction.KindDeletion, "error-deletion", "This sound is missing or incorrect"},
		{correction.KindSubstitution, "error-substitution", "Incorrect pronunciation"},
	}
	for _, tt := range tests {
		if got := SegmentClass(tt.kind); got != tt.class {
			t.Errorf("SegmentClass(%s) = %q, want %q", tt.kind, got, tt.class)
		}
		if got := SegmentTitle(tt.kind); got != tt.title {
			t.Errorf("SegmentTitle(%s) = %q, want %q", tt.kind, got, tt.title)
		}
	}
}

func TestHTML_Corrections(t *testing.T) {
	out := renderHTML(t, newFeedback(t, catResult()))

	for _, want := range []string{
		`<span class="correct-text">the </span>`,
		`<span class="error-substitution current-error" data-correction-index="0" data-viseme-index="0" title="Incorrect pronunciation">cat</span>`,
		`<span class="error-insertion" data-correction-index="1" title="Remove this sound">s</span>`,
		`src="visemes/viseme-id-4.jpg"`,
		`Correction 1 of 2`,
		overlay.Hint,
		`72/100`,
		`color: #FFC800`,
		`width: 72%`,
		`<strong>effort</strong>`,
		`id="prevErrorBtn" data-action="prev" disabled`,
		`>Next</button>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Count(out, "current-error") != 1 {
		t.Errorf("want exactly one current-error span:\n%s", out)
	}
}

func TestHTML_LastCardAndCompletion(t *testing.T) {
	f := newFeedback(t, catResult())
	f.Overlay.Next()

	out := renderHTML(t, f)
	if !strings.Contains(out, ">Continue</button>") {
		t.Errorf("last card should show finish label:\n%s", out)
	}
	if !strings.Contains(out, `class="error-insertion current-error" data-correction-index="1"`) {
		t.Errorf("second segment should be highlighted:\n%s", out)
	}

	f.Overlay.Next()
	out = renderHTML(t, f)
	for _, gone := range []string{"errorCarousel", "current-error", "<button"} {
		if strings.Contains(out, gone) {
			t.Errorf("completed view still contains %q:\n%s", gone, out)
		}
	}
	if !strings.Contains(out, `data-focus="true"`) {
		t.Errorf("completed view should focus the message:\n%s", out)
	}
}

func TestHTML_HoverMarksSegmentAndCard(t *testing.T) {
	f := newFeedback(t, catResult())
	f.Hover = overlay.EnterAid(0)

	out := renderHTML(t, f)
	if !strings.Contains(out, `error-substitution current-error active"`) {
		t.Errorf("hovered segment not active:\n%s", out)
	}
	if !strings.Contains(out, `<div class="viseme-card active"`) {
		t.Errorf("card sharing the aid not active:\n%s", out)
	}
}

func TestHTML_Perfect(t *testing.T) {
	res := analysis.Result{Success: true, Sentence: "hello", Score: intp(95), Message: "Great job!"}
	out := renderHTML(t, newFeedback(t, res))

	if !strings.Contains(out, "perfect-message") {
		t.Errorf("missing perfect path:\n%s", out)
	}
	if !strings.Contains(out, "color: #58CC02") {
		t.Errorf("missing green score:\n%s", out)
	}
	if strings.Contains(out, "data-correction-index") {
		t.Errorf("perfect path should render no overlay:\n%s", out)
	}
}

func TestHTML_Failure(t *testing.T) {
	res := analysis.Result{Success: false, Error: "No audio <data>", Corrections: catResult().Corrections}
	out := renderHTML(t, Feedback{Result: res})

	if !strings.Contains(out, "No audio &lt;data&gt;") {
		t.Errorf("error not surfaced escaped:\n%s", out)
	}
	if strings.Contains(out, "data-correction-index") || strings.Contains(out, "score-container") {
		t.Errorf("failure must not render an overlay:\n%s", out)
	}
}

func TestHTML_EscapesSentence(t *testing.T) {
	res := analysis.Result{
		Success:     true,
		Sentence:    "<b>x</b>",
		Corrections: []correction.Correction{{StartIndex: 0, EndIndex: 3, Type: correction.KindDeletion}},
	}
	out := renderHTML(t, newFeedback(t, res))
	if strings.Contains(out, "<b>") {
		t.Errorf("sentence not escaped:\n%s", out)
	}
}

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
		not  []string
	}{
		{name: "empty", in: ""},
		{name: "emphasis", in: "**bold** and *it* and `code`", want: []string{"<strong>bold</strong>", "<em>it</em>", "<code>code</code>"}},
		{name: "link", in: "[guide](https://example.com)", want: []string{`<a href="https://example.com">guide</a>`}},
		{name: "paragraphs", in: "one\n\ntwo", want: []string{"<p>one</p>", "<p>two</p>"}},
		{name: "line break", in: "one\ntwo", want: []string{"one<br"}},
		{name: "raw html dropped", in: "<script>alert(1)</script>", not: []string{"<script>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Markdown(tt.in)
			if err != nil {
				t.Fatalf("Markdown: %v", err)
			}
			if tt.in == "" && got != "" {
				t.Errorf("Markdown(\"\") = %q", got)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(got), w) {
					t.Errorf("output %q missing %q", got, w)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(string(got), n) {
					t.Errorf("output %q contains %q", got, n)
				}
			}
		})
	}
}
