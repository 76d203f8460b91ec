package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MrWong99/elocute/internal/analysis"
	"github.com/MrWong99/elocute/internal/correction"
	"github.com/MrWong99/elocute/internal/overlay"
)

// Terminal draws a result for a text terminal. Colours degrade to plain text
// when the output is not a colour-capable terminal.
type Terminal struct {
	out    io.Writer
	styles termStyles
}

type termStyles struct {
	Correct lipgloss.Style
	Kinds   map[correction.Kind]lipgloss.Style
	Current lipgloss.Style
	Card    lipgloss.Style
	Label   lipgloss.Style
	Dim     lipgloss.Style
	Error   lipgloss.Style
	Score   func(score int) lipgloss.Style
}

// NewTerminal returns a Terminal writing to w.
func NewTerminal(w io.Writer) *Terminal {
	r := lipgloss.NewRenderer(w)
	return &Terminal{
		out: w,
		styles: termStyles{
			Correct: r.NewStyle(),
			Kinds: map[correction.Kind]lipgloss.Style{
				correction.KindInsertion:    r.NewStyle().Foreground(lipgloss.Color(ColorPoor)).Underline(true),
				correction.KindDeletion:     r.NewStyle().Background(lipgloss.Color(ColorFair)).Foreground(lipgloss.Color("#000000")),
				correction.KindSubstitution: r.NewStyle().Foreground(lipgloss.Color(ColorPoor)).Bold(true),
			},
			Current: r.NewStyle().Reverse(true),
			Card: r.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#1CB0F6")).
				Padding(0, 1),
			Label: r.NewStyle().Bold(true),
			Dim:   r.NewStyle().Foreground(lipgloss.Color("#6e7681")),
			Error: r.NewStyle().Foreground(lipgloss.Color(ColorPoor)).Bold(true),
			Score: func(score int) lipgloss.Style {
				return r.NewStyle().Bold(true).Foreground(lipgloss.Color(ScoreColor(score)))
			},
		},
	}
}

// Sentence renders the inline view with the highlighted segment marked.
func (t *Terminal) Sentence(a correction.Alignment, v overlay.View) string {
	var b strings.Builder
	for _, seg := range a.Segments {
		st, ok := t.styles.Kinds[seg.Kind]
		if !ok {
			st = t.styles.Correct
		}
		if v.IsHighlighted(seg) {
			st = st.Inherit(t.styles.Current)
		}
		b.WriteString(st.Render(seg.Text))
	}
	return b.String()
}

// Card renders one correction card.
func (t *Terminal) Card(c overlay.Card) string {
	lines := []string{
		t.styles.Label.Render(fmt.Sprintf("%q", c.Text)) + "  " + t.kindStyle(c.Type).Render(string(c.Type)),
	}
	if c.HasAid() {
		lines = append(lines, "aid: "+c.AidSrc)
		if id, ok := analysis.ParseImagePath(c.AidSrc); ok {
			lines = append(lines, t.styles.Dim.Render(analysis.VisemeDescription(id)))
		}
		lines = append(lines, overlay.Hint)
	}
	lines = append(lines, t.styles.Dim.Render(c.Progress()))
	return t.styles.Card.Render(strings.Join(lines, "\n"))
}

func (t *Terminal) kindStyle(k correction.Kind) lipgloss.Style {
	if st, ok := t.styles.Kinds[k]; ok {
		return st
	}
	return t.styles.Correct
}

// Score renders "N/100" in its score colour.
func (t *Terminal) Score(score int) string {
	return t.styles.Score(score).Render(fmt.Sprintf("%d/100", score))
}

// Review writes the whole result: the sentence, a card per correction by
// walking the carousel to completion, the score and the message.
func (t *Terminal) Review(res analysis.Result) error {
	if !res.Success {
		_, err := fmt.Fprintln(t.out, t.styles.Error.Render("analysis failed: "+res.Error))
		return err
	}

	a, err := correction.Align(res.Sentence, res.Corrections)
	if err != nil {
		return fmt.Errorf("render: align: %w", err)
	}
	sync := overlay.New(a)

	var b strings.Builder
	b.WriteString(t.Sentence(a, overlay.View{Highlighted: -1}))
	b.WriteString("\n")
	for {
		v := sync.View()
		if v.Card == nil {
			break
		}
		b.WriteString(t.Card(*v.Card))
		b.WriteString("\n")
		sync.Next()
	}
	if sync.Phase() == overlay.PhaseInert {
		b.WriteString(t.styles.Label.Render("Perfect! No corrections."))
		b.WriteString("\n")
	}
	if res.Score != nil {
		b.WriteString("Your Score: " + t.Score(*res.Score) + "\n")
	}
	if res.Message != "" {
		b.WriteString(res.Message + "\n")
	}
	_, err = io.WriteString(t.out, b.String())
	return err
}
