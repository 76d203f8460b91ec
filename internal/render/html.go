package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/MrWong99/elocute/internal/overlay"
)

//go:embed templates/*.html
var templateFS embed.FS

// HTML renders the feedback fragment.
type HTML struct {
	tmpl *template.Template
}

// NewHTML parses the embedded templates.
func NewHTML() (*HTML, error) {
	t, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &HTML{tmpl: t}, nil
}

type scoreView struct {
	Value int
	Color string
}

type fragment struct {
	Failed   bool
	Error    string
	Perfect  bool
	Segments []segmentView
	Score    *scoreView
	View     overlay.View
	Card     *overlay.Card
	Active   bool
	Hint     string
	Prev     string
	Message  template.HTML
}

// Feedback writes the result panel for f to w.
func (h *HTML) Feedback(w io.Writer, f Feedback) error {
	frag := fragment{Hint: overlay.Hint, Prev: overlay.LabelPrevious}

	if !f.Result.Success {
		frag.Failed = true
		frag.Error = f.Result.Error
		if frag.Error == "" {
			frag.Error = "Failed to analyze audio"
		}
		return h.execute(w, frag)
	}

	msg, err := Markdown(f.Result.Message)
	if err != nil {
		return fmt.Errorf("render: message: %w", err)
	}
	frag.Message = msg
	frag.Perfect = f.Perfect()
	if f.Result.Score != nil {
		frag.Score = &scoreView{Value: *f.Result.Score, Color: ScoreColor(*f.Result.Score)}
	}
	if f.Overlay != nil {
		frag.View = f.Overlay.View()
		frag.Card = frag.View.Card
		frag.Segments = segments(f.Overlay.Alignment(), frag.View, f.Hover)
		if frag.Card != nil && frag.Card.HasAid() {
			frag.Active = f.Hover.IsActive(frag.Card.AidIndex)
		}
	}
	return h.execute(w, frag)
}

func (h *HTML) execute(w io.Writer, frag fragment) error {
	if err := h.tmpl.ExecuteTemplate(w, "feedback", frag); err != nil {
		return fmt.Errorf("render: execute: %w", err)
	}
	return nil
}
