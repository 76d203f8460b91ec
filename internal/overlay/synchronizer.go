// Package overlay drives the paged correction view shown after an analysis.
//
// A [Synchronizer] walks the aligned corrections one card at a time, keeps the
// matching inline segment highlighted, and ends in a one-way completion phase
// once the user steps past the last correction. [Hover] models the separate,
// stateless visual-aid highlight.
package overlay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrWong99/elocute/internal/correction"
)

// Button labels and card copy.
const (
	LabelPrevious = "Prev"
	LabelNext     = "Next"
	LabelFinish   = "Continue"
	Hint          = "Try positioning your mouth like this"
)

// DefaultPlaceholder is shown in place of a visual aid that fails to load.
const DefaultPlaceholder = "data:image/svg+xml,%3Csvg xmlns=%22http://www.w3.org/2000/svg%22 width=%22180%22 height=%22180%22%3E%3Crect fill=%23ccc width=%22180%22 height=%22180%22/%3E%3Ctext x=%2250%25%22 y=%2250%25%22 text-anchor=%22middle%22 dy=%22.3em%22 fill=%23666%3EImage not found%3C/text%3E%3C/svg%3E"

var (
	// ErrOutOfRange is returned by Jump for an index outside the
	// correction sequence.
	ErrOutOfRange = errors.New("overlay: correction index out of range")

	// ErrCompleted is returned by Jump once the review has finished.
	ErrCompleted = errors.New("overlay: review already completed")
)

// Phase is the lifecycle stage of a [Synchronizer].
type Phase int

const (
	// PhaseInert means there are no corrections; nothing is rendered.
	PhaseInert Phase = iota
	// PhaseReviewing means a correction card is shown.
	PhaseReviewing
	// PhaseComplete is terminal: navigation is hidden and focus moves to
	// the feedback message.
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseInert:
		return "inert"
	case PhaseReviewing:
		return "reviewing"
	case PhaseComplete:
		return "complete"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Transition reports what a navigation call did.
type Transition int

const (
	NoOp Transition = iota
	Moved
	Completed
)

func (t Transition) String() string {
	switch t {
	case NoOp:
		return "noop"
	case Moved:
		return "moved"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("Transition(%d)", int(t))
}

// Option configures a [Synchronizer].
type Option func(*Synchronizer)

// WithPlaceholder overrides [DefaultPlaceholder].
func WithPlaceholder(src string) Option {
	return func(s *Synchronizer) {
		if src != "" {
			s.placeholder = src
		}
	}
}

// Synchronizer holds the current correction index of one analysis result.
// It is not safe for concurrent use; the owning practice session serialises
// access.
type Synchronizer struct {
	alignment   correction.Alignment
	current     int
	phase       Phase
	placeholder string
}

// New starts a Synchronizer at the first correction, or inert when the
// alignment has none.
func New(a correction.Alignment, opts ...Option) *Synchronizer {
	s := &Synchronizer{alignment: a, placeholder: DefaultPlaceholder}
	for _, o := range opts {
		o(s)
	}
	if a.Len() > 0 {
		s.phase = PhaseReviewing
	}
	return s
}

// Alignment returns the alignment the Synchronizer was built from.
func (s *Synchronizer) Alignment() correction.Alignment { return s.alignment }

// Phase returns the current lifecycle stage.
func (s *Synchronizer) Phase() Phase { return s.phase }

// Count returns the number of corrections.
func (s *Synchronizer) Count() int { return s.alignment.Len() }

// Current returns the current correction index. ok is false unless a card is
// being shown.
func (s *Synchronizer) Current() (index int, ok bool) {
	if s.phase != PhaseReviewing {
		return 0, false
	}
	return s.current, true
}

// Next advances to the following correction. On the last correction it
// completes the review instead. It is a no-op outside the reviewing phase.
func (s *Synchronizer) Next() Transition {
	if s.phase != PhaseReviewing {
		return NoOp
	}
	if s.current < s.Count()-1 {
		s.current++
		return Moved
	}
	s.phase = PhaseComplete
	return Completed
}

// Previous steps back one correction. It is a no-op at index 0 and outside
// the reviewing phase.
func (s *Synchronizer) Previous() Transition {
	if s.phase != PhaseReviewing || s.current == 0 {
		return NoOp
	}
	s.current--
	return Moved
}

// Jump moves directly to correction i.
func (s *Synchronizer) Jump(i int) (Transition, error) {
	switch {
	case s.phase == PhaseComplete:
		return NoOp, ErrCompleted
	case i < 0 || i >= s.Count():
		return NoOp, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, s.Count())
	case i == s.current:
		return NoOp, nil
	}
	s.current = i
	return Moved, nil
}

// View describes what the rendering collaborator should show.
type View struct {
	Phase Phase

	// Card is nil unless Phase is PhaseReviewing.
	Card *Card

	// Highlighted is the correction index of the single highlighted inline
	// segment, or -1 for none.
	Highlighted int

	ShowNavigation bool
	PrevEnabled    bool
	ForwardLabel   string

	// FocusMessage is set once the review completes.
	FocusMessage bool
}

// IsHighlighted reports whether seg is the highlighted inline segment.
func (v View) IsHighlighted(seg correction.Segment) bool {
	i, ok := seg.CorrectionIndex()
	return ok && i == v.Highlighted
}

// Card is the detail view of a single correction.
type Card struct {
	Index int
	Count int
	Text  string
	Type  correction.Kind

	// AidSrc is the visual aid location with forward slashes, or empty
	// when the correction has none.
	AidSrc string

	// AidIndex is valid when AidSrc is set.
	AidIndex int

	// Placeholder replaces AidSrc if it fails to load.
	Placeholder string
}

// HasAid reports whether the card shows a visual aid.
func (c Card) HasAid() bool { return c.AidSrc != "" }

// Progress returns the "Correction X of N" caption.
func (c Card) Progress() string {
	return fmt.Sprintf("Correction %d of %d", c.Index+1, c.Count)
}

// View renders the current state.
func (s *Synchronizer) View() View {
	v := View{Phase: s.phase, Highlighted: -1}
	switch s.phase {
	case PhaseComplete:
		v.FocusMessage = true
		return v
	case PhaseInert:
		return v
	}

	e := s.alignment.Entries[s.current]
	card := &Card{
		Index:       s.current,
		Count:       s.Count(),
		Text:        e.Text,
		Type:        e.Type,
		Placeholder: s.placeholder,
	}
	if r, ok := e.Ref.(correction.WithAid); ok {
		card.AidSrc = NormalizeAidPath(e.VisemeImagePath)
		card.AidIndex = r.AidIndex
	}

	v.Card = card
	v.Highlighted = s.current
	v.ShowNavigation = true
	v.PrevEnabled = s.current > 0
	v.ForwardLabel = LabelNext
	if s.current == s.Count()-1 {
		v.ForwardLabel = LabelFinish
	}
	return v
}

// NormalizeAidPath rewrites Windows path separators so the reference can be
// used as a URL path.
func NormalizeAidPath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
