package overlay

import "github.com/MrWong99/elocute/internal/correction"

// Hover is the visual-aid highlight toggled by pointing at an inline segment.
// It is a plain value, independent of the carousel position: entering a
// segment activates every detail element with the same visual-aid index and
// leaving clears it.
type Hover struct {
	aid    int
	active bool
}

// Enter returns the hover state for pointing at seg. Segments without a
// visual aid produce an inactive Hover.
func Enter(seg correction.Segment) Hover {
	aid, ok := seg.AidIndex()
	return Hover{aid: aid, active: ok}
}

// EnterAid is Enter for a visual-aid index received from a client.
func EnterAid(aid int) Hover {
	return Hover{aid: aid, active: aid >= 0}
}

// Exit clears the highlight.
func (Hover) Exit() Hover { return Hover{} }

// Aid returns the active visual-aid index.
func (h Hover) Aid() (int, bool) { return h.aid, h.active }

// IsActive reports whether a detail element tagged with aid should be shown
// as active.
func (h Hover) IsActive(aid int) bool { return h.active && h.aid == aid }

// Targets returns the correction indices of the entries sharing the hover's
// visual-aid index, in order.
func (h Hover) Targets(a correction.Alignment) []int {
	if !h.active {
		return nil
	}
	var out []int
	for _, e := range a.Entries {
		if r, ok := e.Ref.(correction.WithAid); ok && r.AidIndex == h.aid {
			out = append(out, r.Index)
		}
	}
	return out
}
