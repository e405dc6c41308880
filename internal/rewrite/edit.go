package rewrite

import (
	"fmt"
	"sort"

	"decoport/internal/source"
)

// TextEdit replaces the text of a span. A zero-length span is an
// insertion. OldText, when set, is verified against the current content
// before the edit is applied.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// Plan is an ordered set of non-overlapping edits against one unit.
type Plan struct {
	Path  string
	Edits []TextEdit

	// Bindings lists the hoisted names allocated by the planner, in
	// insertion order; used by dry-run reporting.
	Bindings []Binding
}

// Binding records one hoisted decorator expression.
type Binding struct {
	Name    string
	Expr    string
	DefName string
	Line    uint32 // 1-based line of the original decorator expression
}

// Empty reports whether the plan changes nothing.
func (p *Plan) Empty() bool {
	return p == nil || len(p.Edits) == 0
}

// EmitError reports a plan whose edits are invalid against the current
// text. It is an internal invariant violation surfaced as a job failure.
type EmitError struct {
	Path   string
	Detail string
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("%s: cannot apply rewrite: %s", e.Path, e.Detail)
}

// normalize sorts edits by ascending span and verifies that no two
// overlap.
func (p *Plan) normalize() error {
	sort.SliceStable(p.Edits, func(i, j int) bool {
		if p.Edits[i].Span.Start == p.Edits[j].Span.Start {
			return p.Edits[i].Span.End < p.Edits[j].Span.End
		}
		return p.Edits[i].Span.Start < p.Edits[j].Span.Start
	})
	for i := 1; i < len(p.Edits); i++ {
		if p.Edits[i-1].Span.Overlaps(p.Edits[i].Span) {
			return &EmitError{Path: p.Path, Detail: fmt.Sprintf("overlapping edits %s and %s",
				p.Edits[i-1].Span, p.Edits[i].Span)}
		}
	}
	return nil
}
