package source

import (
	"fmt"
)

// Span is a half-open byte range [Start, End) into a unit's text.
type Span struct {
	Start uint32
	End   uint32
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Overlaps reports whether two spans conflict. Two zero-length spans never
// conflict; a zero-length span conflicts with a non-empty one when its
// position falls inside it.
func (s Span) Overlaps(other Span) bool {
	if s.Empty() && other.Empty() {
		return false
	}
	if s.Empty() {
		return other.Start <= s.Start && s.Start < other.End
	}
	if other.Empty() {
		return s.Start <= other.Start && other.Start < s.End
	}
	return s.Start < other.End && other.Start < s.End
}
