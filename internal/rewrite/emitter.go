package rewrite

import (
	"fmt"
)

// Apply splices a plan into the unit text. Bytes outside the edited spans
// are copied verbatim; an empty plan returns the input unchanged. Spans
// that fall outside the text, overlap, or no longer hold their expected
// content produce an EmitError.
func Apply(text []byte, plan *Plan) ([]byte, error) {
	if plan.Empty() {
		return text, nil
	}
	if err := plan.normalize(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(text)+grow(plan.Edits))
	cursor := uint32(0)
	for _, edit := range plan.Edits {
		start, end := edit.Span.Start, edit.Span.End
		if start < cursor || end < start || int(end) > len(text) {
			return nil, &EmitError{Path: plan.Path,
				Detail: fmt.Sprintf("edit span %s out of range", edit.Span)}
		}
		if edit.OldText != "" && string(text[start:end]) != edit.OldText {
			return nil, &EmitError{Path: plan.Path,
				Detail: fmt.Sprintf("text at %s does not match expected content", edit.Span)}
		}
		out = append(out, text[cursor:start]...)
		out = append(out, edit.NewText...)
		cursor = end
	}
	out = append(out, text[cursor:]...)
	return out, nil
}

func grow(edits []TextEdit) int {
	delta := 0
	for _, e := range edits {
		delta += len(e.NewText) - int(e.Span.Len())
	}
	if delta < 0 {
		return 0
	}
	return delta
}
