package dialect

import "fmt"

// ParseError reports that a unit is not parseable under the declared
// grammar version. It fails the unit's job but never the batch.
type ParseError struct {
	Path    string
	Version string
	Line    uint32
	Col     uint32
	Detail  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: invalid syntax for Python %s: %s", e.Path, e.Line, e.Col, e.Version, e.Detail)
	}
	return fmt.Sprintf("%s: invalid syntax for Python %s: %s", e.Path, e.Version, e.Detail)
}

// UnsupportedConstructError reports a decorator site whose shape the
// classifier cannot safely model for rewriting.
type UnsupportedConstructError struct {
	Path   string
	Line   uint32
	Detail string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("%s:%d: unsupported decorator construct: %s", e.Path, e.Line, e.Detail)
}
