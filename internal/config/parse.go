package config

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"decoport/internal/source"
)

// ParseBooleanState interprets the accepted spellings of a boolean
// option. An empty string means "not set" and returns nil.
func ParseBooleanState(s string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "1", "yes", "y", "true", "on":
		v := true
		return &v, nil
	case "0", "no", "n", "false", "off":
		v := false
		return &v, nil
	default:
		return nil, fmt.Errorf("%q is not a boolean state", s)
	}
}

// ParseLinesep maps a line-separator spelling (symbolic or literal) to
// the separator itself. Empty input selects auto detection.
func ParseLinesep(s string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "LF", "\n":
		return source.LinesepLF, nil
	case "CRLF", "\r\n":
		return source.LinesepCRLF, nil
	case "CR", "\r":
		return source.LinesepCR, nil
	}
	switch s {
	case "\n":
		return source.LinesepLF, nil
	case "\r\n":
		return source.LinesepCRLF, nil
	case "\r":
		return source.LinesepCR, nil
	}
	return "", &ArgumentError{Option: "linesep", Detail: fmt.Sprintf("%q is not LF, CRLF or CR", s)}
}

// ParseIndentation maps an indentation spelling to the indentation unit:
// a positive integer selects that many spaces, 't'/'tab' selects tabs.
// Empty input selects auto detection.
func ParseIndentation(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "":
		return "", nil
	case "t", "tab", "\t":
		return "\t", nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || n <= 0 {
		return "", &ArgumentError{Option: "indentation",
			Detail: fmt.Sprintf("%q is not a positive integer or 'tab'", s)}
	}
	return strings.Repeat(" ", n), nil
}

// ParsePositiveInteger parses a strictly positive integer option value.
func ParsePositiveInteger(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q is not a positive integer", s)
	}
	return n, nil
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
