package source

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// Linesep values accepted across the tool.
const (
	LinesepLF   = "\n"
	LinesepCRLF = "\r\n"
	LinesepCR   = "\r"
)

// DetectLinesep picks the most frequent line separator in text, defaulting
// to LF for separator-free input. Ties resolve LF > CRLF > CR.
func DetectLinesep(text []byte) string {
	var lf, crlf, cr int
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lf++
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				crlf++
				i++
			} else {
				cr++
			}
		}
	}
	lf -= crlf
	if crlf > lf && crlf >= cr {
		return LinesepCRLF
	}
	if cr > lf && cr > crlf {
		return LinesepCR
	}
	return LinesepLF
}

// DetectIndentation infers the indentation unit: a tab if tab-indented
// lines dominate, otherwise the smallest non-zero leading-space run.
// Four spaces for input with no indented lines.
func DetectIndentation(text []byte) string {
	tabs := 0
	spaces := 0
	minRun := 0
	for _, line := range bytes.Split(text, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		switch line[0] {
		case '\t':
			tabs++
		case ' ':
			run := 0
			for run < len(line) && line[run] == ' ' {
				run++
			}
			if run == len(line) {
				continue // whitespace-only line
			}
			spaces++
			if minRun == 0 || run < minRun {
				minRun = run
			}
		}
	}
	if tabs > spaces {
		return "\t"
	}
	if minRun > 0 {
		return strings.Repeat(" ", minRun)
	}
	return "    "
}

// codingCookie matches a PEP 263 encoding declaration.
var codingCookie = regexp.MustCompile(`^[ \t\f]*#.*?coding[:=][ \t]*([-_.a-zA-Z0-9]+)`)

// DetectEncoding returns the codec declared by a BOM or a coding cookie in
// the first two lines, defaulting to utf-8.
func DetectEncoding(raw []byte) string {
	if bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) {
		return "utf-8"
	}
	rest := raw
	for n := 0; n < 2; n++ {
		line := rest
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, rest = rest[:i], rest[i+1:]
		} else {
			rest = nil
		}
		if m := codingCookie.FindSubmatch(line); m != nil {
			return strings.ToLower(string(m[1]))
		}
		if rest == nil {
			break
		}
	}
	return "utf-8"
}

// normalizeCodec maps common Python codec spellings onto names the
// charset index resolves.
func normalizeCodec(name string) string {
	name = strings.ReplaceAll(strings.ToLower(name), "_", "-")
	switch name {
	case "latin-1", "latin", "l1", "8859", "cp819":
		return "iso-8859-1"
	}
	return name
}

func isUTF8Name(name string) bool {
	switch normalizeCodec(name) {
	case "utf-8", "utf8", "ascii", "us-ascii":
		return true
	}
	return false
}

// Decode converts raw bytes in the named codec to UTF-8 text, stripping a
// leading BOM when present.
func Decode(raw []byte, encoding string) (text []byte, hadBOM bool, err error) {
	if trimmed := bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF}); len(trimmed) != len(raw) {
		raw = trimmed
		hadBOM = true
	}
	if isUTF8Name(encoding) {
		return raw, hadBOM, nil
	}
	enc, err := htmlindex.Get(normalizeCodec(encoding))
	if err != nil {
		return nil, hadBOM, fmt.Errorf("unknown source encoding %q", encoding)
	}
	text, err = enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, hadBOM, fmt.Errorf("decode %s: %w", encoding, err)
	}
	return text, hadBOM, nil
}

// Encode converts UTF-8 text back into the named codec, restoring a BOM
// when the original carried one.
func Encode(text []byte, encoding string, hadBOM bool) ([]byte, error) {
	out := text
	if !isUTF8Name(encoding) {
		enc, err := htmlindex.Get(normalizeCodec(encoding))
		if err != nil {
			return nil, fmt.Errorf("unknown source encoding %q", encoding)
		}
		out, err = enc.NewEncoder().Bytes(text)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", encoding, err)
		}
	}
	if hadBOM {
		out = append([]byte{0xEF, 0xBB, 0xBF}, out...)
	}
	return out, nil
}
