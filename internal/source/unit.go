package source

import (
	"fmt"
	"os"

	"fortio.org/safecast"
)

// Options carries explicit overrides for the per-unit conventions that are
// otherwise auto-detected from the content.
type Options struct {
	Linesep       string // "", "\n", "\r\n" or "\r"; empty means auto detect
	Indentation   string // "", spaces or "\t"; empty means auto detect
	SourceVersion string // declared grammar version, e.g. "3.12"
}

// Unit is a single source file (or a virtual stream) prepared for
// conversion. Immutable once constructed.
type Unit struct {
	Path          string
	Raw           []byte // original bytes as read
	Text          []byte // decoded UTF-8 text, BOM stripped
	Encoding      string // declared or detected codec name
	HadBOM        bool
	Linesep       string
	Indentation   string
	SourceVersion string
	Virtual       bool // not backed by a real path (stdin, tests)

	lineIdx []uint32 // offsets of '\n' (or lone '\r') in Text
}

// Read loads a unit from disk.
func Read(path string, opts Options) (*Unit, error) {
	// #nosec G304 -- path is provided by the caller
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(path, raw, opts)
}

// NewVirtual builds a unit that is not backed by a file on disk.
func NewVirtual(name string, raw []byte, opts Options) (*Unit, error) {
	unit, err := New(name, raw, opts)
	if err != nil {
		return nil, err
	}
	unit.Virtual = true
	return unit, nil
}

// NewFromText builds a unit over already-decoded UTF-8 text, bypassing
// encoding detection. Used for re-checking emitted output.
func NewFromText(path string, text []byte, opts Options) *Unit {
	linesep := opts.Linesep
	if linesep == "" {
		linesep = DetectLinesep(text)
	}
	indentation := opts.Indentation
	if indentation == "" {
		indentation = DetectIndentation(text)
	}
	return &Unit{
		Path:          path,
		Raw:           text,
		Text:          text,
		Encoding:      "utf-8",
		Linesep:       linesep,
		Indentation:   indentation,
		SourceVersion: opts.SourceVersion,
		Virtual:       true,
		lineIdx:       buildLineIndex(text),
	}
}

// New decodes raw bytes, resolves the unit's conventions and builds its
// line index.
func New(path string, raw []byte, opts Options) (*Unit, error) {
	encoding := DetectEncoding(raw)
	text, hadBOM, err := Decode(raw, encoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	linesep := opts.Linesep
	if linesep == "" {
		linesep = DetectLinesep(text)
	}
	indentation := opts.Indentation
	if indentation == "" {
		indentation = DetectIndentation(text)
	}

	return &Unit{
		Path:          path,
		Raw:           raw,
		Text:          text,
		Encoding:      encoding,
		HadBOM:        hadBOM,
		Linesep:       linesep,
		Indentation:   indentation,
		SourceVersion: opts.SourceVersion,
		lineIdx:       buildLineIndex(text),
	}, nil
}

// LineStart returns the offset of the first byte of the line containing off.
func (u *Unit) LineStart(off uint32) uint32 {
	idx := u.lineIdx
	// binary search: greatest lineIdx[i] < off
	lo, hi := 0, len(idx)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		if idx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if hi < 0 {
		return 0
	}
	return idx[hi] + 1
}

// LineCol converts a byte offset into a 1-based line/column pair for
// error reporting.
func (u *Unit) LineCol(off uint32) (line, col uint32) {
	idx := u.lineIdx
	lo, hi := 0, len(idx)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		if idx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if hi < 0 {
		return 1, off + 1
	}
	return safeU32(hi) + 2, off - (idx[hi] + 1) + 1
}

func buildLineIndex(text []byte) []uint32 {
	out := make([]uint32, 0, 64)
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			out = append(out, safeU32(i))
		case '\r':
			// lone CR terminates a line too; CRLF is handled by the '\n'
			if i+1 >= len(text) || text[i+1] != '\n' {
				out = append(out, safeU32(i))
			}
		}
	}
	return out
}

func safeU32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return v
}
