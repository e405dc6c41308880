// Package archive backs up original file bytes before in-place conversion
// and restores them on demand. A run-scoped store mirrors originals
// beneath an archive root and keeps a checksummed msgpack index, enough to
// fully reconstruct the original tree.
package archive

import (
	"fmt"
	"time"
)

// Store is the archive capability consumed by the conversion driver.
// Implementations must be safe for concurrent use, including concurrent
// Puts for the same path: the first archived copy of a path wins.
type Store interface {
	// Put archives the original content of path and returns its record.
	Put(path string, content []byte) (Record, error)
	// Records lists everything archived so far, in insertion order.
	Records() []Record
	// Get returns the archived bytes for path.
	Get(path string) ([]byte, error)
	// Verify checks a record's stored bytes against its checksum.
	Verify(rec Record) error
	// Dir returns the run-scoped directory holding this store.
	Dir() string
}

// Record describes one archived original.
type Record struct {
	// Path is the original path the bytes came from and will be restored
	// to.
	Path string
	// StoredName is the mirror path of the copy, relative to the store's
	// files directory.
	StoredName string
	// Checksum is the hex sha256 of the original bytes.
	Checksum string
	// ArchivedAt is the archive timestamp.
	ArchivedAt time.Time
}

// ArchiveError reports a failed archive copy. The destructive write for
// the affected path must never be attempted.
type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// RecoveryError reports an archive record that could not be restored.
// Recovery skips the record and continues with the rest.
type RecoveryError struct {
	Path   string
	Detail string
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("recover %s: %s", e.Path, e.Detail)
}
