package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// indexName is the record index inside a run directory.
const indexName = "index.mp"

// filesDirName holds the mirrored original copies.
const filesDirName = "files"

// Current schema version - increment when the index format changes.
const indexSchemaVersion uint16 = 1

type indexPayload struct {
	Schema    uint16
	CreatedAt time.Time
	Records   []Record
}

// dirStore mirrors originals beneath <root>/<run-stamp>/files/ and keeps
// a msgpack index of checksummed records.
type dirStore struct {
	mu      sync.Mutex
	dir     string
	records []Record
	byPath  map[string]int
}

// NewRunStore creates a fresh run-scoped store beneath root. Directory
// creation is idempotent; the run directory itself is unique per run.
func NewRunStore(root string) (Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &ArchiveError{Path: root, Err: err}
	}
	stamp := time.Now().Format("20060102-150405")
	dir := filepath.Join(root, stamp)
	for n := 1; ; n++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return nil, &ArchiveError{Path: dir, Err: err}
		}
		// another run grabbed this stamp; pick the next suffix
		dir = filepath.Join(root, fmt.Sprintf("%s.%d", stamp, n))
	}
	if err := os.MkdirAll(filepath.Join(dir, filesDirName), 0o755); err != nil {
		return nil, &ArchiveError{Path: dir, Err: err}
	}
	return &dirStore{dir: dir, byPath: make(map[string]int)}, nil
}

// OpenRunStore opens an existing run directory for recovery.
func OpenRunStore(dir string) (Store, error) {
	payload, err := readIndex(dir)
	if err != nil {
		return nil, err
	}
	store := &dirStore{dir: dir, records: payload.Records, byPath: make(map[string]int)}
	for i, rec := range payload.Records {
		store.byPath[rec.Path] = i
	}
	return store, nil
}

func (s *dirStore) Dir() string { return s.dir }

func (s *dirStore) Put(path string, content []byte) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// One record per original path per run. The duplicate check must
	// precede the mirror write: a later Put for the same path must not
	// clobber the bytes the kept record's checksum was taken over.
	if i, dup := s.byPath[path]; dup {
		return s.records[i], nil
	}

	stored := mirrorName(path)
	sum := sha256.Sum256(content)
	rec := Record{
		Path:       path,
		StoredName: stored,
		Checksum:   hex.EncodeToString(sum[:]),
		ArchivedAt: time.Now(),
	}

	dst := filepath.Join(s.dir, filesDirName, filepath.FromSlash(stored))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Record{}, &ArchiveError{Path: path, Err: err}
	}
	if err := atomicWrite(dst, content); err != nil {
		return Record{}, &ArchiveError{Path: path, Err: err}
	}

	s.byPath[path] = len(s.records)
	s.records = append(s.records, rec)
	if err := s.writeIndexLocked(); err != nil {
		return Record{}, &ArchiveError{Path: path, Err: err}
	}
	return rec, nil
}

func (s *dirStore) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *dirStore) Get(path string) ([]byte, error) {
	s.mu.Lock()
	i, ok := s.byPath[path]
	var rec Record
	if ok {
		rec = s.records[i]
	}
	s.mu.Unlock()
	if !ok {
		return nil, &RecoveryError{Path: path, Detail: "no archive record"}
	}
	content, err := os.ReadFile(s.storedPath(rec))
	if err != nil {
		return nil, &RecoveryError{Path: path, Detail: err.Error()}
	}
	return content, nil
}

func (s *dirStore) Verify(rec Record) error {
	content, err := os.ReadFile(s.storedPath(rec))
	if err != nil {
		return &RecoveryError{Path: rec.Path, Detail: err.Error()}
	}
	sum := sha256.Sum256(content)
	if hex.EncodeToString(sum[:]) != rec.Checksum {
		return &RecoveryError{Path: rec.Path, Detail: "checksum mismatch"}
	}
	return nil
}

func (s *dirStore) storedPath(rec Record) string {
	return filepath.Join(s.dir, filesDirName, filepath.FromSlash(rec.StoredName))
}

func (s *dirStore) writeIndexLocked() error {
	payload := indexPayload{
		Schema:    indexSchemaVersion,
		CreatedAt: time.Now(),
		Records:   s.records,
	}
	data, err := msgpack.Marshal(&payload)
	if err != nil {
		return err
	}
	return atomicWrite(filepath.Join(s.dir, indexName), data)
}

func readIndex(dir string) (*indexPayload, error) {
	data, err := os.ReadFile(filepath.Join(dir, indexName))
	if err != nil {
		return nil, &RecoveryError{Path: dir, Detail: "no archive index: " + err.Error()}
	}
	var payload indexPayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, &RecoveryError{Path: dir, Detail: "corrupt archive index: " + err.Error()}
	}
	if payload.Schema != indexSchemaVersion {
		return nil, &RecoveryError{Path: dir,
			Detail: fmt.Sprintf("unsupported archive schema %d", payload.Schema)}
	}
	return &payload, nil
}

// atomicWrite writes via a temp file and rename so a crash never leaves a
// half-written archive artifact.
func atomicWrite(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}

// mirrorName maps an original path to its slash-separated mirror path
// under the store's files directory, with volume and parent markers
// flattened so the mirror never escapes the run directory.
func mirrorName(path string) string {
	p := filepath.ToSlash(filepath.Clean(path))
	if vol := filepath.VolumeName(path); vol != "" {
		p = strings.TrimPrefix(p, filepath.ToSlash(vol))
		p = strings.ReplaceAll(vol, ":", "") + "/" + strings.TrimPrefix(p, "/")
	}
	p = strings.TrimPrefix(p, "/")
	parts := strings.Split(p, "/")
	for i, part := range parts {
		if part == ".." {
			parts[i] = "__"
		}
	}
	return strings.Join(parts, "/")
}
