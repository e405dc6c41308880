package archive

import (
	"os"
	"path/filepath"
	"sort"
)

// CleanupLevel selects what recovery removes after restoring.
type CleanupLevel uint8

const (
	// CleanupNone leaves the archive untouched after recovery.
	CleanupNone CleanupLevel = iota
	// CleanupFiles removes each restored archive file and the index.
	CleanupFiles
	// CleanupDir additionally removes archive directories that became
	// empty, the run directory and archive root included.
	CleanupDir
)

// SkippedRecord names an archive record recovery could not restore.
type SkippedRecord struct {
	Path   string
	Reason string
}

// RecoverResult summarises one recovery pass.
type RecoverResult struct {
	Restored []string
	Skipped  []SkippedRecord
}

// Recover restores every record of the run directory's archive to its
// original path, overwriting current content. A record whose stored bytes
// are unreadable or fail checksum verification is skipped without
// aborting the rest.
func Recover(runDir string, level CleanupLevel) (*RecoverResult, error) {
	store, err := OpenRunStore(runDir)
	if err != nil {
		return nil, err
	}

	result := &RecoverResult{}
	restoredStored := make([]string, 0)

	for _, rec := range store.Records() {
		if err := store.Verify(rec); err != nil {
			result.Skipped = append(result.Skipped, SkippedRecord{Path: rec.Path, Reason: err.Error()})
			continue
		}
		content, err := store.Get(rec.Path)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRecord{Path: rec.Path, Reason: err.Error()})
			continue
		}
		if dir := filepath.Dir(rec.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				result.Skipped = append(result.Skipped, SkippedRecord{Path: rec.Path, Reason: err.Error()})
				continue
			}
		}
		if err := os.WriteFile(rec.Path, content, 0o644); err != nil {
			result.Skipped = append(result.Skipped, SkippedRecord{Path: rec.Path, Reason: err.Error()})
			continue
		}
		result.Restored = append(result.Restored, rec.Path)
		restoredStored = append(restoredStored, filepath.Join(runDir, filesDirName, filepath.FromSlash(rec.StoredName)))
	}

	// Skipped records keep the whole archive in place, index included, so
	// recovery can be re-run once the cause (say a transient read error)
	// is gone.
	if level >= CleanupFiles && len(result.Skipped) == 0 {
		cleanup(runDir, restoredStored, level)
	}
	return result, nil
}

// cleanup removes restored archive files and, at CleanupDir, any archive
// directories left empty. Cleanup failures are deliberately ignored: the
// originals are already restored.
func cleanup(runDir string, storedPaths []string, level CleanupLevel) {
	for _, p := range storedPaths {
		_ = os.Remove(p)
	}
	_ = os.Remove(filepath.Join(runDir, indexName))

	if level < CleanupDir {
		return
	}

	// Deepest directories first so emptied parents can be removed too.
	dirs := map[string]bool{}
	for _, p := range storedPaths {
		for d := filepath.Dir(p); len(d) >= len(runDir); d = filepath.Dir(d) {
			dirs[d] = true
			if d == runDir {
				break
			}
		}
	}
	sorted := make([]string, 0, len(dirs))
	for d := range dirs {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	for _, d := range sorted {
		_ = os.Remove(d) // fails while non-empty, which is fine
	}
	_ = os.Remove(runDir)
	_ = os.Remove(filepath.Dir(runDir))
}
