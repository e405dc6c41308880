// Package driver orchestrates batch conversion: it discovers source
// units, runs one conversion job per unit across a bounded worker pool,
// archives originals before destructive writes, and aggregates outcomes.
// Failures stay isolated to their job; only configuration errors are
// fatal to a run.
package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"decoport/internal/archive"
	"decoport/internal/config"
	"decoport/internal/dialect"
	"decoport/internal/rewrite"
	"decoport/internal/source"
)

// ErrNoSourceFiles is returned when discovery finds nothing to convert.
var ErrNoSourceFiles = errors.New("no Python source files found")

// Run converts every Python source file reachable from paths, in place.
// The returned summary lists every job; per-job failures do not produce a
// non-nil error here, only context cancellation does.
func Run(ctx context.Context, cfg *config.Config, paths []string, progress func(path string)) (*Summary, error) {
	files, err := source.Discover(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoSourceFiles
	}

	var store archive.Store
	summary := &Summary{}
	if cfg.DoArchive && !cfg.DryRun {
		store, err = archive.NewRunStore(cfg.ArchivePath)
		if err != nil {
			return nil, err
		}
		summary.ArchiveDir = store.Dir()
	}

	jobs := cfg.Concurrency
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// one slot per job; indices are unique per goroutine, no mutex needed
	results := make([]Job, len(files))

	var progressMu sync.Mutex
	report := func(path string) {
		if progress == nil {
			return
		}
		progressMu.Lock()
		progress(path)
		progressMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			report(path)
			results[i] = convertOne(gctx, cfg, store, path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	summary.Jobs = results
	for i := range results {
		switch {
		case results[i].Failed():
			summary.Failed++
		case results[i].State == StateNoChange:
			summary.Unchanged++
		default:
			if results[i].State == StateWritten {
				results[i].State = StateDone
			}
			summary.Converted++
		}
	}
	return summary, nil
}

// convertOne runs the full pipeline for a single unit. Every failure is
// recorded on the job; the original file is only written after its bytes
// are archived.
func convertOne(ctx context.Context, cfg *config.Config, store archive.Store, path string) Job {
	job := Job{Path: path, State: StatePending}

	unit, err := source.Read(path, source.Options{
		Linesep:       cfg.Linesep,
		Indentation:   cfg.Indentation,
		SourceVersion: cfg.SourceVersion,
	})
	if err != nil {
		return job.fail(err)
	}

	plan, err := planUnit(ctx, unit, cfg, &job)
	if err != nil {
		return job.fail(err)
	}

	if plan.Empty() {
		job.State = StateNoChange
		return job
	}
	job.Edits = len(plan.Edits)

	if cfg.DryRun {
		job.Plan = plan
		job.State = StatePlanned
		return job
	}

	converted, err := rewrite.Apply(unit.Text, plan)
	if err != nil {
		return job.fail(err)
	}
	if err := verifyConverted(ctx, unit, converted); err != nil {
		return job.fail(err)
	}
	job.State = StateRewritten

	out, err := source.Encode(converted, unit.Encoding, unit.HadBOM)
	if err != nil {
		return job.fail(err)
	}

	if store != nil {
		if _, err := store.Put(path, unit.Raw); err != nil {
			return job.fail(err)
		}
		job.State = StateArchived
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, out, mode); err != nil {
		return job.fail(fmt.Errorf("write %s: %w", path, err))
	}
	job.State = StateWritten
	return job
}

// planUnit parses, classifies and plans a unit; shared between the batch
// and simple-mode paths.
func planUnit(ctx context.Context, unit *source.Unit, cfg *config.Config, job *Job) (*rewrite.Plan, error) {
	tree, err := dialect.Parse(ctx, unit)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	if job != nil {
		job.State = StateParsed
	}

	sites, err := dialect.Classify(tree)
	if err != nil {
		return nil, err
	}

	plan, err := rewrite.Build(unit, sites, tree.Identifiers(), rewrite.Options{
		NamePrefix: cfg.NamePrefix,
		PEP8:       cfg.PEP8,
	})
	if err != nil {
		return nil, err
	}
	if job != nil {
		job.State = StatePlanned
	}
	return plan, nil
}

// verifyConverted reparses the emitted text and confirms no relaxed
// decorator sites remain. A violation here is an internal invariant
// failure, surfaced as an emit error on the job.
func verifyConverted(ctx context.Context, unit *source.Unit, converted []byte) error {
	check := source.NewFromText(unit.Path, converted, source.Options{
		Linesep:       unit.Linesep,
		Indentation:   unit.Indentation,
		SourceVersion: unit.SourceVersion,
	})
	tree, err := dialect.Parse(ctx, check)
	if err != nil {
		return &rewrite.EmitError{Path: unit.Path, Detail: "converted output does not parse: " + err.Error()}
	}
	defer tree.Close()
	sites, err := dialect.Classify(tree)
	if err != nil {
		return &rewrite.EmitError{Path: unit.Path, Detail: err.Error()}
	}
	for _, site := range sites {
		if site.Verdict == dialect.VerdictRelaxed {
			return &rewrite.EmitError{Path: unit.Path,
				Detail: fmt.Sprintf("relaxed decorator %q survived conversion", site.ExprText)}
		}
	}
	return nil
}

func (j Job) fail(err error) Job {
	j.State = StateFailed
	j.Err = err
	return j
}
