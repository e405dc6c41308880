package driver

import (
	"decoport/internal/rewrite"
)

// JobState tracks a conversion job through its pipeline. Any state may
// fall to StateFailed, which leaves the original file untouched.
type JobState uint8

const (
	StatePending JobState = iota
	StateParsed
	StatePlanned
	StateNoChange
	StateRewritten
	StateArchived
	// StateWritten marks the converted bytes replacing the original file;
	// Run promotes the job to StateDone once it is folded into the summary.
	StateWritten
	StateDone
	StateFailed
)

func (s JobState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateParsed:
		return "parsed"
	case StatePlanned:
		return "planned"
	case StateNoChange:
		return "no change needed"
	case StateRewritten:
		return "rewritten"
	case StateArchived:
		return "archived"
	case StateWritten:
		return "written"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Job is one unit's conversion outcome.
type Job struct {
	Path  string
	State JobState
	Err   error

	// Plan survives for dry-run reporting; nil otherwise.
	Plan *rewrite.Plan
	// Edits counts applied (or, in dry-run, intended) edits.
	Edits int
}

// Failed reports whether the job ended in failure.
func (j *Job) Failed() bool { return j.State == StateFailed }

// Summary aggregates the outcome of a batch run.
type Summary struct {
	Jobs       []Job
	Converted  int
	Unchanged  int
	Failed     int
	ArchiveDir string // run-scoped archive directory, "" when archiving is off
}

// OK reports whether every job succeeded.
func (s *Summary) OK() bool { return s.Failed == 0 }
