package pipeline

import "github.com/ArdentEmpiricist/TR-PDF-Rename/journal"

// Status is the per-document result of a run. Every discovered PDF ends
// in exactly one status; no status ever aborts the batch.
type Status string

const (
	// StatusRenamed: the file now bears its canonical name.
	StatusRenamed Status = "renamed"

	// StatusAlreadyNamed: the computed name matched the current name.
	StatusAlreadyNamed Status = "already_named"

	// StatusSkippedNamed: the filename already follows the canonical
	// pattern, so the file was not reprocessed.
	StatusSkippedNamed Status = "skipped_named"

	// StatusSkippedOversize: the file exceeds the size limit.
	StatusSkippedOversize Status = "skipped_oversize"

	// StatusUnrecognized: no classification rule matched.
	StatusUnrecognized Status = "unrecognized"

	// StatusMissingField: the document classified but lacked a usable
	// date or other required field.
	StatusMissingField Status = "missing_field"

	// StatusExtractError: the PDF could not be read or has no text layer.
	StatusExtractError Status = "extract_error"

	// StatusUnsafeTarget: the rename would have left the root or used a
	// non-plain filename.
	StatusUnsafeTarget Status = "unsafe_target"

	// StatusCollisionExhausted: every suffixed variant of the target
	// name was taken.
	StatusCollisionExhausted Status = "collision_exhausted"

	// StatusFSError: a filesystem operation failed.
	StatusFSError Status = "fs_error"
)

// Class buckets the status for run counters.
func (s Status) Class() journal.Class {
	switch s {
	case StatusRenamed:
		return journal.ClassRenamed
	case StatusAlreadyNamed, StatusSkippedNamed, StatusSkippedOversize,
		StatusUnrecognized, StatusMissingField:
		return journal.ClassSkipped
	default:
		return journal.ClassFailed
	}
}

// Outcome is the result for one document.
type Outcome struct {
	Path    string
	NewName string // final basename, set for renamed and already_named
	Status  Status
	Type    string // classified document type, when known
	ISIN    string
	Asset   string
	Detail  string // human-readable failure or skip reason
}

// Summary aggregates one run.
type Summary struct {
	RunID    string
	Root     string
	DryRun   bool
	Outcomes []Outcome
	Renamed  int
	Skipped  int
	Failed   int
}

// Total returns the number of documents considered.
func (s *Summary) Total() int { return len(s.Outcomes) }

func (s *Summary) count(o Outcome) {
	switch o.Status.Class() {
	case journal.ClassRenamed:
		s.Renamed++
	case journal.ClassSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}
