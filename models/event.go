package models

import "fmt"

// JobState is the orchestrator state machine.
type JobState int

const (
	JobStateIdle JobState = iota
	JobStateRunning
	JobStateCompleted
	JobStateFailed
)

func (s JobState) String() string {
	switch s {
	case JobStateIdle:
		return "idle"
	case JobStateRunning:
		return "running"
	case JobStateCompleted:
		return "completed"
	case JobStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s JobState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *JobState) UnmarshalText(b []byte) error {
	for _, st := range []JobState{JobStateIdle, JobStateRunning, JobStateCompleted, JobStateFailed} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown job state %q", b)
}

// EventKind tags what an Event reports.
type EventKind string

const (
	EventProgress    EventKind = "progress"
	EventAdvisory    EventKind = "advisory"
	EventSourceError EventKind = "source_error"
	EventDone        EventKind = "done"
)

// Event is sent from the running job to its observer. Fraction never
// decreases during a job and only reaches 1 on the done event of a
// completed job.
type Event struct {
	Kind     EventKind `json:"kind"`
	Fraction float64   `json:"fraction"`
	Stage    string    `json:"stage"`
	Message  string    `json:"message,omitempty"`
	Source   string    `json:"source,omitempty"`
	State    JobState  `json:"state"`
}

// SourceError records a failure isolated to one input or one output.
type SourceError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
	Err    error  `json:"-"`
}

// Outcome is the caller-facing status of a finished job.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// Result is the final report of one job.
type Result struct {
	JobID      string           `json:"jobId"`
	State      JobState         `json:"state"`
	Outputs    []OutputArtifact `json:"outputs"`
	Errors     []SourceError    `json:"errors,omitempty"`
	Advisories []string         `json:"advisories,omitempty"`
	LastStage  string           `json:"lastStage"`
	Err        error            `json:"-"`
}

// Outcome is a total failure when the job failed or produced nothing but
// errors, partial when some items failed.
func (r Result) Outcome() Outcome {
	switch {
	case r.State != JobStateCompleted:
		return OutcomeFailure
	case len(r.Outputs) == 0 && len(r.Errors) > 0:
		return OutcomeFailure
	case len(r.Errors) == 0:
		return OutcomeSuccess
	default:
		return OutcomePartial
	}
}

// Summary is a one line description such as "completed with 1 error".
func (r Result) Summary() string {
	if r.State == JobStateFailed {
		if r.Err != nil {
			return fmt.Sprintf("failed: %v", r.Err)
		}
		return "failed"
	}
	switch n := len(r.Errors); n {
	case 0:
		return r.State.String()
	case 1:
		return fmt.Sprintf("%s with 1 error", r.State)
	default:
		return fmt.Sprintf("%s with %d errors", r.State, n)
	}
}
