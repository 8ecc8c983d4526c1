package history

import "time"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one invocation of the render pipeline.
type Run struct {
	ID               string
	Status           Status
	OutputPath       string
	ConfigPath       string
	SegmentCount     int
	SubstitutedCount int
	FrameCount       int
	DurationSeconds  float64
	OutputBytes      int64
	ErrorKind        string
	ErrorMessage     string
	StartedAt        time.Time
	FinishedAt       *time.Time
}

// Elapsed returns the wall time of a finished run, or zero while running.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome carries the fields FinishRun stamps onto a run.
type Outcome struct {
	SubstitutedCount int
	FrameCount       int
	DurationSeconds  float64
	OutputBytes      int64
	ErrorKind        string
	Err              error
}

// Diagnostic is a recorded segment load failure.
type Diagnostic struct {
	ID           int64
	RunID        string
	SegmentIndex int
	Source       string
	Message      string
	CreatedAt    time.Time
}
