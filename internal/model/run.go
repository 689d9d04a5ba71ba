package model

import "time"

// RunStatus is the lifecycle state of a ledger entry.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusEmpty    RunStatus = "empty"
	RunStatusFailed   RunStatus = "failed"
)

// Finished reports whether s is a terminal status.
func (s RunStatus) Finished() bool {
	return s == RunStatusComplete || s == RunStatusEmpty || s == RunStatusFailed
}

// Run is one invocation of the lead pipeline as recorded in the ledger.
type Run struct {
	ID         string     `json:"id"`
	Keywords   []string   `json:"keywords"`
	Status     RunStatus  `json:"status"`
	Summary    *RunResult `json:"summary,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Elapsed is the wall time of a finished run, zero while it is running.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunResult holds the counters of a finished run.
type RunResult struct {
	SourcesLoaded int    `json:"sources_loaded"`
	SourcesFailed int    `json:"sources_failed"`
	RawRecords    int    `json:"raw_records"`
	Qualified     int    `json:"qualified"`
	Published     int    `json:"published"`
	Target        string `json:"target,omitempty"`
	Destination   string `json:"destination,omitempty"`
	Error         string `json:"error,omitempty"`
}
