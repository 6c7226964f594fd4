package model

import "time"

// RunStatus represents the outcome of an ETL run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusEmpty    RunStatus = "empty"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// PhaseStatus represents the state of one pipeline phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a pipeline phase.
type PhaseResult struct {
	Name     string         `json:"name" yaml:"name"`
	Status   PhaseStatus    `json:"status" yaml:"status"`
	Duration int64          `json:"duration_ms" yaml:"duration_ms"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// RunResult is the summary of one fetch, enrich and write pass.
type RunResult struct {
	RunID       string        `json:"run_id" yaml:"run_id"`
	Status      RunStatus     `json:"status" yaml:"status"`
	StartedAt   time.Time     `json:"started_at" yaml:"started_at"`
	Fetched     int           `json:"fetched" yaml:"fetched"`
	Resolved    int           `json:"resolved" yaml:"resolved"`
	NoRoad      int           `json:"no_road" yaml:"no_road"`
	Unavailable int           `json:"unavailable" yaml:"unavailable"`
	Inserted    int           `json:"inserted" yaml:"inserted"`
	RowErrors   int           `json:"row_errors" yaml:"row_errors"`
	ArchiveKey  string        `json:"archive_key,omitempty" yaml:"archive_key,omitempty"`
	DryRun      bool          `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Phases      []PhaseResult `json:"phases" yaml:"phases"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Phase returns the named phase result, or nil.
func (r *RunResult) Phase(name string) *PhaseResult {
	for i := range r.Phases {
		if r.Phases[i].Name == name {
			return &r.Phases[i]
		}
	}
	return nil
}
