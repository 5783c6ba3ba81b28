// Package status records the outcome of sync runs on disk.
package status

import "time"

// Phase represents the state of the most recent run
type Phase string

const (
	// PhaseNeverRun means no run has been recorded yet
	PhaseNeverRun Phase = ""

	// PhaseSyncing means a run is currently in progress
	PhaseSyncing Phase = "Syncing"

	// PhaseSucceeded means the last run completed
	PhaseSucceeded Phase = "Succeeded"

	// PhaseFailed means the last run failed
	PhaseFailed Phase = "Failed"

	// PhaseHalted means the last run was stopped by request
	PhaseHalted Phase = "Halted"
)

// RunStatus represents the last known sync state
type RunStatus struct {
	// Phase represents the outcome of the last run
	Phase Phase `yaml:"phase"`

	// Outcome is the exit status name, e.g. "failed-network"
	Outcome string `yaml:"outcome,omitempty"`

	// Message provides additional information about the run
	Message string `yaml:"message,omitempty"`

	// RunID identifies the run
	RunID string `yaml:"runID,omitempty"`

	// LastAttempt is the timestamp the last run started
	LastAttempt *time.Time `yaml:"lastAttempt,omitempty"`

	// LastFinished is the timestamp the last run ended
	LastFinished *time.Time `yaml:"lastFinished,omitempty"`

	// LastSuccess is the timestamp of the last successful run
	LastSuccess *time.Time `yaml:"lastSuccess,omitempty"`

	// AttemptCount is the number of runs since the last success
	AttemptCount int `yaml:"attemptCount,omitempty"`

	StreamCount       int `yaml:"streamCount,omitempty"`
	InvertebrateCount int `yaml:"invertebrateCount,omitempty"`
	ImagesDownloaded  int `yaml:"imagesDownloaded,omitempty"`
	ImagesFailed      int `yaml:"imagesFailed,omitempty"`
}
