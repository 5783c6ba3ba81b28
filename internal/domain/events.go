package domain

import "time"

// Stage is one phase of a synchronization run.
type Stage int

const (
	StageIdle Stage = iota
	StageRecordSync
	StageMediaSync
	StageInfoSync
	StageFinalizing
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageRecordSync:
		return "record-sync"
	case StageMediaSync:
		return "media-sync"
	case StageInfoSync:
		return "info-sync"
	case StageFinalizing:
		return "finalizing"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// ExitStatus is the terminal outcome of a run.
type ExitStatus int

const (
	ExitSucceeded ExitStatus = iota
	ExitFailedRuntime
	ExitFailedNetwork
	// ExitHalted means the caller stopped the run; it is not a failure.
	ExitHalted
)

func (e ExitStatus) String() string {
	switch e {
	case ExitSucceeded:
		return "succeeded"
	case ExitFailedRuntime:
		return "failed-runtime"
	case ExitFailedNetwork:
		return "failed-network"
	case ExitHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// Event is a notification emitted by a sync run. Events arrive in emission
// order: Started first, Finished exactly once and last.
type Event interface {
	isEvent()
}

// Started is emitted once when a run begins.
type Started struct {
	RunID string
	At    time.Time
}

// StatusMessage carries human-readable status text for the current stage.
type StatusMessage struct {
	Stage Stage
	Text  string
}

// Progress reports item-level progress within a stage.
// Called repeatedly: (1, 40), (2, 40), ...
type Progress struct {
	Stage Stage
	Done  int
	Total int
	Item  string // Identifier of the item just processed
	Err   error  // Non-nil if that item failed
}

// ImageSyncComplete is emitted when the image downloads of a run finish.
type ImageSyncComplete struct {
	Downloaded int
	Pending    int
}

// AboutParsed carries the informational text scraped from the about page.
type AboutParsed struct {
	Text string
}

// Finished is the terminal notification of a run.
type Finished struct {
	RunID  string
	Status ExitStatus
	Err    error // Cause of a failed status, nil otherwise
}

func (Started) isEvent()           {}
func (StatusMessage) isEvent()     {}
func (Progress) isEvent()          {}
func (ImageSyncComplete) isEvent() {}
func (AboutParsed) isEvent()       {}
func (Finished) isEvent()          {}
