package domain

import "time"

// RunSummary summarizes what happened during a sync run.
type RunSummary struct {
	RunID      string
	Status     ExitStatus
	Message    string
	StartedAt  time.Time
	FinishedAt time.Time

	// Collection sizes after the run
	Streams       int
	Invertebrates int

	StreamsMerged        int
	StreamsRemoved       int
	InvertebratesMerged  int
	InvertebratesRemoved int
	ImagesDownloaded     int
	ImagesFailed         int
}

// Duration returns how long the run took.
func (r RunSummary) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
