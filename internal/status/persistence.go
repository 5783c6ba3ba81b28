package status

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/benthic/benthic/internal/domain"
)

const (
	// FileName is the name of the status file
	FileName = "status.yaml"
)

// FileStore persists RunStatus as YAML in a directory
type FileStore struct {
	basePath string
}

// NewFileStore creates a file-based status store rooted at basePath
func NewFileStore(basePath string) *FileStore {
	return &FileStore{basePath: basePath}
}

// Path returns the status file location
func (f *FileStore) Path() string {
	return filepath.Join(f.basePath, FileName)
}

// Save writes the status atomically
func (f *FileStore) Save(status *RunStatus) error {
	if err := os.MkdirAll(f.basePath, 0750); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	data, err := yaml.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	// Write to temporary file first for atomic operation
	filePath := f.Path()
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file: %w", err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file: %w", err)
	}
	return nil
}

// Load reads the status. A missing file yields an empty status (first run).
func (f *FileStore) Load() (*RunStatus, error) {
	// #nosec G304 -- path is built from the configured data directory
	data, err := os.ReadFile(f.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &RunStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var status RunStatus
	if err := yaml.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return &status, nil
}

// MarkStarted records that a run began
func (f *FileStore) MarkStarted(runID string, at time.Time) error {
	st, err := f.Load()
	if err != nil {
		st = &RunStatus{}
	}
	st.Phase = PhaseSyncing
	st.RunID = runID
	st.Message = ""
	st.Outcome = ""
	st.LastAttempt = &at
	return f.Save(st)
}

// Record folds a finished run into the stored status
func (f *FileStore) Record(summary domain.RunSummary) error {
	st, err := f.Load()
	if err != nil {
		st = &RunStatus{}
	}
	Apply(st, summary)
	return f.Save(st)
}

// Apply updates st with the result of a run
func Apply(st *RunStatus, summary domain.RunSummary) {
	started, finished := summary.StartedAt, summary.FinishedAt

	st.RunID = summary.RunID
	st.Outcome = summary.Status.String()
	st.Message = summary.Message
	st.LastAttempt = &started
	st.LastFinished = &finished
	st.StreamCount = summary.Streams
	st.InvertebrateCount = summary.Invertebrates
	st.ImagesDownloaded = summary.ImagesDownloaded
	st.ImagesFailed = summary.ImagesFailed

	switch summary.Status {
	case domain.ExitSucceeded:
		st.Phase = PhaseSucceeded
		st.LastSuccess = &finished
		st.AttemptCount = 0
	case domain.ExitHalted:
		st.Phase = PhaseHalted
		st.AttemptCount++
	default:
		st.Phase = PhaseFailed
		st.AttemptCount++
	}
}
