package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested record does not exist locally
	ErrNotFound = errors.New("record not found")

	// ErrServerOffline indicates the remote site is unreachable
	ErrServerOffline = errors.New("remote site is unreachable")

	// ErrMissingState indicates the synchronizer was started without the
	// collections or storage it needs
	ErrMissingState = errors.New("synchronizer is missing required state")

	// ErrHalted indicates a run stopped because the caller asked it to
	ErrHalted = errors.New("sync halted by request")

	// ErrSyncInProgress indicates another run already holds the data directory
	ErrSyncInProgress = errors.New("sync already in progress")
)
