package synchronizer

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/benthic/benthic/internal/domain"
)

// reservedEvents is the channel capacity kept free for non-progress
// events, so that emitting them never blocks on a slow reader.
const reservedEvents = 16

// run is one synchronization pass. Its events channel delivers every
// notification in emission order and is closed after Finished.
type run struct {
	id string

	events chan domain.Event
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	halt   atomic.Bool

	// Owned by the worker goroutine until done is closed
	logger    *slog.Logger
	stage     domain.Stage
	dirty     bool
	about     string
	inventory map[string]struct{}
	summary   domain.RunSummary
}

func (r *run) stop() {
	r.halt.Store(true)
	r.cancel()
}

func (r *run) halted() bool {
	return r.halt.Load() || r.ctx.Err() != nil
}

func (r *run) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *run) emit(ev domain.Event) {
	r.events <- ev
}

// emitProgress drops the event rather than eat into the reserved capacity.
func (r *run) emitProgress(ev domain.Progress) {
	if len(r.events) >= cap(r.events)-reservedEvents {
		return
	}
	select {
	case r.events <- ev:
	default:
	}
}

func (r *run) status(text string) {
	r.logger.Info(text, "stage", r.stage.String())
	r.emit(domain.StatusMessage{Stage: r.stage, Text: text})
}

func (r *run) hasImage(localName string) bool {
	_, ok := r.inventory[localName]
	return ok
}
