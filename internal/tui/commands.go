package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/benthic/benthic/internal/domain"
)

// ListenCmd pumps run events into the program one at a time. Each
// SyncEventMsg carries the continuation that reads the next event.
func ListenCmd(events <-chan domain.Event) tea.Cmd {
	return func() tea.Msg {
		return readSyncEvent(events)
	}
}

func readSyncEvent(events <-chan domain.Event) tea.Msg {
	ev, ok := <-events
	if !ok {
		return SyncClosedMsg{}
	}
	return SyncEventMsg{Event: ev, NextCmd: ListenCmd(events)}
}
