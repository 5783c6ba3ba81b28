package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/benthic/benthic/internal/domain"
)

// SyncEventMsg carries one run event together with the command that
// reads the next one.
type SyncEventMsg struct {
	Event   domain.Event
	NextCmd tea.Cmd
}

// SyncClosedMsg is sent when the event channel closes.
type SyncClosedMsg struct{}
