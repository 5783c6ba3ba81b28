// Package trigger decides whether a sync run may start on its own.
package trigger

import (
	"github.com/benthic/benthic/internal/config"
)

// Event is what prompts a possible run.
type Event int

const (
	// EventManual is an explicit user request
	EventManual Event = iota
	// EventStartup is the application starting
	EventStartup
	// EventConnectivity is a change of network connectivity
	EventConnectivity
)

func (e Event) String() string {
	switch e {
	case EventManual:
		return "manual"
	case EventStartup:
		return "startup"
	case EventConnectivity:
		return "connectivity"
	default:
		return "unknown"
	}
}

// Medium is the kind of network link currently in use.
type Medium int

const (
	MediumUnknown Medium = iota
	MediumWired
	MediumWireless
	MediumNone
)

func (m Medium) String() string {
	switch m {
	case MediumWired:
		return "wired"
	case MediumWireless:
		return "wireless"
	case MediumNone:
		return "none"
	default:
		return "unknown"
	}
}

// Unmetered reports whether m is a link on which a full sync is acceptable.
func (m Medium) Unmetered() bool {
	return m == MediumWired || m == MediumWireless
}

// ShouldRun applies the sync mode to event. The reason is meant for logs
// and is set whether or not the run is allowed.
func ShouldRun(mode config.SyncMode, event Event, medium Medium) (bool, string) {
	if event == EventManual {
		return true, "requested by user"
	}
	if medium == MediumNone {
		return false, "no network connection"
	}

	switch mode {
	case config.SyncModeOnStartup:
		if event == EventStartup {
			return true, "sync on startup enabled"
		}
		return false, "on_startup only syncs when the application starts"
	case config.SyncModeWiFiOnly:
		if medium.Unmetered() {
			return true, "unmetered " + medium.String() + " link"
		}
		return false, "wifi_only and the link is " + medium.String()
	case config.SyncModeManualOnly:
		return false, "manual_only"
	default:
		return false, "unknown sync mode " + string(mode)
	}
}
