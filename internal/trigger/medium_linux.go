//go:build linux

package trigger

import (
	"os"
	"path/filepath"
	"strings"
)

const sysClassNet = "/sys/class/net"

// DetectMedium inspects the active interfaces under /sys/class/net.
func DetectMedium() Medium {
	return detectMedium(sysClassNet)
}

func detectMedium(root string) Medium {
	entries, err := os.ReadDir(root)
	if err != nil {
		return MediumUnknown
	}

	medium := MediumNone
	for _, e := range entries {
		name := e.Name()
		if name == "lo" {
			continue
		}
		dir := filepath.Join(root, name)
		if !interfaceUp(dir) {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, "wireless")); err == nil {
			medium = MediumWireless
			continue
		}
		// Virtual interfaces (bridges, veth, tun) have no device link
		if _, err := os.Stat(filepath.Join(dir, "device")); err != nil {
			continue
		}
		if medium == MediumNone {
			medium = MediumWired
		}
	}
	return medium
}

func interfaceUp(dir string) bool {
	// #nosec G304 -- dir is built from /sys/class/net entries
	data, err := os.ReadFile(filepath.Join(dir, "operstate"))
	if err != nil {
		return false
	}
	state := strings.TrimSpace(string(data))
	return state == "up" || state == "unknown"
}
