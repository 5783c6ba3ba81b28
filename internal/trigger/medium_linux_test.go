//go:build linux

package trigger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLink struct {
	name     string
	state    string
	wireless bool
	physical bool
}

func makeSysNet(t *testing.T, links ...fakeLink) string {
	t.Helper()
	root := t.TempDir()
	for _, l := range links {
		dir := filepath.Join(root, l.name)
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "operstate"), []byte(l.state+"\n"), 0644))
		if l.wireless {
			require.NoError(t, os.Mkdir(filepath.Join(dir, "wireless"), 0755))
		}
		if l.physical {
			require.NoError(t, os.Mkdir(filepath.Join(dir, "device"), 0755))
		}
	}
	return root
}

func TestDetectMedium(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		links []fakeLink
		want  Medium
	}{
		{name: "loopback only", links: []fakeLink{{name: "lo", state: "unknown"}}, want: MediumNone},
		{name: "wired up", links: []fakeLink{{name: "eth0", state: "up", physical: true}}, want: MediumWired},
		{name: "wired down", links: []fakeLink{{name: "eth0", state: "down", physical: true}}, want: MediumNone},
		{name: "wireless wins", links: []fakeLink{
			{name: "eth0", state: "up", physical: true},
			{name: "wlan0", state: "up", physical: true, wireless: true},
		}, want: MediumWireless},
		{name: "virtual ignored", links: []fakeLink{{name: "docker0", state: "up"}}, want: MediumNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detectMedium(makeSysNet(t, tt.links...)))
		})
	}
}

func TestDetectMedium_MissingRoot(t *testing.T) {
	t.Parallel()
	assert.Equal(t, MediumUnknown, detectMedium(filepath.Join(t.TempDir(), "absent")))
}
