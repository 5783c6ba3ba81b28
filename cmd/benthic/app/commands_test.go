package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benthic/benthic/internal/domain"
	"github.com/benthic/benthic/internal/search"
	"github.com/benthic/benthic/internal/store"
	"github.com/benthic/benthic/internal/trigger"
)

const testBaseURL = "http://field.example"

// execute runs the root command with args and returns its output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeConfig creates a config file that keeps all state under a temp dir
func writeConfig(t *testing.T) (configFile, dataDir string) {
	t.Helper()
	dir := t.TempDir()
	dataDir = filepath.Join(dir, "data")
	configFile = filepath.Join(dir, "config.yaml")

	content := fmt.Sprintf(`server:
  base_url: %s
storage:
  data_dir: %s
  image_dir: %s
logging:
  file: %s
  level: DEBUG
`, testBaseURL, dataDir, filepath.Join(dataDir, "images"), filepath.Join(dir, "benthic.log"))
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0600))
	return configFile, dataDir
}

func seed(t *testing.T, dataDir string) {
	t.Helper()
	p, err := store.NewBoltPersister(dataDir, testBaseURL)
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Close()) }()

	require.NoError(t, p.SaveStreams([]domain.Stream{
		{ID: "mill", Name: "Mill Brook", Town: "Hartland", Watershed: "Ottauquechee"},
		{ID: "bog", Name: "Bog Creek", Favorite: true},
		{ID: "cold", Name: "Cold River", Town: "Walpole"},
	}))
	require.NoError(t, p.SaveInvertebrates([]domain.Invertebrate{
		{ID: "mayfly", CommonName: "Mayfly", Order: "Ephemeroptera", Sensitivity: 3, Images: []string{"mayfly.jpg"}},
		{ID: "leech", CommonName: "Leech", Sensitivity: 8},
	}))
	require.NoError(t, p.SaveAbout("Volunteer stream monitoring."))
}

func TestVersionCmd_JSON(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)

	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestParseTrigger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    trigger.Event
		wantErr bool
	}{
		{in: "", want: trigger.EventManual},
		{in: "manual", want: trigger.EventManual},
		{in: "startup", want: trigger.EventStartup},
		{in: "connectivity", want: trigger.EventConnectivity},
		{in: "cron", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseTrigger(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]search.Kind{
		"streams":       search.KindStream,
		"Stream":        search.KindStream,
		"invertebrates": search.KindInvertebrate,
		"bugs":          search.KindInvertebrate,
	} {
		got, err := parseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseKind("fish")
	assert.Error(t, err)
}

func TestSummaryError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		summary domain.RunSummary
		wantErr string
	}{
		{name: "succeeded", summary: domain.RunSummary{Status: domain.ExitSucceeded}},
		{name: "halted", summary: domain.RunSummary{Status: domain.ExitHalted}},
		{
			name:    "network",
			summary: domain.RunSummary{Status: domain.ExitFailedNetwork, Message: "connection refused"},
			wantErr: "connection refused",
		},
		{
			name:    "runtime without message",
			summary: domain.RunSummary{Status: domain.ExitFailedRuntime},
			wantErr: domain.ExitFailedRuntime.String(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := summaryError(tt.summary)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPrintEvents(t *testing.T) {
	t.Parallel()

	events := make(chan domain.Event, 8)
	events <- domain.Started{RunID: "r1"}
	events <- domain.StatusMessage{Stage: domain.StageRecordSync, Text: "Syncing streams and invertebrates"}
	events <- domain.Progress{Stage: domain.StageRecordSync, Done: 1, Total: 2, Item: "mill"}
	events <- domain.Progress{Stage: domain.StageRecordSync, Done: 2, Total: 2, Item: "bog", Err: errors.New("404 Not Found")}
	events <- domain.ImageSyncComplete{Downloaded: 1, Pending: 2}
	events <- domain.Finished{Status: domain.ExitSucceeded}
	close(events)

	var out bytes.Buffer
	printEvents(&out, events)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5, "progress without an error is not printed")
	assert.Equal(t, "Sync r1 started", lines[0])
	assert.Contains(t, lines[1], "Syncing streams and invertebrates")
	assert.Contains(t, lines[2], "skipped bog: 404 Not Found")
	assert.Equal(t, "Images: 1 of 2 downloaded", lines[3])
	assert.Equal(t, "Sync "+domain.ExitSucceeded.String(), lines[4])
}

func TestConfigInit_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := execute(t, "--config", path, "config", "init", "--base-url", testBaseURL, "--mode", "wifi_only")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "--config", path, "config", "init", "--base-url", testBaseURL)
	require.Error(t, err, "refuses to overwrite without --force")

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "base_url: "+testBaseURL)
	assert.Contains(t, out, "mode: wifi_only")
}

func TestConfigInit_RejectsRelativeURL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	_, err := execute(t, "--config", path, "config", "init", "--base-url", "field.example")
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestListCmd(t *testing.T) {
	t.Parallel()

	configFile, dataDir := writeConfig(t)
	seed(t, dataDir)

	out, err := execute(t, "--config", configFile, "list", "streams")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "bog"), "sorted by title")
	assert.Contains(t, lines[3], "Hartland (Ottauquechee)")

	out, err = execute(t, "--config", configFile, "list", "invertebrates", "--filter", "may", "--format", "json")
	require.NoError(t, err)
	var items []search.Item
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "mayfly", items[0].ID)
	assert.Equal(t, search.KindInvertebrate, items[0].Kind)
}

func TestShowCmd(t *testing.T) {
	t.Parallel()

	configFile, dataDir := writeConfig(t)
	seed(t, dataDir)

	out, err := execute(t, "--config", configFile, "show", "stream", "bog")
	require.NoError(t, err)
	assert.Contains(t, out, "Bog Creek [bog]")
	assert.Contains(t, out, "Favorite:  yes")

	out, err = execute(t, "--config", configFile, "show", "invertebrate", "Mayfly")
	require.NoError(t, err)
	assert.Contains(t, out, "Mayfly [mayfly]")
	assert.Contains(t, out, "Sensitivity:  3 (sensitive)")
	assert.Contains(t, out, "mayfly.jpg (missing)")

	_, err = execute(t, "--config", configFile, "show", "stream", "zzzz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStatusCmd(t *testing.T) {
	t.Parallel()

	configFile, dataDir := writeConfig(t)
	seed(t, dataDir)

	out, err := execute(t, "--config", configFile, "status", "--about")
	require.NoError(t, err)
	assert.Contains(t, out, "Streams:        3")
	assert.Contains(t, out, "Invertebrates:  2")
	assert.Contains(t, out, "Last sync:      never")
	assert.Contains(t, out, "Volunteer stream monitoring.")

	out, err = execute(t, "--config", configFile, "status", "--format", "json")
	require.NoError(t, err)
	var view statusView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, testBaseURL, view.BaseURL)
	assert.Equal(t, 3, view.Streams)
	assert.Nil(t, view.LastUpdate)
	assert.Empty(t, view.About)
}

func TestSyncCmd_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  file: "+filepath.Join(t.TempDir(), "l.log")+"\n"), 0600))

	_, err := execute(t, "--config", path, "sync", "--plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config init")
}
