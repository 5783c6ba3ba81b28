package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benthic/benthic/internal/domain"
)

func feed(t *testing.T, m SyncModel, msgs ...tea.Msg) SyncModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(SyncModel)
		require.True(t, ok)
	}
	return m
}

func eventMsgs(events ...domain.Event) []tea.Msg {
	msgs := make([]tea.Msg, len(events))
	for i, ev := range events {
		msgs[i] = SyncEventMsg{Event: ev}
	}
	return msgs
}

func TestSyncModel_TracksStages(t *testing.T) {
	t.Parallel()

	m := feed(t, NewSyncModel(nil, nil), eventMsgs(
		domain.Started{RunID: "0123456789abcdef"},
		domain.StatusMessage{Stage: domain.StageRecordSync, Text: "Syncing streams and invertebrates"},
		domain.Progress{Stage: domain.StageRecordSync, Done: 3, Total: 10, Item: "mill"},
		domain.Progress{Stage: domain.StageRecordSync, Done: 4, Total: 10, Item: "bog", Err: errors.New("404")},
	)...)

	assert.Equal(t, stageActive, m.stages[domain.StageRecordSync])
	assert.Equal(t, 4, m.done)
	assert.Equal(t, 10, m.total)
	assert.Equal(t, 1, m.failures)

	view := m.View()
	assert.Contains(t, view, "01234567")
	assert.Contains(t, view, "Syncing streams and invertebrates")
	assert.Contains(t, view, "4/10")
	assert.Contains(t, view, "1 item(s) skipped")

	m = feed(t, m, eventMsgs(
		domain.StatusMessage{Stage: domain.StageMediaSync, Text: "Syncing invertebrate images"},
		domain.ImageSyncComplete{Downloaded: 2, Pending: 3},
	)...)
	assert.Equal(t, stageDone, m.stages[domain.StageRecordSync])
	assert.Equal(t, stageActive, m.stages[domain.StageMediaSync])
	assert.Zero(t, m.total, "progress resets on a new stage")
	assert.Contains(t, m.View(), "Images: 2 of 3 downloaded")
}

func TestSyncModel_Outcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		finished  domain.Finished
		wantStage stageState
		wantText  string
	}{
		{name: "succeeded", finished: domain.Finished{Status: domain.ExitSucceeded}, wantStage: stageDone, wantText: "Sync complete"},
		{name: "halted", finished: domain.Finished{Status: domain.ExitHalted}, wantStage: stageDone, wantText: "HALTED"},
		{
			name:      "network",
			finished:  domain.Finished{Status: domain.ExitFailedNetwork, Err: errors.New("stream list: connection refused")},
			wantStage: stageFailed,
			wantText:  "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := feed(t, NewSyncModel(nil, nil), eventMsgs(
				domain.StatusMessage{Stage: domain.StageRecordSync, Text: "Syncing"},
				tt.finished,
			)...)

			result, ok := m.Result()
			require.True(t, ok)
			assert.Equal(t, tt.finished.Status, result.Status)
			assert.Equal(t, tt.wantStage, m.stages[domain.StageRecordSync])
			assert.Contains(t, m.View(), tt.wantText)
		})
	}
}

func TestSyncModel_StopKey(t *testing.T) {
	t.Parallel()

	stops := 0
	m := NewSyncModel(nil, func() { stops++ })

	m = feed(t, m,
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")},
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")},
	)
	assert.Equal(t, 1, stops, "stop is requested once")
	assert.True(t, m.stopping)
	assert.Contains(t, m.View(), "Stopping")

	// Status messages no longer overwrite the stopping notice
	m = feed(t, m, SyncEventMsg{Event: domain.StatusMessage{Stage: domain.StageFinalizing, Text: "Saving data"}})
	assert.Contains(t, m.View(), "Stopping")
}

func TestSyncModel_QuitBeforeAndAfterFinish(t *testing.T) {
	t.Parallel()

	stops := 0
	m := NewSyncModel(nil, func() { stops++ })

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(SyncModel)
	assert.Nil(t, cmd, "waits for the run to finish")
	assert.Equal(t, 1, stops)

	m = feed(t, m, SyncEventMsg{Event: domain.Finished{Status: domain.ExitHalted}})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSyncModel_ClosedChannelQuits(t *testing.T) {
	t.Parallel()

	_, cmd := NewSyncModel(nil, nil).Update(SyncClosedMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestListenCmd(t *testing.T) {
	t.Parallel()

	ch := make(chan domain.Event, 2)
	ch <- domain.Started{RunID: "r1"}
	close(ch)

	msg := ListenCmd(ch)()
	ev, ok := msg.(SyncEventMsg)
	require.True(t, ok)
	assert.Equal(t, domain.Started{RunID: "r1"}, ev.Event)
	require.NotNil(t, ev.NextCmd)

	assert.IsType(t, SyncClosedMsg{}, ev.NextCmd())
}

func TestSyncModel_WindowResize(t *testing.T) {
	t.Parallel()

	m := feed(t, NewSyncModel(nil, nil), tea.WindowSizeMsg{Width: 200, Height: 40})
	assert.Equal(t, maxBarWidth, m.bar.Width)

	m = feed(t, m, tea.WindowSizeMsg{Width: 20, Height: 40})
	assert.Equal(t, 10, m.bar.Width)
}
