// Package tui renders a live view of a sync run in the terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/benthic/benthic/internal/domain"
	"github.com/benthic/benthic/internal/tui/styles"
)

const (
	defaultBarWidth = 40
	maxBarWidth     = 60
)

// stageState is the checklist state of one stage
type stageState int

const (
	stagePending stageState = iota
	stageActive
	stageDone
	stageFailed
)

// trackedStages are the stages shown in the checklist, in run order
var trackedStages = []struct {
	stage domain.Stage
	label string
}{
	{domain.StageRecordSync, "Streams and invertebrates"},
	{domain.StageMediaSync, "Invertebrate images"},
	{domain.StageInfoSync, "About page"},
	{domain.StageFinalizing, "Saving"},
}

// SyncModel is the Bubble Tea model of the sync progress view
type SyncModel struct {
	events <-chan domain.Event
	stop   func()
	keys   KeyMap

	spinner spinner.Model
	bar     progress.Model

	runID    string
	stage    domain.Stage
	stages   map[domain.Stage]stageState
	status   string
	done     int
	total    int
	failures int

	downloaded int
	pending    int
	imagesDone bool
	about      string

	finished *domain.Finished
	stopping bool
	quitting bool
}

// NewSyncModel creates the view over a run's events. stop is called when
// the user asks to halt the run.
func NewSyncModel(events <-chan domain.Event, stop func()) SyncModel {
	if stop == nil {
		stop = func() {}
	}
	return SyncModel{
		events: events,
		stop:   stop,
		keys:   DefaultKeyMap(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.SpinnerStyle),
		),
		bar: progress.New(
			progress.WithGradient(styles.ProgressStart, styles.ProgressEnd),
			progress.WithWidth(defaultBarWidth),
			progress.WithoutPercentage(),
		),
		stages: make(map[domain.Stage]stageState),
		status: "Starting sync...",
	}
}

// Init starts the spinner and the event pump
func (m SyncModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, ListenCmd(m.events))
}

// Update handles input, spinner ticks and run events
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-24, 10), maxBarWidth)
		return m, nil

	case spinner.TickMsg:
		if m.finished != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SyncEventMsg:
		m = m.apply(msg.Event)
		return m, msg.NextCmd

	case SyncClosedMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m SyncModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.finished != nil {
			m.quitting = true
			return m, tea.Quit
		}
		// Quit once the run reports Finished and the channel closes
		m = m.requestStop()
		return m, nil

	case key.Matches(msg, m.keys.Stop):
		if m.finished == nil {
			m = m.requestStop()
		}
		return m, nil
	}
	return m, nil
}

func (m SyncModel) requestStop() SyncModel {
	if !m.stopping {
		m.stopping = true
		m.status = "Stopping after the current item..."
		m.stop()
	}
	return m
}

// apply folds one event into the model
func (m SyncModel) apply(ev domain.Event) SyncModel {
	switch ev := ev.(type) {
	case domain.Started:
		m.runID = ev.RunID

	case domain.StatusMessage:
		if ev.Stage != m.stage {
			if m.stages[m.stage] == stageActive {
				m.stages[m.stage] = stageDone
			}
			m.stage = ev.Stage
			m.stages[ev.Stage] = stageActive
			m.done, m.total = 0, 0
		}
		if !m.stopping {
			m.status = ev.Text
		}

	case domain.Progress:
		if ev.Stage == m.stage {
			m.done, m.total = ev.Done, ev.Total
		}
		if ev.Err != nil {
			m.failures++
		}

	case domain.ImageSyncComplete:
		m.downloaded, m.pending = ev.Downloaded, ev.Pending
		m.imagesDone = true

	case domain.AboutParsed:
		m.about = ev.Text

	case domain.Finished:
		m.finished = &ev
		if m.stages[m.stage] == stageActive {
			if ev.Status == domain.ExitSucceeded || ev.Status == domain.ExitHalted {
				m.stages[m.stage] = stageDone
			} else {
				m.stages[m.stage] = stageFailed
			}
		}
	}
	return m
}

// Result returns the terminal event once the run has finished
func (m SyncModel) Result() (domain.Finished, bool) {
	if m.finished == nil {
		return domain.Finished{}, false
	}
	return *m.finished, true
}

// View renders the sync progress panel
func (m SyncModel) View() string {
	var b strings.Builder

	title := styles.TitleStyle.Render("benthic sync")
	if m.runID != "" {
		title += " " + styles.DimStyle.Render(shortID(m.runID))
	}
	b.WriteString(title + "\n\n")

	for _, ts := range trackedStages {
		b.WriteString(m.renderStage(ts.stage, ts.label) + "\n")
	}
	b.WriteString("\n")

	if m.finished == nil {
		b.WriteString(m.spinner.View() + " " + styles.SubtitleStyle.Render(m.status) + "\n")
		if m.total > 0 {
			pct := float64(m.done) / float64(m.total)
			counter := styles.DimStyle.Render(fmt.Sprintf(" %d/%d", m.done, m.total))
			b.WriteString(m.bar.ViewAs(pct) + counter + "\n")
		}
	} else {
		b.WriteString(m.renderOutcome() + "\n")
	}

	if m.failures > 0 {
		b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("%d item(s) skipped", m.failures)) + "\n")
	}
	if m.imagesDone {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("Images: %d of %d downloaded", m.downloaded, m.pending)) + "\n")
	}

	if m.finished == nil {
		b.WriteString("\n" + m.renderHelp())
	}

	panel := styles.PanelStyle
	if m.finished == nil {
		panel = styles.ActivePanelStyle
	}
	return panel.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func (m SyncModel) renderStage(stage domain.Stage, label string) string {
	switch m.stages[stage] {
	case stageActive:
		return styles.ActiveMark + " " + styles.AccentStyle.Render(label)
	case stageDone:
		return styles.DoneMark + " " + label
	case stageFailed:
		return styles.FailedMark + " " + styles.ErrorStyle.Render(label)
	default:
		return styles.PendingMark + " " + styles.DimStyle.Render(label)
	}
}

func (m SyncModel) renderOutcome() string {
	f := m.finished
	switch f.Status {
	case domain.ExitSucceeded:
		return styles.BadgeStyle.Render("SYNCED") + " " + styles.SuccessStyle.Render("Sync complete")
	case domain.ExitHalted:
		return styles.DimBadgeStyle.Render("HALTED") + " " + styles.DimStyle.Render("Sync stopped; merged data was kept")
	default:
		line := styles.ErrorBadgeStyle.Render(strings.ToUpper(f.Status.String()))
		if f.Err != nil {
			line += " " + styles.ErrorStyle.Render(f.Err.Error())
		}
		return line
	}
}

func (m SyncModel) renderHelp() string {
	var parts []string
	for _, k := range []key.Binding{m.keys.Stop, m.keys.Quit} {
		h := k.Help()
		parts = append(parts, styles.AccentStyle.Render(h.Key)+styles.DimStyle.Render(" "+h.Desc))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, styles.DimStyle.Render("  ·  ")))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
