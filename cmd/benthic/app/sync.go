package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/benthic/benthic/internal/domain"
	"github.com/benthic/benthic/internal/synchronizer"
	"github.com/benthic/benthic/internal/trigger"
	"github.com/benthic/benthic/internal/tui"
)

// LockFileName guards against two processes syncing the same data directory
const LockFileName = "sync.lock"

type syncOptions struct {
	*rootOptions
	plain   bool
	trigger string
}

func newSyncCmd(root *rootOptions) *cobra.Command {
	opts := &syncOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download streams, invertebrates and images from the remote site",
		Long: `sync pulls the stream and invertebrate catalogues, merges them into the local
database, downloads missing invertebrate images and refreshes the about page.
Press s to stop a running sync; data merged so far is kept.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd)
		},
	}

	flags := cmd.Flags()
	flags.String("base-url", "", "Remote site base URL")
	flags.Int("batch-size", 0, "Images downloaded between stop checks")
	flags.Duration("timeout", 0, "Timeout of a single request")
	flags.BoolVar(&opts.plain, "plain", false, "Print events as lines instead of the interactive view")
	flags.StringVar(&opts.trigger, "trigger", "manual", "What started this sync (manual, startup, connectivity)")

	for key, name := range map[string]string{
		"server.base_url": "base-url",
		"sync.batch_size": "batch-size",
		"sync.timeout":    "timeout",
	} {
		if err := root.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding %s: %v", name, err))
		}
	}
	return cmd
}

func parseTrigger(s string) (trigger.Event, error) {
	switch s {
	case "manual", "":
		return trigger.EventManual, nil
	case "startup":
		return trigger.EventStartup, nil
	case "connectivity":
		return trigger.EventConnectivity, nil
	default:
		return 0, fmt.Errorf("unknown trigger %q", s)
	}
}

func (o *syncOptions) run(cmd *cobra.Command) error {
	event, err := parseTrigger(o.trigger)
	if err != nil {
		return err
	}

	e, err := o.openEnv()
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Close(); err != nil {
			e.logger.Warn("failed to close local data", "error", err)
		}
	}()

	out := cmd.OutOrStdout()
	medium := trigger.DetectMedium()
	ok, reason := trigger.ShouldRun(e.cfg.Sync.Mode, event, medium)
	e.logger.Info("sync trigger", "event", event.String(), "medium", medium.String(), "run", ok, "reason", reason)
	if !ok {
		fmt.Fprintf(out, "Sync skipped: %s\n", reason)
		return nil
	}

	lock := flock.New(filepath.Join(e.cfg.Storage.DataDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to take sync lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s is locked", domain.ErrSyncInProgress, lock.Path())
	}
	defer func() {
		_ = lock.Unlock()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	meters, err := newRunMeters()
	if err != nil {
		return err
	}
	defer meters.shutdown(context.WithoutCancel(ctx), e.logger)

	s := synchronizer.New(synchronizer.Dependencies{
		Streams:       e.streams,
		Invertebrates: e.invertebrates,
		Images:        e.images,
		Persister:     e.persister,
		Server:        e.cfg.Server,
	},
		synchronizer.WithLogger(e.logger),
		synchronizer.WithMetrics(meters.sync),
		synchronizer.WithStatusStore(e.status),
		synchronizer.WithBatchSize(e.cfg.Sync.BatchSize),
		synchronizer.WithTimeout(e.cfg.Sync.Timeout),
	)

	if !s.Start(ctx) {
		return domain.ErrSyncInProgress
	}

	if o.interactive(out) {
		if _, err := tea.NewProgram(tui.NewSyncModel(s.Events(), s.Stop), tea.WithContext(ctx)).Run(); err != nil {
			// The run keeps going without a view; stop it and fall through
			e.logger.Error("TUI error", "error", err)
			s.Stop()
		}
	} else {
		printEvents(out, s.Events())
	}

	summary := s.WaitSummary()
	meters.log(context.WithoutCancel(ctx), e.logger)
	printSummary(out, summary)
	return summaryError(summary)
}

func (o *syncOptions) interactive(out io.Writer) bool {
	if o.plain {
		return false
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printEvents writes one line per notable event until the channel closes
func printEvents(w io.Writer, events <-chan domain.Event) {
	for ev := range events {
		switch ev := ev.(type) {
		case domain.Started:
			fmt.Fprintf(w, "Sync %s started\n", ev.RunID)
		case domain.StatusMessage:
			fmt.Fprintf(w, "[%s] %s\n", ev.Stage, ev.Text)
		case domain.Progress:
			if ev.Err != nil {
				fmt.Fprintf(w, "  skipped %s: %v\n", ev.Item, ev.Err)
			}
		case domain.ImageSyncComplete:
			fmt.Fprintf(w, "Images: %d of %d downloaded\n", ev.Downloaded, ev.Pending)
		case domain.AboutParsed:
			fmt.Fprintln(w, "About page updated")
		case domain.Finished:
			fmt.Fprintf(w, "Sync %s\n", ev.Status)
		}
	}
}

func printSummary(w io.Writer, s domain.RunSummary) {
	fmt.Fprintf(w, "%s in %s: streams %d (+%d/-%d), invertebrates %d (+%d/-%d), images %d downloaded, %d failed\n",
		s.Status, s.Duration().Round(time.Millisecond),
		s.Streams, s.StreamsMerged, s.StreamsRemoved,
		s.Invertebrates, s.InvertebratesMerged, s.InvertebratesRemoved,
		s.ImagesDownloaded, s.ImagesFailed)
}

// summaryError turns a failed run into a command error. A halted run is
// not an error.
func summaryError(s domain.RunSummary) error {
	switch s.Status {
	case domain.ExitSucceeded, domain.ExitHalted:
		return nil
	default:
		if s.Message != "" {
			return fmt.Errorf("sync %s: %s", s.Status, s.Message)
		}
		return fmt.Errorf("sync %s", s.Status)
	}
}
