package app

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/benthic/benthic/internal/status"
)

type statusOptions struct {
	*rootOptions
	format string
	about  bool
}

// statusView is what `benthic status` reports
type statusView struct {
	BaseURL       string            `json:"base_url" yaml:"baseURL"`
	Streams       int               `json:"streams" yaml:"streams"`
	Invertebrates int               `json:"invertebrates" yaml:"invertebrates"`
	LastUpdate    *time.Time        `json:"last_update,omitempty" yaml:"lastUpdate,omitempty"`
	LastRun       *status.RunStatus `json:"last_run" yaml:"lastRun"`
	About         string            `json:"about,omitempty" yaml:"about,omitempty"`
}

func newStatusCmd(root *rootOptions) *cobra.Command {
	opts := &statusOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the local data and the outcome of the last sync",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.openEnv()
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			last, err := e.status.Load()
			if err != nil {
				return err
			}

			view := statusView{
				BaseURL:       e.cfg.Server.BaseURL,
				Streams:       e.streams.Len(),
				Invertebrates: e.invertebrates.Len(),
				LastRun:       last,
			}
			if t, ok := e.persister.LastUpdate(); ok {
				view.LastUpdate = &t
			}
			if opts.about {
				view.About, _ = e.persister.LoadAbout()
			}
			return writeStatus(cmd.OutOrStdout(), view, opts.format)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "", "Output format (json, yaml)")
	cmd.Flags().BoolVar(&opts.about, "about", false, "Include the saved about page text")
	return cmd
}

func writeStatus(w io.Writer, v statusView, format string) error {
	switch format {
	case "json":
		return writeJSON(w, v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	fmt.Fprintf(w, "Remote site:    %s\n", v.BaseURL)
	fmt.Fprintf(w, "Streams:        %d\n", v.Streams)
	fmt.Fprintf(w, "Invertebrates:  %d\n", v.Invertebrates)
	fmt.Fprintf(w, "Last update:    %s\n", formatTime(v.LastUpdate))

	run := v.LastRun
	if run == nil || run.Phase == status.PhaseNeverRun {
		fmt.Fprintln(w, "Last sync:      never")
	} else {
		fmt.Fprintf(w, "Last sync:      %s (%s)\n", run.Phase, formatTime(run.LastAttempt))
		if run.Outcome != "" {
			fmt.Fprintf(w, "Outcome:        %s\n", run.Outcome)
		}
		if run.Message != "" {
			fmt.Fprintf(w, "Message:        %s\n", run.Message)
		}
		if run.AttemptCount > 0 {
			fmt.Fprintf(w, "Failed runs:    %d since last success (%s)\n", run.AttemptCount, formatTime(run.LastSuccess))
		}
	}

	if v.About != "" {
		fmt.Fprintf(w, "\n%s\n", v.About)
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}
