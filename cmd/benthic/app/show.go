package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benthic/benthic/internal/domain"
	"github.com/benthic/benthic/internal/merge"
	"github.com/benthic/benthic/internal/search"
)

type showOptions struct {
	*rootOptions
	format string
}

// imageView is one image reference of an invertebrate and its local copy
type imageView struct {
	Remote string `json:"remote"`
	Local  string `json:"local"`
	Stored bool   `json:"stored"`
}

func newShowCmd(root *rootOptions) *cobra.Command {
	opts := &showOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "show {stream|invertebrate} QUERY",
		Short: "Show one stream or invertebrate",
		Long: `show prints a single record. QUERY is an identifier or a title; titles are
matched fuzzily and the closest one wins.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			query := strings.Join(args[1:], " ")

			e, err := opts.openEnv()
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			item, err := search.NewService(e.streams, e.invertebrates, e.logger).Resolve(kind, query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch kind {
			case search.KindStream:
				st, ok := e.streams.Get(item.ID)
				if !ok {
					return fmt.Errorf("stream %q: %w", item.ID, domain.ErrNotFound)
				}
				return writeStream(out, st, opts.format)
			default:
				inv, ok := e.invertebrates.Get(item.ID)
				if !ok {
					return fmt.Errorf("invertebrate %q: %w", item.ID, domain.ErrNotFound)
				}
				views := imageViews(cmd.Context(), inv, func(ctx context.Context, name string) bool {
					ok, err := e.images.Exists(ctx, name)
					if err != nil {
						e.logger.Warn("failed to check image", "name", name, "error", err)
					}
					return ok
				})
				return writeInvertebrate(out, inv, views, opts.format)
			}
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "", "Output format (json)")
	return cmd
}

func imageViews(ctx context.Context, inv domain.Invertebrate, exists func(context.Context, string) bool) []imageView {
	views := make([]imageView, 0, len(inv.Images))
	for _, img := range inv.Images {
		local := merge.LocalName(img)
		views = append(views, imageView{Remote: img, Local: local, Stored: exists(ctx, local)})
	}
	return views
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStream(w io.Writer, st domain.Stream, format string) error {
	if format == "json" {
		return writeJSON(w, st)
	}

	fmt.Fprintf(w, "%s [%s]\n", st.Name, st.ID)
	if loc := st.Location(); loc != "" {
		fmt.Fprintf(w, "Location:  %s\n", loc)
	}
	if st.Latitude != 0 || st.Longitude != 0 {
		fmt.Fprintf(w, "Position:  %.5f, %.5f\n", st.Latitude, st.Longitude)
	}
	if st.Favorite {
		fmt.Fprintln(w, "Favorite:  yes")
	}
	if st.Description != "" {
		fmt.Fprintf(w, "\n%s\n", st.Description)
	}
	return nil
}

func writeInvertebrate(w io.Writer, inv domain.Invertebrate, images []imageView, format string) error {
	if format == "json" {
		return writeJSON(w, struct {
			domain.Invertebrate
			ImageFiles []imageView `json:"image_files"`
		}{inv, images})
	}

	fmt.Fprintf(w, "%s [%s]\n", inv.DisplayName(), inv.ID)
	if inv.Order != "" || inv.Family != "" {
		fmt.Fprintf(w, "Taxonomy:     %s\n", strings.Trim(inv.Order+" / "+inv.Family, " /"))
	}
	fmt.Fprintf(w, "Sensitivity:  %d (%s)\n", inv.Sensitivity, inv.SensitivityClass())
	for _, img := range images {
		state := "missing"
		if img.Stored {
			state = "stored as " + img.Local
		}
		fmt.Fprintf(w, "Image:        %s (%s)\n", img.Remote, state)
	}
	if inv.Description != "" {
		fmt.Fprintf(w, "\n%s\n", inv.Description)
	}
	return nil
}
