package app

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/benthic/benthic/internal/search"
)

type listOptions struct {
	*rootOptions
	filter string
	format string
}

func newListCmd(root *rootOptions) *cobra.Command {
	opts := &listOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:       "list {streams|invertebrates}",
		Short:     "List the local streams or invertebrates",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"streams", "invertebrates"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}

			e, err := opts.openEnv()
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			svc := search.NewService(e.streams, e.invertebrates, e.logger)
			return writeItems(cmd.OutOrStdout(), listItems(svc, kind, opts.filter), opts.format)
		},
	}

	cmd.Flags().StringVarP(&opts.filter, "filter", "f", "", "Fuzzy filter on the title")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format (json)")
	return cmd
}

// parseKind accepts singular or plural collection names
func parseKind(s string) (search.Kind, error) {
	switch strings.ToLower(s) {
	case "stream", "streams":
		return search.KindStream, nil
	case "invertebrate", "invertebrates", "bug", "bugs":
		return search.KindInvertebrate, nil
	default:
		return "", fmt.Errorf("unknown collection %q (want streams or invertebrates)", s)
	}
}

// listItems returns every item of kind sorted by title, or the fuzzy
// matches of filter best first
func listItems(svc *search.Service, kind search.Kind, filter string) []search.Item {
	if filter != "" {
		results := svc.Filter(filter, kind)
		items := make([]search.Item, len(results))
		for i, r := range results {
			items[i] = r.Item
		}
		return items
	}

	idx := svc.Index(kind)
	items := make([]search.Item, 0, idx.Len())
	for i := range idx.Len() {
		items = append(items, idx.Item(i))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Title) < strings.ToLower(items[j].Title)
	})
	return items
}

func writeItems(w io.Writer, items []search.Item, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if items == nil {
			items = []search.Item{}
		}
		return enc.Encode(items)
	}

	if len(items) == 0 {
		fmt.Fprintln(w, "No matches.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDETAIL")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.ID, item.Title, item.Detail)
	}
	return tw.Flush()
}
