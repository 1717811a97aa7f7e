package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GregMSThompson/finance-dashboard/internal/models"
	"github.com/GregMSThompson/finance-dashboard/internal/render"
	"github.com/GregMSThompson/finance-dashboard/internal/selection"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		mode       string
		fieldSpecs []string
		query      render.Query
		sortDesc   bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "render <url>",
		Short: "Render a URL the way a widget would display it",
		Long: `Render fetches a URL and projects it for a display mode.

Fields are given as path[:label[:format]], format one of text, currency,
percentage or number.

Examples:
  dashctl render URL --field c:Price:currency --field dp:Change:percentage
  dashctl render URL --mode table --search aapl --sort close --desc --page 2
  dashctl render URL --mode chart --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := parseFieldSpecs(fieldSpecs)
			if err != nil {
				return err
			}
			w := models.Widget{
				Name:           "dashctl",
				SourceURL:      args[0],
				DisplayMode:    mode,
				SelectedFields: selected,
			}
			if err := selection.PrepareImported(&w); err != nil {
				return err
			}

			resp, err := a.fetcher.Fetch(a.ctx(cmd), w.SourceURL)
			if err != nil {
				return err
			}
			query.Table.Sort.Desc = sortDesc
			query.Location = a.cfg.Location()
			view := render.Render(w, resp.Data, query)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			return printView(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", models.DisplayCard, "display mode: card, table, chart or candlestick")
	cmd.Flags().StringArrayVarP(&fieldSpecs, "field", "f", nil, "selected field as path[:label[:format]] (repeatable)")
	cmd.Flags().StringVar(&query.Table.Search, "search", "", "table search text")
	cmd.Flags().StringVar(&query.Table.Sort.Column, "sort", "", "table sort column")
	cmd.Flags().BoolVar(&sortDesc, "desc", false, "sort the table descending")
	cmd.Flags().IntVar(&query.Table.Page, "page", 1, "table page")
	cmd.Flags().BoolVar(&query.Descending, "newest-first", false, "chart points newest first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the view as JSON")
	return cmd
}

// parseFieldSpecs reads path[:label[:format]] flags. Paths may contain dots
// but not colons.
func parseFieldSpecs(specs []string) ([]models.SelectedField, error) {
	out := make([]models.SelectedField, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		f := models.SelectedField{Path: parts[0]}
		if len(parts) > 1 {
			f.Label = parts[1]
		}
		if len(parts) > 2 {
			f.Format = parts[2]
		}
		out = append(out, f)
	}
	return selection.NormalizeFields(out)
}

func printView(out io.Writer, view render.View) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	switch {
	case view.Card != nil:
		for _, item := range view.Card.Items {
			fmt.Fprintf(tw, "%s\t%s\n", item.Label, item.Value)
		}
	case view.Table != nil:
		t := view.Table
		labels := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			labels[i] = c.Label
		}
		fmt.Fprintln(tw, strings.Join(labels, "\t"))
		for _, row := range t.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		fmt.Fprintf(tw, "page %d of %d (%d rows)\n", t.Page, t.TotalPages, t.TotalRows)
	case view.Chart != nil:
		fmt.Fprintf(tw, "%s\t%s\n", view.Chart.TimeKey, view.Chart.ValueKey)
		for _, p := range view.Chart.Points {
			fmt.Fprintf(tw, "%s\t%g\n", p.Label, p.Value)
		}
	case view.Candlestick != nil:
		fmt.Fprintln(tw, "TIME\tOPEN\tHIGH\tLOW\tCLOSE")
		for _, c := range view.Candlestick.Candles {
			fmt.Fprintf(tw, "%s\t%g\t%s\t%s\t%s\n", c.Label, c.Open, optional(c.High), optional(c.Low), optional(c.Close))
		}
	}
	return tw.Flush()
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}
