package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GregMSThompson/finance-dashboard/internal/jsondoc"
	"github.com/GregMSThompson/finance-dashboard/internal/selection"
)

func newFieldsCmd(a *app) *cobra.Command {
	var (
		search     string
		arraysOnly bool
	)
	cmd := &cobra.Command{
		Use:   "fields <url>",
		Short: "List the field paths a URL offers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session := selection.NewSession(a.fetcher)
			if err := session.Test(a.ctx(cmd), args[0]); err != nil {
				return err
			}
			session.SetSearch(search)
			session.SetArraysOnly(arraysOnly)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tARRAY\tSAMPLE")
			for _, f := range session.Candidates() {
				fmt.Fprintf(tw, "%s\t%t\t%s\n", f.Path, f.IsArray, sample(f.Value))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only paths containing this text")
	cmd.Flags().BoolVar(&arraysOnly, "arrays", false, "only array fields")
	return cmd
}

const maxSample = 40

func sample(v any) string {
	if arr, ok := v.([]any); ok {
		return fmt.Sprintf("[%d items]", len(arr))
	}
	s := jsondoc.String(v)
	if len(s) > maxSample {
		s = s[:maxSample] + "..."
	}
	return s
}
