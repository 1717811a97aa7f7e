package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newFetchCmd(a *app) *cobra.Command {
	var showShape bool
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch a URL and print the normalized JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.fetcher.Fetch(a.ctx(cmd), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if showShape {
				a.log.Info("normalized response", "shape", resp.Shape)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(resp.Data)
		},
	}
	cmd.Flags().BoolVar(&showShape, "shape", false, "log the recognized payload shape")
	return cmd
}
