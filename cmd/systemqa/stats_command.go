package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"systemqa/internal/api"
	"systemqa/internal/manuals"
)

func newStatsCommand(app *session) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show manual counts per processing status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(func(store *manuals.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if app.jsonOutput() {
					return writeJSON(cmd, api.FromStats(stats, nil))
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(manuals.AllStatuses()))
				for _, status := range manuals.AllStatuses() {
					rows = append(rows, []string{manualStatus(status, colorize), strconv.Itoa(stats.Counts[status])})
				}
				fmt.Fprintln(out, renderTable(
					[]column{textCol("Status"), numCol("Manuals")},
					rows,
					[]string{"Total", strconv.Itoa(stats.Total())},
				))
				if stats.Expired > 0 {
					fmt.Fprintln(out, renderStatusLine("Expired leases", statusWarn,
						fmt.Sprintf("%d (run 'systemqa reap')", stats.Expired), colorize))
				}
				return nil
			})
		},
	}
}
