package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"systemqa/internal/daemon"
	"systemqa/internal/daemonrun"
)

func newReapCommand(app *session) *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Return manuals with expired leases to WAITING and re-enqueue them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			return app.withServices(cmd.Context(), func(svc *daemonrun.Services) error {
				reaper := daemon.NewReaper(svc.Store, svc.Producer, cfg.ReapInterval(), app.logger())
				ids, err := reaper.Sweep(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					fmt.Fprintln(out, "No expired leases")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintf(out, "Re-enqueued %s\n", id)
				}
				return nil
			})
		},
	}
}
