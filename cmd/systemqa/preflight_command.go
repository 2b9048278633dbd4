package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"systemqa/internal/daemonrun"
	"systemqa/internal/preflight"
)

func newPreflightCommand(app *session) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, media tools, Gemini and the job queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			probes := preflight.Probes{Offline: offline}
			if !offline {
				svc, err := daemonrun.NewServices(cmd.Context(), cfg, app.logger())
				if err != nil {
					return err
				}
				defer svc.Close()
				probes.Queue = svc.QueueDepth
			}
			results := preflight.RunAll(cmd.Context(), cfg, probes)
			if app.jsonOutput() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				renderPreflight(cmd, results)
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Only run local checks")
	return cmd
}

func renderPreflight(cmd *cobra.Command, results []preflight.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Preflight", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, r := range results {
		kind := statusOK
		switch {
		case !r.Passed && r.Optional:
			kind = statusWarn
		case !r.Passed:
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
}
