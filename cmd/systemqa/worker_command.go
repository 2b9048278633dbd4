package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"systemqa/internal/daemonrun"
	"systemqa/internal/manuals"
)

func newWorkerCommand(app *session) *cobra.Command {
	var logLevel string
	var development bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume manual jobs from the queue until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:      logLevel,
				Development:   development,
				SkipPreflight: skipPreflight,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level")
	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in logs")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip startup readiness checks")
	return cmd
}

func newProcessCommand(app *session) *cobra.Command {
	return &cobra.Command{
		Use:   "process <manual-id>",
		Short: "Run the screenshot and title pipeline for one manual without the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return app.withServices(cmd.Context(), func(svc *daemonrun.Services) error {
				if err := svc.Handler.Process(cmd.Context(), id); err != nil {
					return err
				}
				manual, err := svc.Store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if manual == nil {
					return fmt.Errorf("manual %s not found", id)
				}
				return renderManual(cmd, app, manual)
			})
		},
	}
}

func newEnqueueCommand(app *session) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <manual-id>...",
		Short: "Send job messages for WAITING manuals",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return enqueueManuals(cmd, app, args)
		},
	}
}

func enqueueManuals(cmd *cobra.Command, app *session, ids []string) error {
	return app.withServices(cmd.Context(), func(svc *daemonrun.Services) error {
		out := cmd.ErrOrStderr()
		if !app.jsonOutput() {
			out = cmd.OutOrStdout()
		}
		for _, raw := range ids {
			id := strings.TrimSpace(raw)
			manual, err := svc.Store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if manual == nil {
				return fmt.Errorf("manual %s not found", id)
			}
			if manual.ProcessingStatus != manuals.StatusWaiting {
				fmt.Fprintf(out, "Skipped %s (%s)\n", id, manual.ProcessingStatus)
				continue
			}
			messageID, err := svc.Producer.Send(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Enqueued %s (message %s)\n", id, messageID)
		}
		return nil
	})
}
