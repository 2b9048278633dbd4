package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	app := &session{}

	root := &cobra.Command{
		Use:   "systemqa",
		Short: "Manual screenshot and title worker",
		Long: "systemqa consumes manual ids from SQS, captures one screenshot per step\n" +
			"from the manual's recording, and generates a title with Gemini.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !needsConfig(cmd) {
				return nil
			}
			_, err := app.loadConfig()
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&app.configFlag, "config", "c", "", "Configuration file path")
	flags.BoolVar(&app.jsonFlag, "json", false, "Emit JSON instead of tables")

	root.AddGroup(
		&cobra.Group{ID: "jobs", Title: "Job commands:"},
		&cobra.Group{ID: "ops", Title: "Operations:"},
	)
	for _, sub := range []*cobra.Command{
		newWorkerCommand(app),
		newProcessCommand(app),
		newEnqueueCommand(app),
		newManualsCommand(app),
		newReapCommand(app),
	} {
		sub.GroupID = "jobs"
		root.AddCommand(sub)
	}
	for _, sub := range []*cobra.Command{
		newStatsCommand(app),
		newPreflightCommand(app),
		newLogsCommand(app),
		newTestNotifyCommand(app),
		newConfigCommand(app),
	} {
		sub.GroupID = "ops"
		root.AddCommand(sub)
	}
	return root
}
