package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"systemqa/internal/config"
)

func newConfigCommand(app *session) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Inspect or create the configuration file"}
	cmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(app), newConfigShowCommand(app))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var dest string
	var force bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample config",
		Annotations: skipConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := initTarget(dest)
			if err != nil {
				return err
			}
			if err := writeSample(target, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n"+
				"Set the storage bucket, queue, and gemini api_key (or export the matching environment variables) before running the worker.\n",
				target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dest, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&force, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

// initTarget resolves the init destination, defaulting to the XDG config path.
func initTarget(dest string) (string, error) {
	if dest = strings.TrimSpace(dest); dest == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return path, nil
	}
	path, err := config.ExpandPath(dest)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

func writeSample(target string, force bool) error {
	if !force {
		_, err := os.Stat(target)
		switch {
		case err == nil:
			return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("check config path: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := config.CreateSample(target); err != nil {
		return fmt.Errorf("create sample config: %w", err)
	}
	return nil
}

func newConfigValidateCommand(app *session) *cobra.Command {
	var worker bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the config and report problems",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if worker {
				if err := cfg.ValidateWorker(); err != nil {
					return err
				}
			}
			source := app.cfgPath
			if !app.cfgFound {
				source += " (not found, defaults used)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config path: %s\nConfiguration valid\n", source)
			return nil
		},
	}
	cmd.Flags().BoolVar(&worker, "worker", false, "Also require bucket, queue, and Gemini settings")
	return cmd
}

func newConfigShowCommand(app *session) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			shown := *cfg
			if !reveal {
				shown.AWS.SecretAccessKey = mask(shown.AWS.SecretAccessKey)
				shown.Gemini.APIKey = mask(shown.Gemini.APIKey)
			}
			if app.jsonOutput() {
				return writeJSON(cmd, shown)
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(shown)
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print secrets without redaction")
	return cmd
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
