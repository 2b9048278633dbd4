package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"systemqa/internal/api"
	"systemqa/internal/frames"
	"systemqa/internal/manuals"
)

func newManualsCommand(app *session) *cobra.Command {
	manualsCmd := &cobra.Command{
		Use:   "manuals",
		Short: "Inspect and create manuals",
	}
	manualsCmd.AddCommand(newManualsListCommand(app))
	manualsCmd.AddCommand(newManualsShowCommand(app))
	manualsCmd.AddCommand(newManualsCreateCommand(app))
	return manualsCmd
}

func newManualsListCommand(app *session) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List manuals, optionally filtered by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]manuals.Status, 0, len(statusFlags))
			for _, raw := range statusFlags {
				status, ok := manuals.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}
			return app.withStore(func(store *manuals.Store) error {
				list, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if app.jsonOutput() {
					return writeJSON(cmd, api.FromManuals(list))
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No manuals")
					return nil
				}
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(list))
				for _, m := range list {
					rows = append(rows, []string{
						m.ID,
						manualStatus(m.ProcessingStatus, colorize),
						truncate(m.Title, 40),
						m.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{textCol("ID"), textCol("Status"), textCol("Title"), textCol("Updated")},
					rows,
					nil,
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (WAITING, PROCESSING, SUCCESS, FAIL)")
	return cmd
}

func newManualsShowCommand(app *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <manual-id>",
		Short: "Show a manual and its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(func(store *manuals.Store) error {
				manual, err := store.MustGet(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				return renderManual(cmd, app, manual)
			})
		},
	}
}

// manualInput is the file format accepted by "manuals create".
type manualInput struct {
	Title     string `json:"title"`
	VideoPath string `json:"videoPath"`
	Steps     []struct {
		Description string          `json:"description"`
		Instruction string          `json:"instruction"`
		Metadata    json.RawMessage `json:"metadata"`
	} `json:"steps"`
}

func newManualsCreateCommand(app *session) *cobra.Command {
	var fromPath string
	var enqueue bool

	cmd := &cobra.Command{
		Use:   "create --from <file|->",
		Short: "Create a WAITING manual from a JSON description",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readManualInput(cmd, fromPath)
			if err != nil {
				return err
			}
			var created *manuals.Manual
			if err := app.withStore(func(store *manuals.Store) error {
				created, err = store.Create(cmd.Context(), input)
				return err
			}); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if enqueue {
				if err := enqueueManuals(cmd, app, []string{created.ID}); err != nil {
					return fmt.Errorf("manual %s created but not enqueued: %w", created.ID, err)
				}
			}
			if app.jsonOutput() {
				return writeJSON(cmd, api.FromManual(created))
			}
			fmt.Fprintf(out, "Created manual %s with %d steps\n", created.ID, len(created.Steps))
			return nil
		},
	}
	cmd.Flags().StringVarP(&fromPath, "from", "f", "", "JSON file describing the manual (- for stdin)")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Send a job message after creating the manual")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func readManualInput(cmd *cobra.Command, path string) (manuals.NewManual, error) {
	var reader io.Reader
	if strings.TrimSpace(path) == "-" {
		reader = cmd.InOrStdin()
	} else {
		file, err := os.Open(path)
		if err != nil {
			return manuals.NewManual{}, fmt.Errorf("open manual file: %w", err)
		}
		defer file.Close()
		reader = file
	}

	var input manualInput
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		return manuals.NewManual{}, fmt.Errorf("decode manual file: %w", err)
	}
	if len(input.Steps) == 0 {
		return manuals.NewManual{}, errors.New("manual needs at least one step")
	}

	out := manuals.NewManual{Title: input.Title, VideoPath: strings.TrimSpace(input.VideoPath)}
	for i, step := range input.Steps {
		metadata := strings.TrimSpace(string(step.Metadata))
		if metadata == "null" {
			metadata = ""
		}
		if _, _, err := frames.ParseActionAt(metadata); err != nil {
			return manuals.NewManual{}, fmt.Errorf("step %d: %w", i+1, err)
		}
		out.Steps = append(out.Steps, manuals.NewStep{
			Description: step.Description,
			Instruction: step.Instruction,
			Metadata:    metadata,
		})
	}
	return out, nil
}

func renderManual(cmd *cobra.Command, app *session, manual *manuals.Manual) error {
	if app.jsonOutput() {
		return writeJSON(cmd, api.FromManual(manual))
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Manual:  %s\n", manual.ID)
	fmt.Fprintf(out, "Title:   %s\n", manual.Title)
	fmt.Fprintf(out, "Status:  %s\n", manual.ProcessingStatus)
	fmt.Fprintf(out, "Video:   %s\n", valueOrDash(manual.VideoPath))
	if manual.LeaseExpiresAt != nil {
		fmt.Fprintf(out, "Lease:   %s\n", manual.LeaseExpiresAt.Local().Format("2006-01-02 15:04:05"))
	}

	rows := make([][]string, 0, len(manual.Steps))
	for _, step := range manual.Steps {
		at := "-"
		if offset, ok, err := frames.ParseActionAt(step.Metadata); err == nil && ok {
			at = frames.FormatTimestamp(offset)
		} else if err != nil {
			at = "invalid"
		}
		rows = append(rows, []string{
			strconv.Itoa(step.StepOrder),
			at,
			truncate(step.Description, 48),
			valueOrDash(step.ImagePath),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]column{numCol("#"), numCol("Action At"), textCol("Description"), textCol("Image")},
		rows,
		nil,
	))
	return nil
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-1]) + "…"
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
