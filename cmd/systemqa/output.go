package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"systemqa/internal/manuals"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

type column struct {
	title string
	right bool
}

func textCol(title string) column { return column{title: title} }

func numCol(title string) column { return column{title: title, right: true} }

// renderTable draws rows under columns. A non-nil footer is rendered below a
// separator, which stats uses for totals.
func renderTable(columns []column, rows [][]string, footer []string) string {
	if len(columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	configs := make([]table.ColumnConfig, len(columns))
	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c.title
		align := text.AlignLeft
		if c.right {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignFooter: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)
	for _, row := range rows {
		tw.AppendRow(padRow(row, len(columns)))
	}
	if footer != nil {
		tw.AppendFooter(padRow(footer, len(columns)))
	}
	return tw.Render()
}

func padRow(values []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		if i < len(values) {
			row[i] = values[i]
		} else {
			row[i] = ""
		}
	}
	return row
}

type statusKind int

const (
	statusOK statusKind = iota
	statusWarn
	statusError
)

const statusLabelWidth = 22

var statusStyles = map[statusKind]struct {
	label  string
	colors text.Colors
}{
	statusOK:    {"OK", text.Colors{text.FgGreen}},
	statusWarn:  {"WARN", text.Colors{text.FgYellow}},
	statusError: {"ERROR", text.Colors{text.FgRed}},
}

// renderStatusLine prints "  Label:   [OK] detail".
func renderStatusLine(label string, kind statusKind, detail string, colorize bool) string {
	style := statusStyles[kind]
	status := "[" + style.label + "]"
	if detail != "" {
		status += " " + detail
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", status)
	if colorize {
		return style.colors.Sprint(line)
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	line := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(line))
	if colorize {
		bold := text.Colors{text.Bold, text.FgBlue}
		return []string{bold.Sprint(line), bold.Sprint(rule)}
	}
	return []string{line, rule}
}

// manualStatus colours a processing status for terminal tables.
func manualStatus(status manuals.Status, colorize bool) string {
	if !colorize {
		return string(status)
	}
	switch status {
	case manuals.StatusSuccess:
		return text.FgGreen.Sprint(status)
	case manuals.StatusFail:
		return text.FgRed.Sprint(status)
	case manuals.StatusProcessing:
		return text.FgYellow.Sprint(status)
	default:
		return string(status)
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
