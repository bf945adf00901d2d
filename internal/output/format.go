// Package output provides terminal output formatting utilities for the appkit CLI.
// This package is designed to have minimal dependencies to avoid import cycles.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// KeyValue is one row of a key/value table.
type KeyValue struct {
	Key   string
	Value string
}

// PrintKeyValueTable prints a titled two-column table, e.g. an update summary.
func PrintKeyValueTable(out io.Writer, title string, rows []KeyValue) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	width := 0
	for _, r := range rows {
		width = max(width, utf8.RuneCountInString(r.Key))
	}

	fmt.Fprintf(out, "\n%s\n", cyan(title))
	fmt.Fprintln(out, dim(strings.Repeat("─", max(utf8.RuneCountInString(title), width+12))))
	for _, r := range rows {
		fmt.Fprintf(out, "  %s  %s\n", padRight(r.Key, width), r.Value)
	}
}

// PrintTable prints rows under bold headers with columns padded to fit.
func PrintTable(out io.Writer, headers []string, rows [][]string) {
	bold := color.New(color.Bold).SprintFunc()

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i := range headers {
			if i < len(row) {
				widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
			}
		}
	}

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = bold(padRight(h, widths[i]))
	}
	fmt.Fprintln(out, strings.TrimRight(strings.Join(cells, "  "), " "))

	for _, row := range rows {
		for i := range headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			cells[i] = padRight(value, widths[i])
		}
		fmt.Fprintln(out, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

// PrintSuccess prints a green checkmark followed by message.
func PrintSuccess(out io.Writer, message string) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", green("✓"), message)
}

// PrintWarning prints a yellow warning line.
func PrintWarning(out io.Writer, message string) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", yellow("!"), message)
}

// PrintInfo prints a dimmed informational line.
func PrintInfo(out io.Writer, message string) {
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintln(out, dim(message))
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
