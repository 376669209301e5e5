// Package output provides terminal output helpers for the CLI: colored
// status lines, JSON dumps and aligned tables.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ANSI escape sequences. Color is skipped when stdout is not a terminal in
// the usual sense (NO_COLOR set).
const (
	reset  = "\033[0m"
	green  = "\033[32;1m"
	red    = "\033[31;1m"
	cyan   = "\033[36m"
	yellow = "\033[33m"
	bold   = "\033[1m"
)

func colorize(code, s string) string {
	if os.Getenv("NO_COLOR") != "" {
		return s
	}
	return code + s + reset
}

func Success(format string, a ...interface{}) {
	fmt.Println(colorize(green, "✓ "+fmt.Sprintf(format, a...)))
}

func Error(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, colorize(red, "✗ "+fmt.Sprintf(format, a...)))
}

func Info(format string, a ...interface{}) {
	fmt.Println(colorize(cyan, fmt.Sprintf(format, a...)))
}

func Warn(format string, a ...interface{}) {
	fmt.Println(colorize(yellow, "⚠ "+fmt.Sprintf(format, a...)))
}

// JSON pretty-prints v to stdout.
func JSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table renders rows with columns padded to the widest cell.
type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *Table) Render() {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for i, h := range t.headers {
		fmt.Fprintf(&b, "%-*s  ", widths[i], h)
	}
	fmt.Println(colorize(bold, strings.TrimRight(b.String(), " ")))

	for i, w := range widths {
		if i > 0 {
			fmt.Print("  ")
		}
		fmt.Print(strings.Repeat("-", w))
	}
	fmt.Println()

	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Printf("%-*s  ", widths[i], cell)
			}
		}
		fmt.Println()
	}
}
