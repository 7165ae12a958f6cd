package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/apictl/packages/core/config"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Format selects how list commands render their data.
type Format string

const (
	FormatTable Format = "table"
	FormatTSV   Format = "tsv"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an output format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatTSV, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// List is a configuration section that can render as rows. Rows come
// back sorted by name so output stays deterministic.
type List interface {
	Headers() []string
	Rows() [][]string

	// section exposes the underlying config section for yaml output.
	section() any
}

// RequestList lists the requests section.
type RequestList struct {
	cfg *config.Config
}

func NewRequestList(cfg *config.Config) *RequestList {
	return &RequestList{cfg: cfg}
}

func (l *RequestList) Headers() []string {
	return []string{"Name", "Method", "URL", "Description"}
}

func (l *RequestList) Rows() [][]string {
	names := l.cfg.RequestNames()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		req := l.cfg.Requests[name]
		rows = append(rows, []string{name, req.Method, req.URL, req.Description})
	}
	return rows
}

func (l *RequestList) section() any { return l.cfg.Requests }

// ContextList lists the contexts section with variable counts.
type ContextList struct {
	cfg *config.Config
}

func NewContextList(cfg *config.Config) *ContextList {
	return &ContextList{cfg: cfg}
}

func (l *ContextList) Headers() []string {
	return []string{"Name", "Variables"}
}

func (l *ContextList) Rows() [][]string {
	names := l.cfg.ContextNames()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, strconv.Itoa(len(l.cfg.Contexts[name]))})
	}
	return rows
}

func (l *ContextList) section() any { return l.cfg.Contexts }

// TestList lists the tests section with step counts.
type TestList struct {
	cfg *config.Config
}

func NewTestList(cfg *config.Config) *TestList {
	return &TestList{cfg: cfg}
}

func (l *TestList) Headers() []string {
	return []string{"Name", "Steps", "Description"}
}

func (l *TestList) Rows() [][]string {
	names := l.cfg.TestNames()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		test := l.cfg.Tests[name]
		rows = append(rows, []string{name, strconv.Itoa(len(test.Steps)), test.Description})
	}
	return rows
}

func (l *TestList) section() any { return l.cfg.Tests }

// Render writes the list in the requested format. Table output aligns
// columns and bolds the header row; tsv prints data rows only.
func Render(w io.Writer, l List, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(l.section()); err != nil {
			return err
		}
		return enc.Close()
	case FormatTSV:
		for _, row := range l.Rows() {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		return nil
	case FormatTable:
		renderTable(w, l)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func renderTable(w io.Writer, l List) {
	headers := l.Headers()
	rows := l.Rows()

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	bold := color.New(color.Bold).SprintFunc()

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = bold(padCell(h, widths[i], i == len(headers)-1))
	}
	fmt.Fprintln(w, strings.Join(cells, "  "))

	for _, row := range rows {
		for i, cell := range row {
			cells[i] = padCell(cell, widths[i], i == len(row)-1)
		}
		fmt.Fprintln(w, strings.Join(cells, "  "))
	}
}

// padCell right-pads to the column width, leaving the last column
// unpadded to avoid trailing spaces.
func padCell(s string, width int, last bool) string {
	if last || len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
