// Package reportfmt writes coverage reports as text, tables, JSON or YAML.
package reportfmt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/foliage/pkg/coverage"
)

// Output formats.
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ErrUnknownFormat is returned for a format outside the supported set.
var ErrUnknownFormat = errors.New("unknown output format")

const percentScale = 100

// Options controls report output.
type Options struct {
	Format string
	Color  bool
}

// FileReport is the serialized form of one report.
type FileReport struct {
	File        string                `json:"file"                  yaml:"file"`
	ParseError  string                `json:"parse_error,omitempty" yaml:"parse_error,omitempty"`
	Diagnostics []coverage.Diagnostic `json:"diagnostics"           yaml:"diagnostics"`
	Summary     coverage.Summary      `json:"summary"               yaml:"summary"`
}

// Document is the serialized form of a run over several reports.
type Document struct {
	Reports []FileReport     `json:"reports" yaml:"reports"`
	Summary coverage.Summary `json:"summary" yaml:"summary"`
}

// Write renders reports to w in the format named by opts.
func Write(w io.Writer, reports []*coverage.Report, opts Options) error {
	switch opts.Format {
	case FormatText, "":
		return writeText(w, reports, opts.Color)
	case FormatTable:
		return writeTable(w, reports)
	case FormatJSON:
		return writeJSON(w, reports)
	case FormatYAML:
		return writeYAML(w, reports)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

// NewDocument builds the serialized form of reports.
func NewDocument(reports []*coverage.Report) Document {
	doc := Document{Reports: make([]FileReport, 0, len(reports))}

	for _, rep := range reports {
		fr := FileReport{
			File:        rep.File,
			Diagnostics: rep.Diagnostics,
			Summary:     rep.Summary(),
		}

		if fr.Diagnostics == nil {
			fr.Diagnostics = []coverage.Diagnostic{}
		}

		if rep.ParseErr != nil {
			fr.ParseError = rep.ParseErr.Error()
		}

		doc.Reports = append(doc.Reports, fr)
	}

	doc.Summary = Total(reports)

	return doc
}

// Total sums the summaries of reports.
func Total(reports []*coverage.Report) coverage.Summary {
	var total coverage.Summary

	for _, rep := range reports {
		sum := rep.Summary()

		total.BranchPoints += sum.BranchPoints
		total.Covered += sum.Covered
		total.Outcomes += sum.Outcomes
		total.SeenOutcomes += sum.SeenOutcomes
		total.Uncovered += sum.Uncovered
	}

	total.CoveragePct = percentScale

	if total.Outcomes > 0 {
		total.CoveragePct = float64(total.SeenOutcomes) * percentScale / float64(total.Outcomes)
	}

	return total
}

// SummaryLine renders a one-line summary with thousands separators.
func SummaryLine(sum coverage.Summary) string {
	return fmt.Sprintf("%s branch points, %s fully covered, %s/%s outcomes (%.1f%%)",
		humanize.Comma(int64(sum.BranchPoints)),
		humanize.Comma(int64(sum.Covered)),
		humanize.Comma(int64(sum.SeenOutcomes)),
		humanize.Comma(int64(sum.Outcomes)),
		sum.CoveragePct,
	)
}

func newColor(enabled bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)

	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}

	return c
}

func writeText(w io.Writer, reports []*coverage.Report, useColor bool) error {
	warn := newColor(useColor, color.FgYellow)
	fail := newColor(useColor, color.FgRed)
	pass := newColor(useColor, color.FgGreen)

	for _, rep := range reports {
		if rep.ParseErr != nil {
			if _, err := fail.Fprintf(w, "%s: %v\n", rep.File, rep.ParseErr); err != nil {
				return fmt.Errorf("write text: %w", err)
			}

			continue
		}

		for _, line := range rep.Lines() {
			if _, err := warn.Fprintln(w, line); err != nil {
				return fmt.Errorf("write text: %w", err)
			}
		}
	}

	total := Total(reports)

	summary := pass
	if total.Uncovered > 0 {
		summary = fail
	}

	if _, err := summary.Fprintln(w, SummaryLine(total)); err != nil {
		return fmt.Errorf("write text: %w", err)
	}

	return nil
}

func writeTable(w io.Writer, reports []*coverage.Report) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Line", "Kind", "Expression", "Missing"})

	for _, rep := range reports {
		if rep.ParseErr != nil {
			tbl.AppendRow(table.Row{rep.File, "", "parse error", rep.ParseErr.Error(), ""})

			continue
		}

		for _, d := range rep.Diagnostics {
			tbl.AppendRow(table.Row{d.File, strconv.FormatUint(uint64(d.Line), 10), d.Kind, d.Expr, d.Missing})
		}
	}

	tbl.AppendFooter(table.Row{SummaryLine(Total(reports))})

	if _, err := io.WriteString(w, tbl.Render()+"\n"); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}

func writeJSON(w io.Writer, reports []*coverage.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(NewDocument(reports)); err != nil {
		return fmt.Errorf("write json: %w", err)
	}

	return nil
}

func writeYAML(w io.Writer, reports []*coverage.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(NewDocument(reports)); err != nil {
		return fmt.Errorf("write yaml: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("write yaml: %w", err)
	}

	return nil
}
