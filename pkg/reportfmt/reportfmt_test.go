package reportfmt_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/foliage/pkg/coverage"
	"github.com/Sumatoshi-tech/foliage/pkg/interp"
	"github.com/Sumatoshi-tech/foliage/pkg/node"
	"github.com/Sumatoshi-tech/foliage/pkg/reportfmt"
)

const neverFalse = "demo.rb:3: Branch condition (a > 4) was never false."

func halfCovered(t *testing.T) *coverage.Report {
	t.Helper()

	pos := node.NewPositions("demo.rb", 3, 1, 3)
	cond := node.New(node.TypeCall, ">", pos,
		node.New(node.TypeLVar, "a", pos.Copy()),
		node.New(node.TypeLit, "4", pos.Copy()),
	)

	h := coverage.NewConditionHook(cond)

	_, err := h.Hook(interp.Bool(true))
	require.NoError(t, err)

	return coverage.NewReport("demo.rb", []*coverage.Hook{h})
}

func TestWrite_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	reports := []*coverage.Report{
		halfCovered(t),
		{File: "bad.rb", ParseErr: errors.New("syntax error")},
	}

	require.NoError(t, reportfmt.Write(&buf, reports, reportfmt.Options{Format: reportfmt.FormatText}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		neverFalse,
		"bad.rb: syntax error",
		"1 branch points, 0 fully covered, 1/2 outcomes (50.0%)",
	}, lines)
}

func TestWrite_TextColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	opts := reportfmt.Options{Format: reportfmt.FormatText, Color: true}
	require.NoError(t, reportfmt.Write(&buf, []*coverage.Report{halfCovered(t)}, opts))

	assert.Contains(t, buf.String(), "\x1b[33m"+neverFalse)
	assert.Contains(t, buf.String(), "\x1b[31m1 branch points")
}

func TestWrite_Table(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, reportfmt.Write(&buf, []*coverage.Report{halfCovered(t)},
		reportfmt.Options{Format: reportfmt.FormatTable}))

	out := buf.String()
	for _, want := range []string{"FILE", "EXPRESSION", "MISSING", "demo.rb", "(a > 4)", "condition", "false"} {
		assert.Contains(t, out, want)
	}
}

func TestWrite_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, reportfmt.Write(&buf, []*coverage.Report{halfCovered(t)},
		reportfmt.Options{Format: reportfmt.FormatJSON}))

	var doc reportfmt.Document

	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Reports, 1)
	require.Len(t, doc.Reports[0].Diagnostics, 1)

	diag := doc.Reports[0].Diagnostics[0]
	assert.Equal(t, uint(3), diag.Line)
	assert.Equal(t, "false", diag.Missing)
	assert.Equal(t, neverFalse, diag.Message)
	assert.InDelta(t, 50.0, doc.Summary.CoveragePct, 0.001)
}

func TestWrite_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, reportfmt.Write(&buf, []*coverage.Report{halfCovered(t)},
		reportfmt.Options{Format: reportfmt.FormatYAML}))

	var doc reportfmt.Document

	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Reports, 1)
	assert.Equal(t, "demo.rb", doc.Reports[0].File)
	assert.Equal(t, 2, doc.Summary.Outcomes)
	assert.Equal(t, 1, doc.Summary.Uncovered)
}

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := reportfmt.Write(&bytes.Buffer{}, nil, reportfmt.Options{Format: "xml"})
	require.ErrorIs(t, err, reportfmt.ErrUnknownFormat)
}

func TestTotal(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 100.0, reportfmt.Total(nil).CoveragePct, 0.001)

	total := reportfmt.Total([]*coverage.Report{halfCovered(t), halfCovered(t)})
	assert.Equal(t, 2, total.BranchPoints)
	assert.Equal(t, 4, total.Outcomes)
	assert.Equal(t, 2, total.SeenOutcomes)
}

func TestSummaryLine_Thousands(t *testing.T) {
	t.Parallel()

	line := reportfmt.SummaryLine(coverage.Summary{
		BranchPoints: 1200, Covered: 1000, Outcomes: 2400, SeenOutcomes: 2000, CoveragePct: 83.33,
	})
	assert.Equal(t, "1,200 branch points, 1,000 fully covered, 2,000/2,400 outcomes (83.3%)", line)
}
