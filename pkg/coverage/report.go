package coverage

// Diagnostic is one branch outcome that was never observed.
type Diagnostic struct {
	File    string `json:"file"    yaml:"file"`
	Line    uint   `json:"line"    yaml:"line"`
	Kind    string `json:"kind"    yaml:"kind"`
	Expr    string `json:"expr"    yaml:"expr"`
	Missing string `json:"missing" yaml:"missing"`
	Message string `json:"message" yaml:"message"`
}

// Summary aggregates the outcomes of a report.
type Summary struct {
	BranchPoints int     `json:"branch_points" yaml:"branch_points"`
	Covered      int     `json:"covered"       yaml:"covered"`
	Outcomes     int     `json:"outcomes"      yaml:"outcomes"`
	SeenOutcomes int     `json:"seen_outcomes" yaml:"seen_outcomes"`
	Uncovered    int     `json:"uncovered"     yaml:"uncovered"`
	CoveragePct  float64 `json:"coverage_pct"  yaml:"coverage_pct"`
}

// Report is the result of one coverage session.
type Report struct {
	File        string       `json:"file"        yaml:"file"`
	Hooks       []*Hook      `json:"-"           yaml:"-"`
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics"`

	// ParseErr is set when the source could not be parsed. The report is
	// then empty.
	ParseErr error `json:"-" yaml:"-"`
}

// NewReport collects the diagnostics of hooks in registration order.
func NewReport(file string, hooks []*Hook) *Report {
	rep := &Report{File: file, Hooks: hooks, Diagnostics: []Diagnostic{}}

	for _, h := range hooks {
		rep.Diagnostics = append(rep.Diagnostics, h.Diagnostics()...)
	}

	return rep
}

// Lines returns the diagnostic strings in registration order.
func (rep *Report) Lines() []string {
	lines := make([]string, 0, len(rep.Diagnostics))

	for _, d := range rep.Diagnostics {
		lines = append(lines, d.Message)
	}

	return lines
}

// Empty reports whether every branch point was fully covered.
func (rep *Report) Empty() bool {
	return len(rep.Diagnostics) == 0
}

// Summary counts branch points and outcomes.
func (rep *Report) Summary() Summary {
	var sum Summary

	for _, h := range rep.Hooks {
		seen, total := h.Outcomes()

		sum.BranchPoints++
		sum.Outcomes += total
		sum.SeenOutcomes += seen

		if seen == total {
			sum.Covered++
		}
	}

	sum.Uncovered = sum.Outcomes - sum.SeenOutcomes
	sum.CoveragePct = 100

	if sum.Outcomes > 0 {
		sum.CoveragePct = float64(sum.SeenOutcomes) * 100 / float64(sum.Outcomes)
	}

	return sum
}
