package validation

import "fmt"

// Level names the check that produced a finding.
type Level string

const (
	// LevelSchema covers the scenario file on its own: ranges, lengths and
	// ordering of its parameters.
	LevelSchema Level = "schema"
	// LevelCoverage compares the scenario with the population tables it is
	// applied to.
	LevelCoverage Level = "coverage"
	// LevelConsistency checks that roll-up totals equal the sum of their
	// members.
	LevelConsistency Level = "consistency"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Result is one finding about a scenario or its population. Path is the
// dotted scenario key (cost_per_animal.West Africa) or the table it concerns.
type Result struct {
	Level       Level    `json:"level"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Path        string   `json:"path"`
	ActualValue any      `json:"actual_value,omitempty"`
	Expected    string   `json:"expected,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Report collects findings by severity. Only errors make it invalid; a
// scenario with warnings is still evaluated.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []Result `json:"errors"`
	Warnings []Result `json:"warnings"`
	Info     []Result `json:"info"`
	Summary  string   `json:"summary"`
}

func NewReport() *Report {
	r := &Report{
		Valid:    true,
		Errors:   []Result{},
		Warnings: []Result{},
		Info:     []Result{},
	}
	r.summarize()
	return r
}

// AddError records findings that block the evaluation.
func (r *Report) AddError(results ...Result) {
	r.add(&r.Errors, SeverityError, results)
}

// AddWarning records findings the evaluation proceeds past, such as a
// stability index for a country with no population.
func (r *Report) AddWarning(results ...Result) {
	r.add(&r.Warnings, SeverityWarning, results)
}

func (r *Report) AddInfo(results ...Result) {
	r.add(&r.Info, SeverityInfo, results)
}

// Merge appends the findings of other, keeping their severities.
func (r *Report) Merge(other *Report) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Info = append(r.Info, other.Info...)
	r.summarize()
}

// Err returns the report as a *ConfigError when it holds errors.
func (r *Report) Err() error {
	if r.Valid {
		return nil
	}
	return &ConfigError{Report: r}
}

func (r *Report) add(dst *[]Result, sev Severity, results []Result) {
	for _, res := range results {
		res.Severity = sev
		*dst = append(*dst, res)
	}
	r.summarize()
}

func (r *Report) summarize() {
	r.Valid = len(r.Errors) == 0
	r.Summary = fmt.Sprintf("%d errors, %d warnings, %d info",
		len(r.Errors), len(r.Warnings), len(r.Info))
}
