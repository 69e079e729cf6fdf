package population

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eufmd/pprcost/pkg/scenario"
)

// Record is one row of population input: the headcount of one species in one
// country or subregion at 100% coverage.
type Record struct {
	Country    string           `json:"country"`
	Region     string           `json:"region"`
	Subregion  string           `json:"subregion,omitempty"`
	Species    scenario.Species `json:"species"`
	Population decimal.Decimal  `json:"population"`

	// Source and Row locate the record in its input table.
	Source string `json:"source,omitempty"`
	Row    int    `json:"row,omitempty"`
}

// Label is a short human-readable identifier used in errors and logs.
func (r Record) Label() string {
	place := r.Country
	if r.Subregion != "" {
		place += "/" + r.Subregion
	}
	return fmt.Sprintf("%s %s", place, r.Species)
}

// Validate rejects records the calculator must not see. It never coerces
// invalid values.
func (r Record) Validate() error {
	switch {
	case strings.TrimSpace(r.Country) == "":
		return newDataError(r, "country", "", "country is empty")
	case strings.TrimSpace(r.Region) == "":
		return newDataError(r, "region", "", "no region mapped for country")
	case r.Species != scenario.SpeciesGoat && r.Species != scenario.SpeciesSheep:
		return newDataError(r, "species", string(r.Species), "unknown species")
	case r.Population.IsNegative():
		return newDataError(r, "population", r.Population.String(), "population must be non-negative")
	}
	return nil
}

// ErrInvalidRecord is matched by every *DataError.
var ErrInvalidRecord = errors.New("invalid population record")

// DataError identifies an input record that cannot be evaluated.
type DataError struct {
	Source    string `json:"source,omitempty"`
	Row       int    `json:"row,omitempty"`
	Country   string `json:"country,omitempty"`
	Subregion string `json:"subregion,omitempty"`
	Species   string `json:"species,omitempty"`
	Field     string `json:"field"`
	Value     string `json:"value,omitempty"`
	Message   string `json:"message"`
}

func newDataError(r Record, field, value, msg string) *DataError {
	return &DataError{
		Source:    r.Source,
		Row:       r.Row,
		Country:   r.Country,
		Subregion: r.Subregion,
		Species:   string(r.Species),
		Field:     field,
		Value:     value,
		Message:   msg,
	}
}

func (e *DataError) Error() string {
	var loc []string
	if e.Source != "" {
		loc = append(loc, e.Source)
	}
	if e.Row > 0 {
		loc = append(loc, fmt.Sprintf("row %d", e.Row))
	}
	place := e.Country
	if e.Subregion != "" {
		place += "/" + e.Subregion
	}
	if e.Species != "" {
		place = strings.TrimSpace(place + " " + e.Species)
	}
	if place != "" {
		loc = append(loc, place)
	}
	msg := fmt.Sprintf("%s: %s", e.Field, e.Message)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got %q)", e.Value)
	}
	if len(loc) == 0 {
		return fmt.Sprintf("%s: %s", ErrInvalidRecord, msg)
	}
	return fmt.Sprintf("%s (%s): %s", ErrInvalidRecord, strings.Join(loc, ", "), msg)
}

func (e *DataError) Unwrap() error { return ErrInvalidRecord }

// Regions returns the distinct regions referenced by records, sorted.
func Regions(records []Record) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range records {
		if !seen[r.Region] {
			seen[r.Region] = true
			out = append(out, r.Region)
		}
	}
	sort.Strings(out)
	return out
}

// SpeciesOf returns the distinct species referenced by records, sorted.
func SpeciesOf(records []Record) []scenario.Species {
	seen := map[scenario.Species]bool{}
	var out []scenario.Species
	for _, r := range records {
		if !seen[r.Species] {
			seen[r.Species] = true
			out = append(out, r.Species)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Exclude drops the records of the listed countries. Names are compared
// case-insensitively with whitespace removed. It returns the kept records and
// the sorted names of the countries actually dropped.
func Exclude(records []Record, countries []string) ([]Record, []string) {
	skip := make(map[string]bool, len(countries))
	for _, c := range countries {
		skip[scenario.NormalizeName(c)] = true
	}
	kept := make([]Record, 0, len(records))
	dropped := map[string]bool{}
	for _, r := range records {
		if skip[scenario.NormalizeName(r.Country)] {
			dropped[r.Country] = true
			continue
		}
		kept = append(kept, r)
	}
	excluded := make([]string, 0, len(dropped))
	for c := range dropped {
		excluded = append(excluded, c)
	}
	sort.Strings(excluded)
	return kept, excluded
}
