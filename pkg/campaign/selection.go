package campaign

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eufmd/pprcost/pkg/population"
	"github.com/eufmd/pprcost/pkg/scenario"
	"github.com/eufmd/pprcost/pkg/validation"
)

// Selection maps each country to evaluate onto the subregions to keep. An
// empty subregion list keeps the whole country. Names match ignoring case,
// accents and spaces.
type Selection map[string][]string

type selected struct {
	all        bool
	subregions map[string]bool
}

// Apply keeps the records inside the selection. Country-level records have
// no subregion and are kept only when their whole country is selected. A
// selected country or subregion that matches no record fails with a
// *validation.ConfigError listing every unmatched name.
func (s Selection) Apply(records []population.Record) ([]population.Record, error) {
	want := map[string]*selected{}
	for country, subs := range s {
		n := scenario.NormalizeName(country)
		sel, ok := want[n]
		if !ok {
			sel = &selected{subregions: map[string]bool{}}
			want[n] = sel
		}
		if len(subs) == 0 {
			sel.all = true
		}
		for _, sub := range subs {
			sel.subregions[scenario.NormalizeName(sub)] = true
		}
	}

	seenCountry := map[string]bool{}
	seenSub := map[string]bool{}
	var out []population.Record
	for _, r := range records {
		c := scenario.NormalizeName(r.Country)
		sel, ok := want[c]
		if !ok {
			continue
		}
		seenCountry[c] = true
		sub := scenario.NormalizeName(r.Subregion)
		if r.Subregion != "" {
			seenSub[c+"|"+sub] = true
		}
		if sel.all || (r.Subregion != "" && sel.subregions[sub]) {
			out = append(out, r)
		}
	}

	report := validation.NewReport()
	countries := make([]string, 0, len(s))
	for country := range s {
		countries = append(countries, country)
	}
	sort.Strings(countries)
	for _, country := range countries {
		c := scenario.NormalizeName(country)
		if !seenCountry[c] {
			report.AddError(validation.Result{
				Level:       validation.LevelCoverage,
				Message:     fmt.Sprintf("selected country %q has no population records", country),
				Path:        "selection." + country,
				ActualValue: country,
				Expected:    "a country of the population table",
			})
			continue
		}
		subs := append([]string(nil), s[country]...)
		sort.Strings(subs)
		var missing []string
		for _, sub := range subs {
			if !seenSub[c+"|"+scenario.NormalizeName(sub)] {
				missing = append(missing, sub)
			}
		}
		if len(missing) > 0 {
			report.AddError(validation.Result{
				Level:       validation.LevelCoverage,
				Message:     fmt.Sprintf("selected subregions of %s have no population records: %s", country, strings.Join(missing, ", ")),
				Path:        "selection." + country,
				ActualValue: missing,
				Expected:    "subregions of the subregional table",
				Suggestions: []string{"Specific subregions need the subregional population table"},
			})
		}
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
