// Package campaign runs a full scenario evaluation: scenario checks, record
// selection and exclusions, record validation, per-record costing and the
// roll-up.
package campaign

import (
	"sort"

	"github.com/eufmd/pprcost/pkg/aggregate"
	"github.com/eufmd/pprcost/pkg/cost"
	"github.com/eufmd/pprcost/pkg/episystem"
	"github.com/eufmd/pprcost/pkg/population"
	"github.com/eufmd/pprcost/pkg/scenario"
	"github.com/eufmd/pprcost/pkg/validation"
)

// Outcome is the complete result of one evaluation.
type Outcome struct {
	Scenario   scenario.Config     `json:"scenario"`
	Entries    []aggregate.Entry   `json:"entries"`
	Tables     *aggregate.Tables   `json:"tables"`
	Episystems []aggregate.Row     `json:"episystems,omitempty"`
	Overlaps   []Overlap           `json:"episystem_overlaps,omitempty"`
	Excluded   []string            `json:"excluded_countries"`
	Warnings   []validation.Result `json:"warnings,omitempty"`
}

// Overlap is a subregion listed in several episystems. Its costs count
// toward the first one only.
type Overlap struct {
	Country    string   `json:"country"`
	Subregion  string   `json:"subregion"`
	Episystems []string `json:"episystems"`
}

// Total is the continental two-year result.
func (o *Outcome) Total() cost.Result {
	return o.Tables.Total()
}

type options struct {
	rollup     []aggregate.Option
	episystems *episystem.Catalog
	within     *episystem.Catalog
	selection  Selection
	exclusions bool
}

// Option configures an evaluation.
type Option func(*options)

// BySpecies keeps species as a sub-grouping dimension of the roll-up.
func BySpecies() Option {
	return func(o *options) { o.rollup = append(o.rollup, aggregate.BySpecies()) }
}

// WithEpisystems also groups entries by the episystems of catalog.
func WithEpisystems(catalog *episystem.Catalog) Option {
	return func(o *options) { o.episystems = catalog }
}

// WithinEpisystems restricts the evaluation to subregions that belong to
// some episystem of catalog.
func WithinEpisystems(catalog *episystem.Catalog) Option {
	return func(o *options) { o.within = catalog }
}

// Select restricts the evaluation to the countries and subregions of sel.
// An empty selection keeps every record.
func Select(sel Selection) Option {
	return func(o *options) { o.selection = sel }
}

// KeepExcluded evaluates every record, ignoring the scenario's excluded
// countries.
func KeepExcluded() Option {
	return func(o *options) { o.exclusions = false }
}

// Evaluate prices records under cfg and rolls the results up. It fails with
// a *validation.ConfigError when the scenario is invalid or does not price
// every region and species of the records or the selection names unknown
// places, and with a *population.DataError on the first invalid record. No
// partial outcome is returned on failure.
func Evaluate(cfg scenario.Config, records []population.Record, opts ...Option) (*Outcome, error) {
	o := options{exclusions: true}
	for _, opt := range opts {
		opt(&o)
	}

	calc, err := cost.NewCalculator(cfg)
	if err != nil {
		return nil, err
	}
	frozen := calc.Scenario()

	kept := records
	if len(o.selection) > 0 {
		if kept, err = o.selection.Apply(kept); err != nil {
			return nil, err
		}
	}
	if o.within != nil {
		kept = o.within.Filter(kept)
	}
	excluded := []string{}
	if o.exclusions {
		kept, excluded = population.Exclude(kept, frozen.ExcludedCountries)
	}

	for _, r := range kept {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	regions, species := population.Regions(kept), population.SpeciesOf(kept)
	if err := validation.ValidateCoverage(frozen, regions, species).Err(); err != nil {
		return nil, err
	}

	entries := make([]aggregate.Entry, 0, len(kept))
	for _, r := range kept {
		res, err := calc.Calculate(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, aggregate.Entry{Record: r, Result: res})
	}

	out := &Outcome{
		Scenario: frozen,
		Entries:  entries,
		Tables:   aggregate.Rollup(entries, o.rollup...),
		Excluded: excluded,
		Warnings: validation.ValidateScenario(frozen).Warnings,
	}
	if o.episystems != nil {
		out.Episystems = o.episystems.Rows(entries, o.rollup...)
		out.Overlaps = overlaps(o.episystems, kept)
	}
	return out, nil
}

// overlaps lists the subregions of records that several episystems claim,
// ordered by country and subregion.
func overlaps(catalog *episystem.Catalog, records []population.Record) []Overlap {
	seen := map[string]bool{}
	var out []Overlap
	for _, r := range records {
		if r.Subregion == "" || seen[r.Country+"|"+r.Subregion] {
			continue
		}
		seen[r.Country+"|"+r.Subregion] = true
		if names := catalog.Memberships(r.Country, r.Subregion); len(names) > 1 {
			out = append(out, Overlap{Country: r.Country, Subregion: r.Subregion, Episystems: names})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Country != out[j].Country {
			return out[i].Country < out[j].Country
		}
		return out[i].Subregion < out[j].Subregion
	})
	return out
}

// BandResult is the continental total under one regional cost band.
type BandResult struct {
	Band  scenario.CostBand `json:"band"`
	Costs map[string]string `json:"cost_per_animal"`
	Total cost.Result       `json:"total"`
}

// EvaluateBands evaluates records once per cost band, replacing the
// scenario's regional costs with the band's values each time.
func EvaluateBands(cfg scenario.Config, records []population.Record, opts ...Option) ([]BandResult, error) {
	out := make([]BandResult, 0, len(scenario.Bands))
	for _, band := range scenario.Bands {
		banded, err := scenario.WithCostBasis(cfg, band)
		if err != nil {
			return nil, err
		}
		outcome, err := Evaluate(banded, records, opts...)
		if err != nil {
			return nil, err
		}
		costs := make(map[string]string, len(banded.CostPerAnimal))
		for region, c := range banded.CostPerAnimal {
			costs[region] = c.String()
		}
		out = append(out, BandResult{Band: band, Costs: costs, Total: outcome.Total()})
	}
	return out, nil
}
