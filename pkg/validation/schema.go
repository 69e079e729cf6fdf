package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eufmd/pprcost/pkg/scenario"
)

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)

	// World Bank political stability estimates run from -2.5 to 2.5.
	indexLow  = decimal.NewFromFloat(-2.5)
	indexHigh = decimal.NewFromFloat(2.5)
)

// ValidateScenario performs schema validation on a scenario configuration.
// It checks structural correctness before any computation.
func ValidateScenario(cfg scenario.Config) *Report {
	r := NewReport()

	validateFractions(cfg, r)
	validateNewbornRates(cfg, r)
	validateCosts(cfg, r)
	validateDelivery(cfg, r)
	validatePoliticalStability(cfg, r)

	return r
}

func validateFractions(cfg scenario.Config, r *Report) {
	checkFraction(r, "coverage", cfg.Coverage)
	checkFraction(r, "second_year_coverage", cfg.SecondYearCoverage)

	if cfg.Wastage.IsNegative() || cfg.Wastage.GreaterThanOrEqual(one) {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("wastage %s must be >= 0 and < 1", cfg.Wastage),
			Path:        "wastage",
			ActualValue: cfg.Wastage.String(),
			Expected:    "0 <= wastage < 1",
			Suggestions: []string{"Doses are vaccinated / (1 - wastage); a wastage of 1 needs infinite doses"},
		})
	}

	if cfg.Coverage.IsZero() {
		r.AddWarning(Result{
			Level:    LevelSchema,
			Message:  "coverage is 0: the campaign vaccinates no animals",
			Path:     "coverage",
			Expected: "> 0",
		})
	}
}

func validateNewbornRates(cfg scenario.Config, r *Report) {
	for _, sp := range scenario.AllSpecies {
		rate, ok := cfg.NewbornRates[sp]
		if !ok {
			r.AddError(Result{
				Level:    LevelSchema,
				Message:  fmt.Sprintf("newborn_rates has no entry for %s", sp),
				Path:     fmt.Sprintf("newborn_rates.%s", sp),
				Expected: "fraction in [0, 1]",
			})
			continue
		}
		checkFraction(r, fmt.Sprintf("newborn_rates.%s", sp), rate)
	}
}

func validateCosts(cfg scenario.Config, r *Report) {
	if len(cfg.CostPerAnimal) == 0 {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  "cost_per_animal must contain at least one region",
			Path:     "cost_per_animal",
			Expected: "at least 1 region",
		})
		return
	}
	for _, region := range sortedKeys(cfg.CostPerAnimal) {
		cost := cfg.CostPerAnimal[region]
		if !cost.IsPositive() {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("cost_per_animal for %s must be > 0", region),
				Path:        fmt.Sprintf("cost_per_animal.%s", region),
				ActualValue: cost.String(),
				Expected:    "> 0",
			})
		}
	}
}

func validateDelivery(cfg scenario.Config, r *Report) {
	if _, err := scenario.ParseDeliveryChannel(string(cfg.Delivery.Channel)); err != nil {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     err.Error(),
			Path:        "delivery.channel",
			ActualValue: string(cfg.Delivery.Channel),
			Expected:    "public, mixed or private",
		})
	} else if _, ok := cfg.Delivery.Multipliers[cfg.Delivery.Channel]; !ok {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  fmt.Sprintf("delivery.multipliers has no entry for selected channel %s", cfg.Delivery.Channel),
			Path:     fmt.Sprintf("delivery.multipliers.%s", cfg.Delivery.Channel),
			Expected: "> 0",
		})
	}

	for _, channel := range sortedKeys(cfg.Delivery.Multipliers) {
		m := cfg.Delivery.Multipliers[channel]
		if !m.IsPositive() {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("delivery multiplier for %s must be > 0", channel),
				Path:        fmt.Sprintf("delivery.multipliers.%s", channel),
				ActualValue: m.String(),
				Expected:    "> 0",
			})
		}
	}
}

func validatePoliticalStability(cfg scenario.Config, r *Report) {
	ps := cfg.PoliticalStability

	if len(ps.Multipliers) != len(ps.Thresholds)+1 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("political_stability needs one more multiplier than thresholds (got %d thresholds, %d multipliers)", len(ps.Thresholds), len(ps.Multipliers)),
			Path:        "political_stability.multipliers",
			ActualValue: len(ps.Multipliers),
			Expected:    fmt.Sprintf("%d", len(ps.Thresholds)+1),
		})
	}

	for i := 1; i < len(ps.Thresholds); i++ {
		if !ps.Thresholds[i].GreaterThan(ps.Thresholds[i-1]) {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("political_stability.thresholds must be strictly ascending (%s then %s)", ps.Thresholds[i-1], ps.Thresholds[i]),
				Path:        fmt.Sprintf("political_stability.thresholds[%d]", i),
				ActualValue: ps.Thresholds[i].String(),
				Expected:    fmt.Sprintf("> %s", ps.Thresholds[i-1]),
			})
		}
	}

	for i, m := range ps.Multipliers {
		if !m.IsPositive() {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("political_stability.multipliers[%d] must be > 0", i),
				Path:        fmt.Sprintf("political_stability.multipliers[%d]", i),
				ActualValue: m.String(),
				Expected:    "> 0",
			})
		}
	}

	// Lower index means less stable, so brackets further left must never be
	// cheaper than brackets to their right.
	for i := 1; i < len(ps.Multipliers); i++ {
		if ps.Multipliers[i].GreaterThan(ps.Multipliers[i-1]) {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("political_stability.multipliers must not increase with stability (%s then %s)", ps.Multipliers[i-1], ps.Multipliers[i]),
				Path:        fmt.Sprintf("political_stability.multipliers[%d]", i),
				ActualValue: ps.Multipliers[i].String(),
				Expected:    fmt.Sprintf("<= %s", ps.Multipliers[i-1]),
				Suggestions: []string{"List multipliers from highest risk (lowest index) to lowest risk"},
			})
		}
	}

	collisions := scenario.NameCollisions(ps.IndexByCountry)
	names := make([]string, 0, len(collisions))
	for n := range collisions {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		keys := collisions[n]
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("political_stability.index_by_country names one country several times (%s)", strings.Join(keys, ", ")),
			Path:        fmt.Sprintf("political_stability.index_by_country.%s", keys[0]),
			ActualValue: keys,
			Expected:    "one entry per country",
			Suggestions: []string{"Country names are matched ignoring case, accents and spaces; keep a single spelling"},
		})
	}

	for _, country := range sortedKeys(ps.IndexByCountry) {
		idx := ps.IndexByCountry[country]
		if idx.LessThan(indexLow) || idx.GreaterThan(indexHigh) {
			r.AddWarning(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("stability index %s for %s is outside the usual -2.5..2.5 range", idx, country),
				Path:        fmt.Sprintf("political_stability.index_by_country.%s", country),
				ActualValue: idx.String(),
				Expected:    "-2.5..2.5",
			})
		}
	}
}

// ValidateCoverage checks that the scenario prices every region and species
// the evaluated records refer to.
func ValidateCoverage(cfg scenario.Config, regions []string, species []scenario.Species) *Report {
	r := NewReport()
	for _, region := range regions {
		if _, ok := cfg.CostPerAnimal[region]; !ok {
			r.AddError(Result{
				Level:       LevelCoverage,
				Message:     fmt.Sprintf("no cost_per_animal entry for region %q", region),
				Path:        fmt.Sprintf("cost_per_animal.%s", region),
				Expected:    "positive USD cost per animal",
				Suggestions: []string{fmt.Sprintf("Add %q to cost_per_animal", region)},
			})
		}
	}
	for _, sp := range species {
		if _, ok := cfg.NewbornRates[sp]; !ok {
			r.AddError(Result{
				Level:    LevelCoverage,
				Message:  fmt.Sprintf("no newborn_rates entry for species %q", sp),
				Path:     fmt.Sprintf("newborn_rates.%s", sp),
				Expected: "fraction in [0, 1]",
			})
		}
	}
	return r
}

func checkFraction(r *Report, path string, v decimal.Decimal) {
	if v.LessThan(zero) || v.GreaterThan(one) {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("%s %s must be between 0 and 1", path, v),
			Path:        path,
			ActualValue: v.String(),
			Expected:    "0-1",
		})
	}
}

func sortedKeys[K ~string](m map[K]decimal.Decimal) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
