package validation

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/eufmd/pprcost/pkg/scenario"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestValidateScenarioDefault(t *testing.T) {
	r := ValidateScenario(scenario.Default())
	if !r.Valid {
		t.Errorf("expected valid report, got %d errors: %v", len(r.Errors), r.Errors)
	}
}

func TestValidateScenarioCoverageRange(t *testing.T) {
	cfg := scenario.Default()
	cfg.Coverage = dec("1.2")
	r := ValidateScenario(cfg)
	if r.Valid {
		t.Error("expected invalid report for coverage=1.2")
	}
	assertHasError(t, r, "coverage")
}

func TestValidateScenarioCoverageZeroWarns(t *testing.T) {
	cfg := scenario.Default()
	cfg.Coverage = decimal.Zero
	r := ValidateScenario(cfg)
	if !r.Valid {
		t.Errorf("coverage=0 should only warn, got errors: %v", r.Errors)
	}
	if len(r.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(r.Warnings))
	}
}

func TestValidateScenarioWastageSingularity(t *testing.T) {
	for _, w := range []string{"1", "1.5", "-0.1"} {
		cfg := scenario.Default()
		cfg.Wastage = dec(w)
		r := ValidateScenario(cfg)
		if r.Valid {
			t.Errorf("expected invalid report for wastage=%s", w)
		}
		assertHasError(t, r, "wastage")
	}
}

func TestValidateScenarioMissingNewbornRate(t *testing.T) {
	cfg := scenario.Default()
	delete(cfg.NewbornRates, scenario.SpeciesSheep)
	r := ValidateScenario(cfg)
	if r.Valid {
		t.Error("expected invalid for missing sheep newborn rate")
	}
	assertHasError(t, r, "newborn_rates.sheep")
}

func TestValidateScenarioNonPositiveCost(t *testing.T) {
	cfg := scenario.Default()
	cfg.CostPerAnimal[scenario.RegionEast] = decimal.Zero
	r := ValidateScenario(cfg)
	if r.Valid {
		t.Error("expected invalid for zero regional cost")
	}
	assertHasError(t, r, "cost_per_animal.East Africa")
}

func TestValidateScenarioEmptyCosts(t *testing.T) {
	cfg := scenario.Default()
	cfg.CostPerAnimal = nil
	r := ValidateScenario(cfg)
	assertHasError(t, r, "cost_per_animal")
}

func TestValidateScenarioDeliveryChannel(t *testing.T) {
	cfg := scenario.Default()
	cfg.Delivery.Channel = "ngo"
	r := ValidateScenario(cfg)
	assertHasError(t, r, "delivery.channel")

	cfg = scenario.Default()
	delete(cfg.Delivery.Multipliers, scenario.ChannelMixed)
	r = ValidateScenario(cfg)
	assertHasError(t, r, "delivery.multipliers.mixed")

	cfg = scenario.Default()
	cfg.Delivery.Multipliers[scenario.ChannelPrivate] = dec("-1")
	r = ValidateScenario(cfg)
	assertHasError(t, r, "delivery.multipliers.private")
}

func TestValidateScenarioThresholdsAscending(t *testing.T) {
	cfg := scenario.Default()
	cfg.PoliticalStability.Thresholds = []decimal.Decimal{dec("0"), dec("0")}
	r := ValidateScenario(cfg)
	if r.Valid {
		t.Error("expected invalid for non-ascending thresholds")
	}
	assertHasError(t, r, "political_stability.thresholds[1]")
}

func TestValidateScenarioMultiplierCount(t *testing.T) {
	cfg := scenario.Default()
	cfg.PoliticalStability.Multipliers = []decimal.Decimal{dec("2"), dec("1")}
	r := ValidateScenario(cfg)
	assertHasError(t, r, "political_stability.multipliers")
}

func TestValidateScenarioMultiplierDirection(t *testing.T) {
	cfg := scenario.Default()
	// cheapest for the least stable countries: inverted risk direction
	cfg.PoliticalStability.Multipliers = []decimal.Decimal{dec("1.0"), dec("1.5"), dec("2.0")}
	r := ValidateScenario(cfg)
	if r.Valid {
		t.Error("expected invalid for multipliers increasing with stability")
	}
	assertHasError(t, r, "political_stability.multipliers[1]")
}

func TestValidateScenarioIndexSpellingCollision(t *testing.T) {
	cfg := scenario.Default()
	cfg.PoliticalStability.IndexByCountry["Kenya"] = dec("0.5")
	cfg.PoliticalStability.IndexByCountry["kenya"] = dec("0.1")
	r := ValidateScenario(cfg)
	if r.Valid {
		t.Fatal("expected invalid when one country has two index entries")
	}
	assertHasError(t, r, "political_stability.index_by_country.Kenya")
	if err := r.Err(); err == nil || !strings.Contains(err.Error(), "Kenya, kenya") {
		t.Errorf("error should name both spellings: %v", err)
	}

	cfg = scenario.Default()
	cfg.PoliticalStability.IndexByCountry["Côte d'Ivoire"] = dec("-0.9")
	cfg.PoliticalStability.IndexByCountry["Cote d'Ivoire"] = dec("-0.9")
	assertHasError(t, ValidateScenario(cfg), "political_stability.index_by_country.Cote d'Ivoire")
}

func TestValidateScenarioIndexOutOfRangeWarns(t *testing.T) {
	cfg := scenario.Default()
	cfg.PoliticalStability.IndexByCountry["Chad"] = dec("-3.1")
	r := ValidateScenario(cfg)
	if !r.Valid {
		t.Errorf("out-of-range index should only warn, got errors: %v", r.Errors)
	}
	if len(r.Warnings) != 1 || r.Warnings[0].Path != "political_stability.index_by_country.Chad" {
		t.Errorf("unexpected warnings: %v", r.Warnings)
	}
}

func TestValidateCoverage(t *testing.T) {
	cfg := scenario.Default()
	r := ValidateCoverage(cfg, []string{scenario.RegionWest, "Atlantis"}, []scenario.Species{scenario.SpeciesGoat})
	if r.Valid {
		t.Error("expected invalid for unpriced region")
	}
	assertHasError(t, r, "cost_per_animal.Atlantis")
	if len(r.Errors) != 1 {
		t.Errorf("expected 1 error, got %d: %v", len(r.Errors), r.Errors)
	}

	delete(cfg.NewbornRates, scenario.SpeciesGoat)
	r = ValidateCoverage(cfg, nil, []scenario.Species{scenario.SpeciesGoat})
	assertHasError(t, r, "newborn_rates.goat")
}

func assertHasError(t *testing.T, r *Report, path string) {
	t.Helper()
	for _, e := range r.Errors {
		if e.Path == path {
			return
		}
	}
	t.Errorf("expected error with path %q, got errors: %v", path, r.Errors)
}
