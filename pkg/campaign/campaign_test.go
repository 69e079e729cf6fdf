package campaign

import (
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eufmd/pprcost/pkg/aggregate"
	"github.com/eufmd/pprcost/pkg/episystem"
	"github.com/eufmd/pprcost/pkg/population"
	"github.com/eufmd/pprcost/pkg/scenario"
	"github.com/eufmd/pprcost/pkg/validation"
)

const projectDir = "../../examples/default"

func loadProject(t *testing.T) (scenario.Config, *population.Dataset) {
	t.Helper()
	cfg, err := scenario.LoadProject(projectDir)
	require.NoError(t, err)
	ds, err := population.NewLoader(logr.Discard()).LoadDataset(projectDir)
	require.NoError(t, err)
	return ds.ApplyStability(cfg), ds
}

func TestEvaluateNational(t *testing.T) {
	cfg, ds := loadProject(t)
	out, err := Evaluate(cfg, ds.National)
	require.NoError(t, err)

	assert.Equal(t, []string{"Botswana"}, out.Excluded)
	assert.Len(t, out.Entries, 10)
	assert.Equal(t, 10, out.Tables.Records())

	var sum decimal.Decimal
	for _, e := range out.Entries {
		sum = sum.Add(e.Result.TotalCost)
	}
	assert.True(t, out.Total().TotalCost.Equal(sum), "continent %s != entries %s", out.Total().TotalCost, sum)

	report := aggregate.CheckConsistency(out.Tables)
	assert.True(t, report.Valid, "consistency errors: %v", report.Errors)

	// Nigeria's index of -1.78 falls in the top risk bracket.
	nigeria, ok := out.Tables.Lookup(aggregate.LevelCountry, aggregate.Key{Region: scenario.RegionWest, Country: "Nigeria"})
	require.True(t, ok)
	assert.Equal(t, 2, nigeria.Records)
}

func TestEvaluateSubregionalWithEpisystems(t *testing.T) {
	cfg, ds := loadProject(t)
	out, err := Evaluate(cfg, ds.Subregional, WithEpisystems(episystem.Default()), BySpecies())
	require.NoError(t, err)
	assert.Empty(t, out.Excluded)
	assert.Len(t, out.Tables.Level(aggregate.LevelContinent), 2)

	var names []string
	for _, r := range out.Episystems {
		if r.Key.Species == scenario.SpeciesGoat {
			names = append(names, r.Key.Group)
		}
	}
	assert.Equal(t, []string{"Chad-Sudan (DARFUR)", "Karamoja", "Sahel", "Somali"}, names)
	assert.True(t, aggregate.CheckConsistency(out.Tables).Valid)
}

func TestEvaluateMissingRegionCost(t *testing.T) {
	cfg, ds := loadProject(t)
	delete(cfg.CostPerAnimal, scenario.RegionEast)
	delete(cfg.CostPerAnimal, scenario.RegionNorth)

	out, err := Evaluate(cfg, ds.National)
	assert.Nil(t, out)
	require.ErrorIs(t, err, validation.ErrInvalidScenario)

	var ce *validation.ConfigError
	require.True(t, errors.As(err, &ce))
	require.Len(t, ce.Report.Errors, 2)
	assert.Equal(t, "cost_per_animal.East Africa", ce.Report.Errors[0].Path)
	assert.Equal(t, "cost_per_animal.North Africa", ce.Report.Errors[1].Path)
	assert.Equal(t, validation.LevelCoverage, ce.Report.Errors[0].Level)
}

func TestEvaluateExcludedRegionNeedsNoCost(t *testing.T) {
	cfg, ds := loadProject(t)
	delete(cfg.CostPerAnimal, scenario.RegionSouthern)

	_, err := Evaluate(cfg, ds.National)
	require.NoError(t, err)

	_, err = Evaluate(cfg, ds.National, KeepExcluded())
	assert.ErrorIs(t, err, validation.ErrInvalidScenario)
}

func TestEvaluateInvalidRecord(t *testing.T) {
	cfg, ds := loadProject(t)
	records := append([]population.Record(nil), ds.National...)
	records[3].Population = decimal.NewFromInt(-10)

	out, err := Evaluate(cfg, records)
	assert.Nil(t, out)
	var de *population.DataError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "Kenya", de.Country)
	assert.Equal(t, 5, de.Row)
}

func TestEvaluateUnmappedRegion(t *testing.T) {
	cfg := scenario.Default()
	records := []population.Record{{Country: "Atlantis", Species: scenario.SpeciesGoat, Population: decimal.NewFromInt(10)}}
	_, err := Evaluate(cfg, records)
	assert.ErrorIs(t, err, population.ErrInvalidRecord)
}

func TestEvaluateInvalidScenario(t *testing.T) {
	cfg, ds := loadProject(t)
	cfg.Wastage = decimal.NewFromInt(1)
	_, err := Evaluate(cfg, ds.National)
	assert.ErrorIs(t, err, validation.ErrInvalidScenario)
}

func TestEvaluateDeterministic(t *testing.T) {
	cfg, ds := loadProject(t)
	a, err := Evaluate(cfg, ds.Subregional)
	require.NoError(t, err)
	b, err := Evaluate(cfg, ds.Subregional)
	require.NoError(t, err)

	assert.Equal(t, a.Total().TotalCost.String(), b.Total().TotalCost.String())
	for _, level := range aggregate.Hierarchy {
		ra, rb := a.Tables.Level(level), b.Tables.Level(level)
		require.Len(t, rb, len(ra))
		for i := range ra {
			assert.Equal(t, ra[i].Key, rb[i].Key)
			assert.Equal(t, ra[i].Totals.TotalCost.String(), rb[i].Totals.TotalCost.String())
		}
	}
}

func TestEvaluateDoesNotMutateScenario(t *testing.T) {
	cfg, ds := loadProject(t)
	before := len(cfg.PoliticalStability.IndexByCountry)
	out, err := Evaluate(cfg, ds.National)
	require.NoError(t, err)
	out.Scenario.CostPerAnimal[scenario.RegionWest] = decimal.NewFromInt(99)
	assert.Len(t, cfg.PoliticalStability.IndexByCountry, before)
	assert.False(t, cfg.CostPerAnimal[scenario.RegionWest].Equal(decimal.NewFromInt(99)))
}

func TestEvaluateBands(t *testing.T) {
	cfg, ds := loadProject(t)
	bands, err := EvaluateBands(cfg, ds.National)
	require.NoError(t, err)
	require.Len(t, bands, 3)

	assert.Equal(t, scenario.BandMinimum, bands[0].Band)
	assert.Equal(t, scenario.BandMaximum, bands[2].Band)
	assert.Equal(t, "0.085", bands[0].Costs[scenario.RegionEast])
	assert.True(t, bands[0].Total.TotalCost.LessThan(bands[1].Total.TotalCost))
	assert.True(t, bands[1].Total.TotalCost.LessThan(bands[2].Total.TotalCost))
	// vaccination volumes do not depend on price
	assert.True(t, bands[0].Total.DosesYear1.Equal(bands[2].Total.DosesYear1))
}

func TestEvaluateSelection(t *testing.T) {
	cfg, ds := loadProject(t)
	sel := Selection{
		"kenya":   nil,
		"Nigeria": {"borno"},
	}
	out, err := Evaluate(cfg, ds.Subregional, Select(sel))
	require.NoError(t, err)

	assert.Len(t, out.Entries, 6)
	for _, e := range out.Entries {
		if e.Record.Country == "Nigeria" {
			assert.Equal(t, "Borno", e.Record.Subregion)
		} else {
			assert.Equal(t, "Kenya", e.Record.Country)
		}
	}
	assert.Len(t, out.Tables.Level(aggregate.LevelCountry), 2)
	assert.Len(t, out.Tables.Level(aggregate.LevelRegion), 2)
	assert.True(t, aggregate.CheckConsistency(out.Tables).Valid)

	full, err := Evaluate(cfg, ds.Subregional)
	require.NoError(t, err)
	kenya := aggregate.Key{Region: scenario.RegionEast, Country: "Kenya"}
	a, ok := out.Tables.Lookup(aggregate.LevelCountry, kenya)
	require.True(t, ok)
	b, ok := full.Tables.Lookup(aggregate.LevelCountry, kenya)
	require.True(t, ok)
	assert.True(t, a.Totals.TotalCost.Equal(b.Totals.TotalCost), "whole-country selection should match the full run")
}

func TestEvaluateSelectionNational(t *testing.T) {
	cfg, ds := loadProject(t)

	out, err := Evaluate(cfg, ds.National, Select(Selection{"Chad": nil}))
	require.NoError(t, err)
	assert.Len(t, out.Entries, 2)

	// national rows carry no subregion to match
	_, err = Evaluate(cfg, ds.National, Select(Selection{"Chad": {"Kanem"}}))
	var ce *validation.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "selection.Chad", ce.Report.Errors[0].Path)
}

func TestEvaluateSelectionUnknownPlaces(t *testing.T) {
	cfg, ds := loadProject(t)
	_, err := Evaluate(cfg, ds.Subregional, Select(Selection{
		"Atlantis": nil,
		"Kenya":    {"Rift Valley", "Nairobi"},
	}))
	require.ErrorIs(t, err, validation.ErrInvalidScenario)

	var ce *validation.ConfigError
	require.True(t, errors.As(err, &ce))
	require.Len(t, ce.Report.Errors, 2)
	assert.Equal(t, "selection.Atlantis", ce.Report.Errors[0].Path)
	assert.Contains(t, ce.Report.Errors[1].Message, "Nairobi")
	assert.NotContains(t, ce.Report.Errors[1].Message, "Rift Valley")
}

func TestEvaluateSelectionThenExclusion(t *testing.T) {
	cfg, ds := loadProject(t)
	out, err := Evaluate(cfg, ds.National, Select(Selection{"Botswana": nil, "Senegal": nil}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Botswana"}, out.Excluded)
	for _, e := range out.Entries {
		assert.Equal(t, "Senegal", e.Record.Country)
	}
}

func TestEvaluateWithinEpisystems(t *testing.T) {
	cfg, ds := loadProject(t)
	catalog := episystem.Default()
	out, err := Evaluate(cfg, ds.Subregional, WithinEpisystems(catalog), WithEpisystems(catalog))
	require.NoError(t, err)

	// Morocco's Souss-Massa lies outside every episystem
	assert.Len(t, out.Entries, 14)
	var grouped decimal.Decimal
	for _, r := range out.Episystems {
		grouped = grouped.Add(r.Totals.TotalCost)
	}
	assert.True(t, grouped.Equal(out.Total().TotalCost))
	assert.True(t, aggregate.CheckConsistency(out.Tables).Valid)
}

func TestEvaluateEpisystemOverlaps(t *testing.T) {
	cfg, ds := loadProject(t)
	out, err := Evaluate(cfg, ds.Subregional, WithEpisystems(episystem.Default()))
	require.NoError(t, err)

	assert.Equal(t, []Overlap{
		{Country: "Chad", Subregion: "Kanem", Episystems: []string{"Sahel", "Lake Chad Basin"}},
		{Country: "Nigeria", Subregion: "Borno", Episystems: []string{"Sahel", "Lake Chad Basin"}},
	}, out.Overlaps)

	out, err = Evaluate(cfg, ds.Subregional)
	require.NoError(t, err)
	assert.Empty(t, out.Overlaps)
}
