package episystem

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eufmd/pprcost/pkg/aggregate"
	"github.com/eufmd/pprcost/pkg/cost"
	"github.com/eufmd/pprcost/pkg/population"
	"github.com/eufmd/pprcost/pkg/scenario"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	var names []string
	for _, e := range c.Episystems {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{
		"Chad-Sudan (DARFUR)", "Karamoja", "Mano River", "Sahel",
		"Southern Protection Zone", "Coastal Western Africa", "Lake Chad Basin",
		"Nile", "Somali",
	}, names)

	karamoja := c.Episystems[1]
	require.Len(t, karamoja.Countries, 4)
	assert.Equal(t, "Uganda", karamoja.Countries[0].Country)
	assert.Equal(t, "South Sudan", karamoja.Countries[3].Country)
}

func TestLookupFirstMatch(t *testing.T) {
	c := Default()
	tests := []struct {
		country, subregion string
		want               string
		ok                 bool
	}{
		{"Chad", "Ouaddai", "Chad-Sudan (DARFUR)", true},
		{"chad", "OUADDAI", "Chad-Sudan (DARFUR)", true},
		{"Nigeria", "Borno", "Sahel", true},
		{"Chad", "Kanem", "Sahel", true},
		{"Kenya", "North Eastern Province", "Somali", true},
		{"Uganda", "Kitgum", "Karamoja", true},
		{"Cote d'Ivoire", "Bafing", "Mano River", true},
		{"Côte d'Ivoire", "18 Montagnes", "Mano River", true},
		{"COTE D'IVOIRE", "haut-sassandra", "Mano River", true},
		{"Kenya", "Nairobi", "", false},
		{"Chad", "", "", false},
	}
	for _, tt := range tests {
		got, ok := c.Lookup(tt.country, tt.subregion)
		assert.Equal(t, tt.ok, ok, "%s/%s", tt.country, tt.subregion)
		assert.Equal(t, tt.want, got, "%s/%s", tt.country, tt.subregion)
	}
}

func TestMemberships(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{"Sahel", "Lake Chad Basin"}, c.Memberships("Nigeria", "Borno"))
	assert.Empty(t, c.Memberships("Morocco", "Souss-Massa"))
}

func TestFilterAndRows(t *testing.T) {
	records := []population.Record{
		{Country: "Chad", Region: scenario.RegionCentral, Subregion: "Ouaddai", Species: scenario.SpeciesGoat, Population: decimal.NewFromInt(5100)},
		{Country: "Chad", Region: scenario.RegionCentral, Subregion: "Kanem", Species: scenario.SpeciesSheep, Population: decimal.NewFromInt(3600)},
		{Country: "Nigeria", Region: scenario.RegionWest, Subregion: "Borno", Species: scenario.SpeciesGoat, Population: decimal.NewFromInt(6700)},
		{Country: "Morocco", Region: scenario.RegionNorth, Subregion: "Souss-Massa", Species: scenario.SpeciesGoat, Population: decimal.NewFromInt(1250)},
		{Country: "Mali", Region: scenario.RegionWest, Species: scenario.SpeciesGoat, Population: decimal.NewFromInt(900)},
	}
	c := Default()
	filtered := c.Filter(records)
	require.Len(t, filtered, 3)

	calc, err := cost.NewCalculator(scenario.Default())
	require.NoError(t, err)
	var entries []aggregate.Entry
	for _, r := range records {
		res, err := calc.Calculate(r)
		require.NoError(t, err)
		entries = append(entries, aggregate.Entry{Record: r, Result: res})
	}

	rows := c.Rows(entries)
	require.Len(t, rows, 2)
	assert.Equal(t, "Chad-Sudan (DARFUR)", rows[0].Key.Group)
	assert.Equal(t, Level, rows[0].Level)
	assert.Equal(t, "Sahel", rows[1].Key.Group)
	assert.Equal(t, 2, rows[1].Records)

	want := entries[1].Result.Plus(entries[2].Result)
	assert.True(t, rows[1].Totals.TotalCost.Equal(want.TotalCost))
}

func TestParseRejectsDuplicates(t *testing.T) {
	_, err := Parse([]byte("episystems:\n  - name: A\n    countries: {Chad: [Lac]}\n  - name: A\n    countries: {}\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("episystems:\n  - name: A\n    countries: [Chad]\n"))
	assert.Error(t, err)
}
