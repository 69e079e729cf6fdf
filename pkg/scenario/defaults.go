package scenario

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CostBand selects one column of the regional cost table.
type CostBand string

const (
	BandMinimum CostBand = "minimum"
	BandAverage CostBand = "average"
	BandMaximum CostBand = "maximum"
)

// Bands lists the cost bands from cheapest to most expensive.
var Bands = []CostBand{BandMinimum, BandAverage, BandMaximum}

// RegionalCost is the literature range of vaccination cost per animal (USD).
type RegionalCost struct {
	Region  string          `json:"region"`
	Minimum decimal.Decimal `json:"minimum"`
	Average decimal.Decimal `json:"average"`
	Maximum decimal.Decimal `json:"maximum"`
}

// Band returns the cost for the given band.
func (rc RegionalCost) Band(b CostBand) (decimal.Decimal, error) {
	switch b {
	case BandMinimum:
		return rc.Minimum, nil
	case BandAverage:
		return rc.Average, nil
	case BandMaximum:
		return rc.Maximum, nil
	}
	return decimal.Zero, fmt.Errorf("unknown cost band %q", b)
}

// RegionalCosts holds field and literature cost estimates per region.
var RegionalCosts = []RegionalCost{
	{RegionNorth, d("0.106"), d("0.191"), d("0.325")},
	{RegionWest, d("0.106"), d("0.191"), d("0.325")},
	{RegionEast, d("0.085"), d("0.153"), d("0.260")},
	{RegionCentral, d("0.095"), d("0.171"), d("0.291")},
	{RegionSouthern, d("0.127"), d("0.229"), d("0.389")},
}

// PPRFreeCountries are officially recognised as free of PPR (WOAH, June 2025)
// and excluded from the campaign by default.
var PPRFreeCountries = []string{
	"Botswana", "eSwatini", "Eswatini", "Kingdom of eSwatini", "Lesotho",
	"Madagascar", "Mauritius", "Namibia", "South Africa",
}

// Default returns the baseline scenario. Every call returns fresh maps.
func Default() Config {
	costs := make(map[string]decimal.Decimal, len(RegionalCosts))
	for _, rc := range RegionalCosts {
		costs[rc.Region] = rc.Average
	}
	return Config{
		Name:               "Default Scenario",
		Coverage:           d("0.80"),
		Wastage:            d("0.10"),
		SecondYearCoverage: decimal.NewFromInt(1),
		NewbornRates: map[Species]decimal.Decimal{
			SpeciesGoat:  d("0.60"),
			SpeciesSheep: d("0.40"),
		},
		CostPerAnimal: costs,
		Delivery: Delivery{
			Channel: ChannelMixed,
			Multipliers: map[DeliveryChannel]decimal.Decimal{
				ChannelPublic:  d("1.2"),
				ChannelMixed:   d("1.0"),
				ChannelPrivate: d("0.85"),
			},
		},
		PoliticalStability: PoliticalStability{
			Thresholds:     []decimal.Decimal{d("-1.0"), d("0.0")},
			Multipliers:    []decimal.Decimal{d("2.0"), d("1.5"), d("1.0")},
			IndexByCountry: map[string]decimal.Decimal{},
			DefaultIndex:   d("0.3"),
		},
		ExcludedCountries: append([]string(nil), PPRFreeCountries...),
	}
}

// WithCostBasis returns a copy of cfg whose per-animal costs are taken from
// one band of the regional cost table.
func WithCostBasis(cfg Config, band CostBand) (Config, error) {
	out := cfg.Clone()
	out.CostPerAnimal = make(map[string]decimal.Decimal, len(RegionalCosts))
	for _, rc := range RegionalCosts {
		v, err := rc.Band(band)
		if err != nil {
			return Config{}, err
		}
		out.CostPerAnimal[rc.Region] = v
	}
	return out, nil
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
