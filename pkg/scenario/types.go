package scenario

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Species is a vaccinated small-ruminant species.
type Species string

const (
	SpeciesGoat  Species = "goat"
	SpeciesSheep Species = "sheep"
)

// AllSpecies lists the supported species in display order.
var AllSpecies = []Species{SpeciesGoat, SpeciesSheep}

// ParseSpecies normalizes the spellings found in the source tables
// ("Goats", "Goat", "sheep", "Sheeps", ...).
func ParseSpecies(s string) (Species, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "goat", "goats":
		return SpeciesGoat, nil
	case "sheep", "sheeps":
		return SpeciesSheep, nil
	}
	return "", fmt.Errorf("unknown species %q", s)
}

// DeliveryChannel is the distribution mechanism of the campaign.
type DeliveryChannel string

const (
	ChannelPublic  DeliveryChannel = "public"
	ChannelMixed   DeliveryChannel = "mixed"
	ChannelPrivate DeliveryChannel = "private"
)

// ParseDeliveryChannel accepts any casing of public, mixed or private.
func ParseDeliveryChannel(s string) (DeliveryChannel, error) {
	switch c := DeliveryChannel(strings.ToLower(strings.TrimSpace(s))); c {
	case ChannelPublic, ChannelMixed, ChannelPrivate:
		return c, nil
	}
	return "", fmt.Errorf("unknown delivery channel %q", s)
}

// Continental regions used for regional vaccination costs.
const (
	RegionNorth    = "North Africa"
	RegionWest     = "West Africa"
	RegionCentral  = "Central Africa"
	RegionEast     = "East Africa"
	RegionSouthern = "Southern Africa"
)

// Regions lists the five continental regions.
var Regions = []string{RegionNorth, RegionWest, RegionCentral, RegionEast, RegionSouthern}

// Config is the full set of user-adjustable scenario parameters.
// Values are decimals so that roll-up sums stay exact.
type Config struct {
	Name               string                      `yaml:"name" json:"name"`
	Coverage           decimal.Decimal             `yaml:"coverage" json:"coverage"`
	Wastage            decimal.Decimal             `yaml:"wastage" json:"wastage"`
	SecondYearCoverage decimal.Decimal             `yaml:"second_year_coverage" json:"second_year_coverage"`
	NewbornRates       map[Species]decimal.Decimal `yaml:"newborn_rates" json:"newborn_rates"`
	CostPerAnimal      map[string]decimal.Decimal  `yaml:"cost_per_animal" json:"cost_per_animal"`
	Delivery           Delivery                    `yaml:"delivery" json:"delivery"`
	PoliticalStability PoliticalStability          `yaml:"political_stability" json:"political_stability"`
	ExcludedCountries  []string                    `yaml:"excluded_countries" json:"excluded_countries"`
}

// Delivery selects a channel and holds the multiplier of every channel.
type Delivery struct {
	Channel     DeliveryChannel                     `yaml:"channel" json:"channel"`
	Multipliers map[DeliveryChannel]decimal.Decimal `yaml:"multipliers" json:"multipliers"`
}

// PoliticalStability maps a country's stability index to a cost multiplier.
// An index below Thresholds[i] (and not below any earlier threshold) gets
// Multipliers[i]; an index at or above every threshold gets the last multiplier.
type PoliticalStability struct {
	Thresholds     []decimal.Decimal          `yaml:"thresholds" json:"thresholds"`
	Multipliers    []decimal.Decimal          `yaml:"multipliers" json:"multipliers"`
	IndexByCountry map[string]decimal.Decimal `yaml:"index_by_country" json:"index_by_country"`
	DefaultIndex   decimal.Decimal            `yaml:"default_index" json:"default_index"`
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	out := c
	out.NewbornRates = cloneMap(c.NewbornRates)
	out.CostPerAnimal = cloneMap(c.CostPerAnimal)
	out.Delivery.Multipliers = cloneMap(c.Delivery.Multipliers)
	out.PoliticalStability.IndexByCountry = cloneMap(c.PoliticalStability.IndexByCountry)
	out.PoliticalStability.Thresholds = append([]decimal.Decimal(nil), c.PoliticalStability.Thresholds...)
	out.PoliticalStability.Multipliers = append([]decimal.Decimal(nil), c.PoliticalStability.Multipliers...)
	out.ExcludedCountries = append([]string(nil), c.ExcludedCountries...)
	return out
}

func cloneMap[K comparable](m map[K]decimal.Decimal) map[K]decimal.Decimal {
	if m == nil {
		return nil
	}
	out := make(map[K]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
