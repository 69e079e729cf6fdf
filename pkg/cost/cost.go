package cost

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eufmd/pprcost/pkg/population"
	"github.com/eufmd/pprcost/pkg/scenario"
	"github.com/eufmd/pprcost/pkg/validation"
)

// Result is the two-year cost breakdown of one entity or one aggregate.
type Result struct {
	VaccinatedYear1 decimal.Decimal `json:"vaccinated_year1"`
	DosesYear1      decimal.Decimal `json:"doses_year1"`
	WastedYear1     decimal.Decimal `json:"wasted_year1"`
	CostYear1       decimal.Decimal `json:"cost_year1"`
	Newborns        decimal.Decimal `json:"newborns"`
	VaccinatedYear2 decimal.Decimal `json:"vaccinated_year2"`
	DosesYear2      decimal.Decimal `json:"doses_year2"`
	WastedYear2     decimal.Decimal `json:"wasted_year2"`
	CostYear2       decimal.Decimal `json:"cost_year2"`
	TotalCost       decimal.Decimal `json:"total_cost"`
}

// Plus returns the field-wise sum of r and o.
func (r Result) Plus(o Result) Result {
	return Result{
		VaccinatedYear1: r.VaccinatedYear1.Add(o.VaccinatedYear1),
		DosesYear1:      r.DosesYear1.Add(o.DosesYear1),
		WastedYear1:     r.WastedYear1.Add(o.WastedYear1),
		CostYear1:       r.CostYear1.Add(o.CostYear1),
		Newborns:        r.Newborns.Add(o.Newborns),
		VaccinatedYear2: r.VaccinatedYear2.Add(o.VaccinatedYear2),
		DosesYear2:      r.DosesYear2.Add(o.DosesYear2),
		WastedYear2:     r.WastedYear2.Add(o.WastedYear2),
		CostYear2:       r.CostYear2.Add(o.CostYear2),
		TotalCost:       r.TotalCost.Add(o.TotalCost),
	}
}

// Field is one named numeric column of a Result.
type Field struct {
	Name  string
	Value decimal.Decimal
}

// Fields lists the columns of r in display order.
func (r Result) Fields() []Field {
	return []Field{
		{"vaccinated_year1", r.VaccinatedYear1},
		{"doses_year1", r.DosesYear1},
		{"wasted_year1", r.WastedYear1},
		{"cost_year1", r.CostYear1},
		{"newborns", r.Newborns},
		{"vaccinated_year2", r.VaccinatedYear2},
		{"doses_year2", r.DosesYear2},
		{"wasted_year2", r.WastedYear2},
		{"cost_year2", r.CostYear2},
		{"total_cost", r.TotalCost},
	}
}

// FieldNames lists the column names returned by Fields.
func FieldNames() []string {
	fields := Result{}.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Calculator prices population records under one frozen scenario.
type Calculator struct {
	cfg       scenario.Config
	retained  decimal.Decimal // 1 - wastage
	delivery  decimal.Decimal
	stability map[string]decimal.Decimal
}

// NewCalculator validates cfg and freezes a private copy of it. An invalid
// scenario fails with a *validation.ConfigError.
func NewCalculator(cfg scenario.Config) (*Calculator, error) {
	if err := validation.ValidateScenario(cfg).Err(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	delivery, err := DeliveryMultiplier(cfg.Delivery.Channel, cfg.Delivery.Multipliers)
	if err != nil {
		return nil, err
	}

	stability := make(map[string]decimal.Decimal, len(cfg.PoliticalStability.IndexByCountry))
	for country, idx := range cfg.PoliticalStability.IndexByCountry {
		stability[scenario.NormalizeName(country)] = idx
	}

	return &Calculator{
		cfg:       cfg,
		retained:  decimal.NewFromInt(1).Sub(cfg.Wastage),
		delivery:  delivery,
		stability: stability,
	}, nil
}

// Scenario returns a copy of the scenario the calculator was built with.
func (c *Calculator) Scenario() scenario.Config {
	return c.cfg.Clone()
}

// StabilityIndex returns the index used for a country.
func (c *Calculator) StabilityIndex(country string) decimal.Decimal {
	if idx, ok := c.stability[scenario.NormalizeName(country)]; ok {
		return idx
	}
	return c.cfg.PoliticalStability.DefaultIndex
}

// PoliticalMultiplier returns the stability multiplier applied to a country.
func (c *Calculator) PoliticalMultiplier(country string) decimal.Decimal {
	ps := c.cfg.PoliticalStability
	// Bracket counts were checked by NewCalculator.
	m, _ := PoliticalMultiplier(c.StabilityIndex(country), ps.Thresholds, ps.Multipliers)
	return m
}

// DeliveryMultiplier returns the multiplier of the scenario's channel.
func (c *Calculator) DeliveryMultiplier() decimal.Decimal {
	return c.delivery
}

// Calculate computes the Year 1 campaign and the Year 2 newborn top-up for
// one record. Invalid records fail with a *population.DataError; a region or
// species the scenario does not price fails with a *validation.ConfigError.
func (c *Calculator) Calculate(r population.Record) (Result, error) {
	if err := r.Validate(); err != nil {
		return Result{}, err
	}
	unitCost, ok := c.cfg.CostPerAnimal[r.Region]
	if !ok {
		return Result{}, validation.NewConfigError(validation.LevelCoverage,
			fmt.Sprintf("cost_per_animal.%s", r.Region),
			fmt.Sprintf("no cost_per_animal entry for region %q (%s)", r.Region, r.Label()))
	}
	newbornRate, ok := c.cfg.NewbornRates[r.Species]
	if !ok {
		return Result{}, validation.NewConfigError(validation.LevelCoverage,
			fmt.Sprintf("newborn_rates.%s", r.Species),
			fmt.Sprintf("no newborn_rates entry for species %q (%s)", r.Species, r.Label()))
	}
	multiplier := c.PoliticalMultiplier(r.Country).Mul(c.delivery)

	var res Result
	res.VaccinatedYear1 = r.Population.Mul(c.cfg.Coverage)
	res.DosesYear1 = c.doses(res.VaccinatedYear1)
	res.WastedYear1 = res.DosesYear1.Sub(res.VaccinatedYear1)
	res.CostYear1 = price(res.DosesYear1, unitCost, multiplier)

	res.Newborns = res.VaccinatedYear1.Mul(newbornRate)
	res.VaccinatedYear2 = res.Newborns.Mul(c.cfg.SecondYearCoverage)
	res.DosesYear2 = c.doses(res.VaccinatedYear2)
	res.WastedYear2 = res.DosesYear2.Sub(res.VaccinatedYear2)
	res.CostYear2 = price(res.DosesYear2, unitCost, multiplier)

	res.TotalCost = res.CostYear1.Add(res.CostYear2)
	return res, nil
}

// doses inflates a vaccinated headcount by the wastage rate.
func (c *Calculator) doses(vaccinated decimal.Decimal) decimal.Decimal {
	if vaccinated.IsZero() {
		return decimal.Zero
	}
	return vaccinated.Div(c.retained)
}

// price is the per-dose cost pipeline shared by both campaign years.
func price(doses, unitCost, multiplier decimal.Decimal) decimal.Decimal {
	return doses.Mul(unitCost).Mul(multiplier)
}
