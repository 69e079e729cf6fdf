package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/eufmd/pprcost/pkg/aggregate"
	"github.com/eufmd/pprcost/pkg/campaign"
	"github.com/eufmd/pprcost/pkg/population"
	"github.com/eufmd/pprcost/pkg/validation"
)

func printValidationReport(w io.Writer, r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			printResult(w, e)
		}
		fmt.Fprintln(w)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "WARNINGS (%d):\n", len(r.Warnings))
		for _, wr := range r.Warnings {
			printResult(w, wr)
		}
		fmt.Fprintln(w)
	}

	if len(r.Info) > 0 {
		fmt.Fprintf(w, "INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Fprintf(w, "  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Fprintln(w)
	}

	if r.Valid {
		fmt.Fprintf(w, "Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Fprintf(w, "Result: INVALID (%s)\n", r.Summary)
	}
}

func printResult(w io.Writer, r validation.Result) {
	fmt.Fprintf(w, "  [%s] %s\n", r.Level, r.Message)
	if r.Path != "" && r.ActualValue != nil {
		fmt.Fprintf(w, "    -> %s = %v\n", r.Path, r.ActualValue)
	}
	if r.Expected != "" {
		fmt.Fprintf(w, "    expected: %s\n", r.Expected)
	}
	for _, s := range r.Suggestions {
		fmt.Fprintf(w, "    * %s\n", s)
	}
}

func printOutcome(w io.Writer, out *campaign.Outcome, src population.Source, level aggregate.Level) {
	title := fmt.Sprintf("%s (%s population, by %s)", out.Scenario.Name, src, level)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
	fmt.Fprintln(w)

	printRows(w, "", out.Tables.Level(level))

	total := out.Total()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary")
	fmt.Fprintln(w, "-------")
	fmt.Fprintf(w, "  Population records:           %s\n", humanize.Comma(int64(out.Tables.Records())))
	fmt.Fprintf(w, "  Animals vaccinated (year 1):  %s\n", formatCount(total.VaccinatedYear1))
	fmt.Fprintf(w, "  Animals vaccinated (year 2):  %s\n", formatCount(total.VaccinatedYear2))
	fmt.Fprintf(w, "  Doses (both years):           %s\n", formatCount(total.DosesYear1.Add(total.DosesYear2)))
	fmt.Fprintf(w, "  Cost year 1:                  $%s\n", formatMoney(total.CostYear1))
	fmt.Fprintf(w, "  Cost year 2:                  $%s\n", formatMoney(total.CostYear2))
	fmt.Fprintf(w, "  Total cost:                   $%s\n", formatMoney(total.TotalCost))
	if len(out.Excluded) > 0 {
		fmt.Fprintf(w, "  Excluded countries:           %s\n", strings.Join(out.Excluded, ", "))
	}
}

func printRows(w io.Writer, title string, rows []aggregate.Row) {
	if title != "" {
		fmt.Fprintln(w, title)
		fmt.Fprintln(w, strings.Repeat("-", len(title)))
	}
	fmt.Fprintf(w, "%-40s %8s %16s %16s %16s %16s %16s\n",
		"Group", "Records", "Vaccinated Y1", "Cost Y1", "Vaccinated Y2", "Cost Y2", "Total")
	fmt.Fprintf(w, "%-40s %8s %16s %16s %16s %16s %16s\n",
		strings.Repeat("-", 40), "--------", "----------------", "----------------",
		"----------------", "----------------", "----------------")
	for _, row := range rows {
		t := row.Totals
		fmt.Fprintf(w, "%-40s %8s %16s %16s %16s %16s %16s\n",
			row.Key.String(), humanize.Comma(int64(row.Records)),
			formatCount(t.VaccinatedYear1), formatMoney(t.CostYear1),
			formatCount(t.VaccinatedYear2), formatMoney(t.CostYear2),
			formatMoney(t.TotalCost))
	}
}

func printOverlaps(w io.Writer, overlaps []campaign.Overlap) {
	for _, o := range overlaps {
		fmt.Fprintf(w, "  note: %s / %s counts toward %s (also listed in %s)\n",
			o.Country, o.Subregion, o.Episystems[0], strings.Join(o.Episystems[1:], ", "))
	}
}

func printBands(w io.Writer, bands []campaign.BandResult) {
	fmt.Fprintln(w, "Cost Bands")
	fmt.Fprintln(w, "==========")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-10s %-44s %16s %16s %16s\n", "Band", "Cost per animal", "Cost Y1", "Cost Y2", "Total")
	for _, b := range bands {
		regions := make([]string, 0, len(b.Costs))
		for region := range b.Costs {
			regions = append(regions, region)
		}
		sort.Strings(regions)
		costs := make([]string, len(regions))
		for i, region := range regions {
			costs[i] = region + "=" + b.Costs[region]
		}
		fmt.Fprintf(w, "%-10s %-44s %16s %16s %16s\n", b.Band, strings.Join(costs, " "),
			formatMoney(b.Total.CostYear1), formatMoney(b.Total.CostYear2), formatMoney(b.Total.TotalCost))
	}
}

func formatCount(d decimal.Decimal) string {
	return humanize.FormatFloat("#,###.", d.Round(0).InexactFloat64())
}

func formatMoney(d decimal.Decimal) string {
	return humanize.FormatFloat("#,###.##", d.InexactFloat64())
}
