package aggregate

import (
	"fmt"

	"github.com/eufmd/pprcost/pkg/cost"
	"github.com/eufmd/pprcost/pkg/validation"
)

// CheckConsistency verifies that every row equals the field-wise sum of its
// children at the next finer tier, and that the continental total equals the
// sum of all entries. Any mismatch is an error finding.
func CheckConsistency(t *Tables) *validation.Report {
	r := validation.NewReport()

	checked := 0
	for _, level := range Hierarchy[1:] {
		for _, row := range t.Rows[level] {
			sum := cost.Result{}
			records := 0
			for _, c := range t.Children(row) {
				sum = sum.Plus(c.Totals)
				records += c.Records
			}
			sum = sum.Plus(row.direct)
			records += row.directRecords

			compare(r, fmt.Sprintf("%s.%s", level, row.Key), row.Totals, sum)
			if records != row.Records {
				r.AddError(validation.Result{
					Level:       validation.LevelConsistency,
					Message:     fmt.Sprintf("%s %s counts %d records, children count %d", level, row.Key, row.Records, records),
					Path:        fmt.Sprintf("%s.%s.records", level, row.Key),
					ActualValue: row.Records,
					Expected:    fmt.Sprintf("%d", records),
				})
			}
			checked++
		}
	}

	compare(r, "continent.entries", t.Total(), t.entryTotal)

	r.AddInfo(validation.Result{
		Level:   validation.LevelConsistency,
		Message: fmt.Sprintf("checked %d aggregate rows over %d records", checked, t.entryCount),
	})
	return r
}

func compare(r *validation.Report, path string, got, want cost.Result) {
	g, w := got.Fields(), want.Fields()
	for i := range g {
		if !g[i].Value.Equal(w[i].Value) {
			r.AddError(validation.Result{
				Level:       validation.LevelConsistency,
				Message:     fmt.Sprintf("%s %s = %s, children sum to %s", path, g[i].Name, g[i].Value, w[i].Value),
				Path:        fmt.Sprintf("%s.%s", path, g[i].Name),
				ActualValue: g[i].Value.String(),
				Expected:    w[i].Value.String(),
			})
		}
	}
}
