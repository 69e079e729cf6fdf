// Package export writes evaluation results as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/eufmd/pprcost/pkg/aggregate"
	"github.com/eufmd/pprcost/pkg/cost"
)

// Places is the number of decimal places written for every value.
const Places = 2

// WriteEntities writes one line per evaluated record.
func WriteEntities(w io.Writer, entries []aggregate.Entry) error {
	cw := csv.NewWriter(w)
	header := append([]string{"country", "region", "subregion", "species", "population"}, cost.FieldNames()...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, e := range entries {
		line := []string{
			e.Record.Country,
			e.Record.Region,
			e.Record.Subregion,
			string(e.Record.Species),
			e.Record.Population.StringFixed(Places),
		}
		line = append(line, values(e.Result)...)
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("writing %s: %w", e.Record.Label(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRows writes aggregate rows, one line per row.
func WriteRows(w io.Writer, rows []aggregate.Row) error {
	cw := csv.NewWriter(w)
	header := append([]string{"level", "group", "region", "country", "subregion", "species", "records"}, cost.FieldNames()...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		line := []string{
			string(r.Level),
			r.Key.Group,
			r.Key.Region,
			r.Key.Country,
			r.Key.Subregion,
			string(r.Key.Species),
			strconv.Itoa(r.Records),
		}
		line = append(line, values(r.Totals)...)
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("writing %s row %s: %w", r.Level, r.Key, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func values(r cost.Result) []string {
	fields := r.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Value.StringFixed(Places)
	}
	return out
}
