package population

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/eufmd/pprcost/internal/logging"
	"github.com/eufmd/pprcost/pkg/scenario"
)

// Default file names inside a project directory.
const (
	NationalFile    = "national.csv"
	SubregionalFile = "subregions.csv"
)

// column names a canonical field and the header spellings accepted for it,
// in order of preference.
type column struct {
	field    string
	headers  []string
	required bool
}

var (
	colCountry   = column{"country", []string{"Country", "Country_Name", "ADM0_Name"}, true}
	colRegion    = column{"region", []string{"Region", "AU_Region"}, false}
	colSubregion = column{"subregion", []string{"Subregion", "ADM1", "ADM1_Name", "Province"}, true}
	colSpecies   = column{"species", []string{"Species", "Specie", "Animal"}, true}
	colNatPop    = column{"population", []string{"Population", "VADEMOS Forecasted Value", "Forecasted Value"}, true}
	colSubPop    = column{"population", []string{"Population", "100%_Coverage", "Coverage_100"}, true}
	colPSI       = column{"political_stability_index", []string{"Political_Stability_Index", "PSI", "Stability Index"}, false}
)

// Loader reads population tables from CSV or XLSX files. Header spellings
// differ between data vintages; the loader maps them onto canonical fields
// and logs every remap and every blank value it treats as zero.
type Loader struct {
	log logr.Logger
}

// NewLoader returns a loader that writes its audit trail to log.
func NewLoader(log logr.Logger) *Loader {
	return &Loader{log: log.WithName("population")}
}

// NationalTable is the parsed country-level table.
type NationalTable struct {
	Records []Record
	// StabilityIndex holds the per-country political stability index found
	// in the table, keyed by country as written in the file.
	StabilityIndex map[string]decimal.Decimal
}

// ReadTable returns the header and data rows of a .csv or .xlsx file. For
// workbooks the first sheet is read.
func (l *Loader) ReadTable(path string) ([]string, [][]string, error) {
	var rows [][]string
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(path)
	default:
		return nil, nil, fmt.Errorf("unsupported table format %q (want .csv or .xlsx)", ext)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s: table is empty", filepath.Base(path))
	}
	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header, rows[1:], nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening population table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening population workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", filepath.Base(path))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q of %s: %w", sheets[0], filepath.Base(path), err)
	}
	return rows, nil
}

// LoadNational reads a country-level table from path.
func (l *Loader) LoadNational(path string) (*NationalTable, error) {
	header, rows, err := l.ReadTable(path)
	if err != nil {
		return nil, err
	}
	return l.ParseNational(filepath.Base(path), header, rows)
}

// ParseNational converts raw national rows into records. Countries without a
// known continental region are rejected with a *DataError.
func (l *Loader) ParseNational(source string, header []string, rows [][]string) (*NationalTable, error) {
	cols, err := l.mapColumns(source, header, colCountry, colRegion, colSpecies, colNatPop, colPSI)
	if err != nil {
		return nil, err
	}

	t := &NationalTable{StabilityIndex: map[string]decimal.Decimal{}}
	// first spelling of each country that carries an index
	spelling := map[string]string{}
	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		rec, err := l.parseRow(source, i+2, row, cols)
		if err != nil {
			return nil, err
		}

		if idx, ok := cols["political_stability_index"]; ok {
			raw := strings.TrimSpace(cell(row, idx))
			if raw != "" {
				v, err := decimal.NewFromString(raw)
				if err != nil {
					return nil, newDataError(rec, "political_stability_index", raw, "not a number")
				}
				n := scenario.NormalizeName(rec.Country)
				if first, seen := spelling[n]; !seen {
					spelling[n] = rec.Country
					t.StabilityIndex[rec.Country] = v
				} else if prev := t.StabilityIndex[first]; !prev.Equal(v) {
					l.log.Info("conflicting stability index, keeping first", "source", source, "row", rec.Row, "country", rec.Country, "kept", prev.String(), "ignored", v.String())
				}
			}
		}
		t.Records = append(t.Records, rec)
	}
	l.log.V(logging.DEBUG).Info("loaded national table", "source", source, "records", len(t.Records), "countries_with_index", len(t.StabilityIndex))
	return t, nil
}

// LoadSubregions reads a subnational table from path. Regions are taken from
// the table when present, then from the national records, then from the
// built-in country grouping.
func (l *Loader) LoadSubregions(path string, national []Record) ([]Record, error) {
	header, rows, err := l.ReadTable(path)
	if err != nil {
		return nil, err
	}
	return l.ParseSubregions(filepath.Base(path), header, rows, national)
}

// ParseSubregions converts raw subnational rows into records.
func (l *Loader) ParseSubregions(source string, header []string, rows [][]string, national []Record) ([]Record, error) {
	cols, err := l.mapColumns(source, header, colCountry, colRegion, colSubregion, colSpecies, colSubPop)
	if err != nil {
		return nil, err
	}

	nationalRegion := map[string]string{}
	for _, r := range national {
		nationalRegion[scenario.NormalizeName(r.Country)] = r.Region
	}

	var out []Record
	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		rec, err := l.parseRow(source, i+2, row, cols, nationalRegion)
		if err != nil {
			return nil, err
		}
		if rec.Subregion == "" {
			return nil, newDataError(rec, "subregion", "", "subregion is empty")
		}
		out = append(out, rec)
	}
	l.log.V(logging.DEBUG).Info("loaded subregional table", "source", source, "records", len(out))
	return out, nil
}

// parseRow reads the fields shared by both tables. Region lookups consult the
// region column, then each fallback map, then the built-in grouping.
func (l *Loader) parseRow(source string, rowNum int, row []string, cols map[string]int, fallbacks ...map[string]string) (Record, error) {
	rec := Record{
		Source:  source,
		Row:     rowNum,
		Country: strings.TrimSpace(cell(row, cols["country"])),
	}
	if idx, ok := cols["subregion"]; ok {
		rec.Subregion = strings.TrimSpace(cell(row, idx))
	}

	rawSpecies := cell(row, cols["species"])
	sp, err := scenario.ParseSpecies(rawSpecies)
	if err != nil {
		return rec, newDataError(rec, "species", rawSpecies, "unknown species")
	}
	rec.Species = sp

	if idx, ok := cols["region"]; ok {
		rec.Region = strings.TrimSpace(cell(row, idx))
	}
	if rec.Region == "" {
		for _, m := range fallbacks {
			if r, ok := m[scenario.NormalizeName(rec.Country)]; ok {
				rec.Region = r
				break
			}
		}
	}
	if rec.Region == "" {
		rec.Region, _ = RegionOf(rec.Country)
	}

	rawPop := cell(row, cols["population"])
	pop, blank, err := parsePopulation(rawPop)
	if err != nil {
		return rec, newDataError(rec, "population", rawPop, "not a number")
	}
	if blank {
		l.log.Info("blank population treated as zero", "source", source, "row", rowNum, "record", rec.Label())
	}
	rec.Population = pop

	if err := rec.Validate(); err != nil {
		return rec, err
	}
	return rec, nil
}

// parsePopulation strips thousands separators. A blank cell is zero.
func parsePopulation(raw string) (decimal.Decimal, bool, error) {
	s := strings.NewReplacer(",", "", " ", "", "_", "", "\u00a0", "").Replace(strings.TrimSpace(raw))
	if s == "" || s == "-" {
		return decimal.Zero, true, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, err
	}
	return v, false, nil
}

func (l *Loader) mapColumns(source string, header []string, want ...column) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}

	cols := make(map[string]int, len(want))
	for _, c := range want {
		found := false
		for _, h := range c.headers {
			if i, ok := pos[strings.ToLower(h)]; ok {
				cols[c.field] = i
				found = true
				if h != c.headers[0] {
					l.log.V(logging.DEBUG).Info("mapped column", "source", source, "header", header[i], "field", c.field)
				}
				break
			}
		}
		if !found && c.required {
			return nil, &DataError{
				Source:  source,
				Row:     1,
				Field:   c.field,
				Message: fmt.Sprintf("missing column (accepted headers: %s)", strings.Join(c.headers, ", ")),
			}
		}
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
