package population

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eufmd/pprcost/internal/logging"
	"github.com/eufmd/pprcost/pkg/scenario"
)

// Source selects which population table feeds an evaluation.
type Source string

const (
	SourceNational    Source = "national"
	SourceSubregional Source = "subregional"
)

// ParseSource accepts any casing of national or subregional.
func ParseSource(s string) (Source, error) {
	switch src := Source(strings.ToLower(strings.TrimSpace(s))); src {
	case SourceNational, SourceSubregional:
		return src, nil
	case "":
		return SourceNational, nil
	}
	return "", fmt.Errorf("unknown population source %q (want national or subregional)", s)
}

// Dataset holds both population tables of a project.
type Dataset struct {
	National    []Record
	Subregional []Record
	// StabilityIndex is the per-country index read from the national table.
	StabilityIndex map[string]decimal.Decimal
}

// Records returns the records of the selected table.
func (d *Dataset) Records(src Source) ([]Record, error) {
	switch src {
	case SourceNational, "":
		return d.National, nil
	case SourceSubregional:
		if len(d.Subregional) == 0 {
			return nil, errors.New("project has no subregional population table")
		}
		return d.Subregional, nil
	}
	return nil, fmt.Errorf("unknown population source %q", src)
}

// ApplyStability returns a copy of cfg whose stability indices are filled in
// from the dataset. Indices already set in the scenario take precedence.
func (d *Dataset) ApplyStability(cfg scenario.Config) scenario.Config {
	out := cfg.Clone()
	out.PoliticalStability.IndexByCountry = scenario.MergeIndexes(out.PoliticalStability.IndexByCountry, d.StabilityIndex)
	return out
}

// LoadDataset reads the national table and, if present, the subregional
// table from a project directory.
func (l *Loader) LoadDataset(projectDir string) (*Dataset, error) {
	nationalPath, err := findTable(projectDir, NationalFile)
	if err != nil {
		return nil, err
	}
	subPath, err := findTable(projectDir, SubregionalFile)
	if errors.Is(err, os.ErrNotExist) {
		l.log.V(logging.DEBUG).Info("no subregional table", "dir", projectDir)
		subPath = ""
	} else if err != nil {
		return nil, err
	}
	return l.LoadTables(nationalPath, subPath)
}

// LoadTables reads a national table and an optional subregional table
// (empty path for none). Subregional rows take their regions from the
// national records.
func (l *Loader) LoadTables(nationalPath, subregionPath string) (*Dataset, error) {
	nt, err := l.LoadNational(nationalPath)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{National: nt.Records, StabilityIndex: nt.StabilityIndex}
	if subregionPath == "" {
		return ds, nil
	}
	ds.Subregional, err = l.LoadSubregions(subregionPath, nt.Records)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// findTable prefers name as given and falls back to the .xlsx variant.
func findTable(dir, name string) (string, error) {
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	alt := strings.TrimSuffix(p, filepath.Ext(p)) + ".xlsx"
	if _, err := os.Stat(alt); err == nil {
		return alt, nil
	}
	return "", fmt.Errorf("population table %s: %w", name, os.ErrNotExist)
}
