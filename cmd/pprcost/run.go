package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/eufmd/pprcost/internal/logging"
	"github.com/eufmd/pprcost/pkg/aggregate"
	"github.com/eufmd/pprcost/pkg/campaign"
	"github.com/eufmd/pprcost/pkg/episystem"
	"github.com/eufmd/pprcost/pkg/export"
	"github.com/eufmd/pprcost/pkg/population"
	"github.com/eufmd/pprcost/pkg/scenario"
	"github.com/eufmd/pprcost/pkg/validation"
)

// project is a loaded scenario with its population tables.
type project struct {
	cfg  scenario.Config
	data *population.Dataset
}

// loadProject reads the scenario and population tables of projectPath,
// honouring the file name overrides.
func (a *app) loadProject(projectPath string) (*project, error) {
	cfg, err := scenario.Load(filepath.Join(projectPath, a.v.GetString("scenario")))
	if err != nil {
		return nil, fmt.Errorf("loading scenario: %w", err)
	}

	nationalPath := filepath.Join(projectPath, a.v.GetString("national"))
	subPath := ""
	if name := a.v.GetString("subregions"); name != "" {
		subPath = filepath.Join(projectPath, name)
		if _, err := os.Stat(subPath); errors.Is(err, os.ErrNotExist) {
			a.log.V(logging.DEBUG).Info("no subregional table", "path", subPath)
			subPath = ""
		}
	}

	data, err := population.NewLoader(a.log).LoadTables(nationalPath, subPath)
	if err != nil {
		return nil, fmt.Errorf("loading population: %w", err)
	}
	return &project{cfg: data.ApplyStability(cfg), data: data}, nil
}

func (a *app) records(p *project) (population.Source, []population.Record, error) {
	src, err := population.ParseSource(a.v.GetString("source"))
	if err != nil {
		return "", nil, err
	}
	records, err := p.data.Records(src)
	if err != nil {
		return "", nil, err
	}
	return src, records, nil
}

// evaluate runs the campaign and prints any validation report that explains
// a rejection.
func (a *app) evaluate(w io.Writer, p *project, records []population.Record, opts ...campaign.Option) (*campaign.Outcome, error) {
	out, err := campaign.Evaluate(p.cfg, records, opts...)
	var ce *validation.ConfigError
	if errors.As(err, &ce) {
		printValidationReport(w, ce.Report)
		return nil, errors.New("scenario has validation errors; fix before computing cost")
	}
	return out, err
}

func (a *app) runValidate(w io.Writer, projectPath string) error {
	p, err := a.loadProject(projectPath)
	if err != nil {
		return err
	}

	report := validation.ValidateScenario(p.cfg)
	for _, src := range []population.Source{population.SourceNational, population.SourceSubregional} {
		records, err := p.data.Records(src)
		if err != nil {
			continue
		}
		for _, r := range records {
			if err := r.Validate(); err != nil {
				report.AddError(validation.Result{
					Level:   validation.LevelCoverage,
					Message: err.Error(),
					Path:    string(src),
				})
			}
		}
		kept, excluded := population.Exclude(records, p.cfg.ExcludedCountries)
		report.Merge(validation.ValidateCoverage(p.cfg, population.Regions(kept), population.SpeciesOf(kept)))
		report.AddInfo(validation.Result{
			Level:   validation.LevelCoverage,
			Message: fmt.Sprintf("%s table: %d records, %d excluded countries", src, len(kept), len(excluded)),
			Path:    string(src),
		})
	}

	printValidationReport(w, report)
	if !report.Valid {
		return errors.New("scenario has validation errors")
	}
	return nil
}

// campaignOptions collects the evaluation options shared by evaluate and
// export.
func (a *app) campaignOptions(sel campaign.Selection, episystems bool) []campaign.Option {
	var opts []campaign.Option
	if a.v.GetBool("species") {
		opts = append(opts, campaign.BySpecies())
	}
	if episystems {
		opts = append(opts, campaign.WithEpisystems(episystem.Default()))
	}
	if a.v.GetBool("within-episystems") {
		opts = append(opts, campaign.WithinEpisystems(episystem.Default()))
	}
	if len(sel) > 0 {
		opts = append(opts, campaign.Select(sel))
	}
	return opts
}

func (a *app) runEvaluate(w io.Writer, projectPath string, sel campaign.Selection) error {
	p, err := a.loadProject(projectPath)
	if err != nil {
		return err
	}
	src, records, err := a.records(p)
	if err != nil {
		return err
	}

	level, ok := aggregate.ParseLevel(a.v.GetString("level"))
	if !ok {
		return fmt.Errorf("unknown level %q", a.v.GetString("level"))
	}
	out, err := a.evaluate(w, p, records, a.campaignOptions(sel, a.v.GetBool("episystems"))...)
	if err != nil {
		return err
	}
	a.log.Info("evaluated scenario", "scenario", out.Scenario.Name, "source", src,
		"records", out.Tables.Records(), "excluded", len(out.Excluded), "selected", len(sel))

	if consistency := aggregate.CheckConsistency(out.Tables); !consistency.Valid {
		printValidationReport(w, consistency)
		return errors.New("roll-up is inconsistent")
	}

	if a.v.GetBool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printOutcome(w, out, src, level)
	if len(out.Episystems) > 0 {
		fmt.Fprintln(w)
		printRows(w, "Episystems", out.Episystems)
		printOverlaps(w, out.Overlaps)
	}
	if len(out.Warnings) > 0 {
		fmt.Fprintln(w)
		warnings := validation.NewReport()
		warnings.AddWarning(out.Warnings...)
		printValidationReport(w, warnings)
	}
	return nil
}

func (a *app) runBands(w io.Writer, projectPath string) error {
	p, err := a.loadProject(projectPath)
	if err != nil {
		return err
	}
	_, records, err := a.records(p)
	if err != nil {
		return err
	}
	bands, err := campaign.EvaluateBands(p.cfg, records)
	var ce *validation.ConfigError
	if errors.As(err, &ce) {
		printValidationReport(w, ce.Report)
		return errors.New("scenario has validation errors")
	}
	if err != nil {
		return err
	}
	printBands(w, bands)
	return nil
}

func (a *app) runExport(w io.Writer, projectPath string, sel campaign.Selection) (err error) {
	p, err := a.loadProject(projectPath)
	if err != nil {
		return err
	}
	_, records, err := a.records(p)
	if err != nil {
		return err
	}

	table := a.v.GetString("table")
	var level aggregate.Level
	switch table {
	case "entities", string(episystem.Level):
	default:
		var ok bool
		if level, ok = aggregate.ParseLevel(table); !ok {
			return fmt.Errorf("unknown table %q (want entities, episystem or a roll-up level)", table)
		}
	}

	out, err := a.evaluate(w, p, records, a.campaignOptions(sel, table == string(episystem.Level))...)
	if err != nil {
		return err
	}

	dst := w
	if path := a.v.GetString("out"); path != "" && path != "-" {
		f, cerr := os.Create(path)
		if cerr != nil {
			return cerr
		}
		defer closeInto(f, &err)
		dst = f
	}

	switch table {
	case "entities":
		err = export.WriteEntities(dst, out.Entries)
	case string(episystem.Level):
		err = export.WriteRows(dst, out.Episystems)
	default:
		err = export.WriteRows(dst, out.Tables.Level(level))
	}
	if err != nil {
		return fmt.Errorf("writing %s table: %w", table, err)
	}
	a.log.V(logging.DEBUG).Info("export written", "table", table, "out", a.v.GetString("out"))
	return nil
}

// closeInto closes c and reports its error through err unless err already
// holds one.
func closeInto(c io.Closer, err *error) {
	if cerr := c.Close(); *err == nil {
		*err = cerr
	}
}
