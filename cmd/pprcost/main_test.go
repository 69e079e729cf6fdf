package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eufmd/pprcost/pkg/campaign"
)

const defaultProject = "../../examples/default"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--log-level", "info", "--log-dev=false"))
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateDefaultProject(t *testing.T) {
	out, err := run(t, "validate", defaultProject)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Result: VALID")
	assert.Contains(t, out, "national table: 10 records, 1 excluded countries")
	assert.Contains(t, out, "subregional table: 16 records, 0 excluded countries")
}

func TestValidateInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	national, err := os.ReadFile(filepath.Join(defaultProject, "national.csv"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "national.csv"), national, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenario.yaml"), []byte("wastage: 1\n"), 0o644))

	out, err := run(t, "validate", dir)
	require.Error(t, err)
	assert.Contains(t, out, "Result: INVALID")
	assert.Contains(t, out, "-> wastage = 1")
}

func TestEvaluateTable(t *testing.T) {
	out, err := run(t, "evaluate", defaultProject, "--level", "country")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Default Scenario (national population, by country)")
	assert.Contains(t, out, "North Africa / Morocco")
	assert.Contains(t, out, "Population records:           10")
	assert.Contains(t, out, "Total cost:")
	assert.Contains(t, out, "Excluded countries:           Botswana")
}

func TestEvaluateEpisystems(t *testing.T) {
	out, err := run(t, "evaluate", defaultProject, "--source", "subregional", "--episystems")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Episystems")
	assert.Contains(t, out, "Karamoja")
	assert.Contains(t, out, "note: Nigeria / Borno counts toward Sahel (also listed in Lake Chad Basin)")
}

func TestEvaluateJSON(t *testing.T) {
	out, err := run(t, "evaluate", defaultProject, "--json")
	require.NoError(t, err)

	var body struct {
		Entries  []json.RawMessage `json:"entries"`
		Excluded []string          `json:"excluded_countries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Len(t, body.Entries, 10)
	assert.Equal(t, []string{"Botswana"}, body.Excluded)
}

func TestEvaluateRejectsBadFlags(t *testing.T) {
	_, err := run(t, "evaluate", defaultProject, "--level", "village")
	assert.ErrorContains(t, err, `unknown level "village"`)

	_, err = run(t, "evaluate", defaultProject, "--source", "district")
	assert.Error(t, err)

	_, err = run(t, "evaluate", defaultProject, "--source", "subregional", "--subregions", "")
	assert.ErrorContains(t, err, "no subregional population table")
}

func TestBands(t *testing.T) {
	out, err := run(t, "bands", defaultProject)
	require.NoError(t, err, out)
	for _, band := range []string{"minimum", "average", "maximum"} {
		assert.Contains(t, out, band)
	}
}

func TestExportToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.csv")
	_, err := run(t, "export", defaultProject, "--table", "entities", "--out", path)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	lines, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, lines, 11)
}

func TestExportToStdout(t *testing.T) {
	out, err := run(t, "export", defaultProject, "--table", "episystem", "--source", "subregional")
	require.NoError(t, err)
	lines, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, lines, 5)

	_, err = run(t, "export", defaultProject, "--table", "planet")
	assert.Error(t, err)
}

func TestEvaluateSelection(t *testing.T) {
	out, err := run(t, "evaluate", defaultProject, "--source", "subregional", "--level", "subregion",
		"--select", "Kenya", "--select", "Nigeria: Borno")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Population records:           6")
	assert.Contains(t, out, "Nigeria / Borno")
	assert.NotContains(t, out, "Nigeria / Kano")
	assert.NotContains(t, out, "Chad")

	out, err = run(t, "evaluate", defaultProject, "--source", "subregional", "--select", "Kenya:Nairobi")
	require.Error(t, err)
	assert.Contains(t, out, "selected subregions of Kenya have no population records: Nairobi")
}

func TestEvaluateWithinEpisystems(t *testing.T) {
	out, err := run(t, "evaluate", defaultProject, "--source", "subregional", "--within-episystems")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Population records:           14")
	assert.NotContains(t, out, "North Africa")
}

func TestExportSelection(t *testing.T) {
	out, err := run(t, "export", defaultProject, "--table", "entities", "--select", "Chad")
	require.NoError(t, err)
	lines, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, lines, 3)
}

func TestSelectionFlag(t *testing.T) {
	cmd := newRootCmd()
	eval, _, err := cmd.Find([]string{"evaluate"})
	require.NoError(t, err)
	require.NoError(t, eval.ParseFlags([]string{
		"--select", "Kenya", "--select", "Chad:Kanem, Ouaddai", "--select", "Chad:Lac",
	}))
	sel, err := selectionFlag(eval)
	require.NoError(t, err)
	assert.Equal(t, campaign.Selection{
		"Kenya": nil,
		"Chad":  {"Kanem", "Ouaddai", "Lac"},
	}, sel)

	for _, bad := range []string{":Kanem", "Chad:", "Chad: , "} {
		eval, _, err := newRootCmd().Find([]string{"evaluate"})
		require.NoError(t, err)
		require.NoError(t, eval.ParseFlags([]string{"--select", bad}))
		_, err = selectionFlag(eval)
		assert.Error(t, err, bad)
	}
}

type failCloser struct{ err error }

func (f failCloser) Close() error { return f.err }

func TestCloseIntoReportsCloseError(t *testing.T) {
	diskFull := errors.New("disk full")

	var err error
	closeInto(failCloser{diskFull}, &err)
	assert.ErrorIs(t, err, diskFull)

	writeErr := errors.New("write failed")
	err = writeErr
	closeInto(failCloser{diskFull}, &err)
	assert.ErrorIs(t, err, writeErr, "an earlier error wins over the close error")

	err = nil
	closeInto(failCloser{}, &err)
	assert.NoError(t, err)
}
