package aggregate

import (
	"sort"
	"strings"

	"github.com/eufmd/pprcost/pkg/cost"
	"github.com/eufmd/pprcost/pkg/population"
	"github.com/eufmd/pprcost/pkg/scenario"
)

// Level is a tier of the geographic roll-up, or the name of a custom
// grouping built with Group.
type Level string

const (
	LevelSubregion Level = "subregion"
	LevelCountry   Level = "country"
	LevelRegion    Level = "region"
	LevelContinent Level = "continent"
)

// Hierarchy lists the geographic tiers from finest to coarsest.
var Hierarchy = []Level{LevelSubregion, LevelCountry, LevelRegion, LevelContinent}

// ParseLevel accepts any casing of a hierarchy tier.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	for _, h := range Hierarchy {
		if l == h {
			return l, true
		}
	}
	return "", false
}

// Key identifies one aggregate row. Fields finer than the row's level are
// empty; Species is set only for species breakdowns.
type Key struct {
	Group     string           `json:"group,omitempty"`
	Region    string           `json:"region,omitempty"`
	Country   string           `json:"country,omitempty"`
	Subregion string           `json:"subregion,omitempty"`
	Species   scenario.Species `json:"species,omitempty"`
}

// String renders the key as a path, "Africa" for the continent.
func (k Key) String() string {
	var parts []string
	for _, p := range []string{k.Group, k.Region, k.Country, k.Subregion} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "Africa")
	}
	s := strings.Join(parts, " / ")
	if k.Species != "" {
		s += " (" + string(k.Species) + ")"
	}
	return s
}

func (k Key) parent(level Level) Key {
	switch level {
	case LevelCountry:
		return Key{Region: k.Region, Country: k.Country, Species: k.Species}
	case LevelRegion:
		return Key{Region: k.Region, Species: k.Species}
	case LevelContinent:
		return Key{Species: k.Species}
	}
	return k
}

func (k Key) less(o Key) bool {
	if k.Group != o.Group {
		return k.Group < o.Group
	}
	if k.Region != o.Region {
		return k.Region < o.Region
	}
	if k.Country != o.Country {
		return k.Country < o.Country
	}
	if k.Subregion != o.Subregion {
		return k.Subregion < o.Subregion
	}
	return k.Species < o.Species
}

// Entry pairs a population record with its computed cost.
type Entry struct {
	Record population.Record `json:"record"`
	Result cost.Result       `json:"result"`
}

// Row is one aggregate result.
type Row struct {
	Level   Level       `json:"level"`
	Key     Key         `json:"key"`
	Records int         `json:"records"`
	Totals  cost.Result `json:"totals"`

	// direct holds entries summed straight into a country row because they
	// carry no subregion.
	direct        cost.Result
	directRecords int
}

type options struct {
	bySpecies bool
}

// Option configures a roll-up.
type Option func(*options)

// BySpecies keeps species as a sub-grouping dimension at every level.
func BySpecies() Option {
	return func(o *options) { o.bySpecies = true }
}

// Tables holds the rows of every tier of one roll-up.
type Tables struct {
	BySpecies bool            `json:"by_species"`
	Rows      map[Level][]Row `json:"rows"`

	index      map[Level]map[Key]int
	entryTotal cost.Result
	entryCount int
}

// Rollup groups entries by subregion, then builds each coarser tier from the
// rows of the tier below by summing every field. Entries without a subregion
// are summed directly into their country.
func Rollup(entries []Entry, opts ...Option) *Tables {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	t := &Tables{
		BySpecies: o.bySpecies,
		Rows:      map[Level][]Row{},
		index:     map[Level]map[Key]int{},
	}

	subregions := map[Key]*Row{}
	countries := map[Key]*Row{}
	for _, e := range entries {
		t.entryTotal = t.entryTotal.Plus(e.Result)
		t.entryCount++

		k := Key{Region: e.Record.Region, Country: e.Record.Country, Subregion: e.Record.Subregion}
		if o.bySpecies {
			k.Species = e.Record.Species
		}
		if k.Subregion == "" {
			row := upsert(countries, LevelCountry, k.parent(LevelCountry))
			row.direct = row.direct.Plus(e.Result)
			row.directRecords++
			continue
		}
		row := upsert(subregions, LevelSubregion, k)
		row.Totals = row.Totals.Plus(e.Result)
		row.Records++
	}
	t.set(LevelSubregion, subregions)

	for _, sub := range t.Rows[LevelSubregion] {
		row := upsert(countries, LevelCountry, sub.Key.parent(LevelCountry))
		row.Totals = row.Totals.Plus(sub.Totals)
		row.Records += sub.Records
	}
	for _, row := range countries {
		row.Totals = row.Totals.Plus(row.direct)
		row.Records += row.directRecords
	}
	t.set(LevelCountry, countries)

	t.set(LevelRegion, rollLevel(t.Rows[LevelCountry], LevelRegion))
	t.set(LevelContinent, rollLevel(t.Rows[LevelRegion], LevelContinent))
	return t
}

func rollLevel(children []Row, level Level) map[Key]*Row {
	parents := map[Key]*Row{}
	for _, child := range children {
		row := upsert(parents, level, child.Key.parent(level))
		row.Totals = row.Totals.Plus(child.Totals)
		row.Records += child.Records
	}
	return parents
}

func upsert(m map[Key]*Row, level Level, k Key) *Row {
	row, ok := m[k]
	if !ok {
		row = &Row{Level: level, Key: k}
		m[k] = row
	}
	return row
}

func (t *Tables) set(level Level, m map[Key]*Row) {
	rows := make([]Row, 0, len(m))
	for _, r := range m {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key.less(rows[j].Key) })

	idx := make(map[Key]int, len(rows))
	for i, r := range rows {
		idx[r.Key] = i
	}
	t.Rows[level] = rows
	t.index[level] = idx
}

// Level returns the rows of one tier in key order.
func (t *Tables) Level(level Level) []Row {
	return t.Rows[level]
}

// Lookup returns the row of a tier with the given key.
func (t *Tables) Lookup(level Level, k Key) (Row, bool) {
	i, ok := t.index[level][k]
	if !ok {
		return Row{}, false
	}
	return t.Rows[level][i], true
}

// Children returns the rows of the next finer tier whose parent is row.
func (t *Tables) Children(row Row) []Row {
	finer := finerLevel(row.Level)
	if finer == "" {
		return nil
	}
	var out []Row
	for _, c := range t.Rows[finer] {
		if c.Key.parent(row.Level) == row.Key {
			out = append(out, c)
		}
	}
	return out
}

// Total is the continental total across species.
func (t *Tables) Total() cost.Result {
	var total cost.Result
	for _, r := range t.Rows[LevelContinent] {
		total = total.Plus(r.Totals)
	}
	return total
}

// Records is the number of entries rolled up.
func (t *Tables) Records() int {
	return t.entryCount
}

func finerLevel(level Level) Level {
	for i, h := range Hierarchy {
		if h == level && i > 0 {
			return Hierarchy[i-1]
		}
	}
	return ""
}

// Group builds a flat grouping of entries under a custom level name. keyFn
// returns the group of an entry, or false to leave the entry out. Rows are
// sorted by group name.
func Group(entries []Entry, level Level, keyFn func(Entry) (string, bool), opts ...Option) []Row {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	groups := map[Key]*Row{}
	for _, e := range entries {
		name, ok := keyFn(e)
		if !ok {
			continue
		}
		k := Key{Group: name}
		if o.bySpecies {
			k.Species = e.Record.Species
		}
		row := upsert(groups, level, k)
		row.Totals = row.Totals.Plus(e.Result)
		row.Records++
	}
	rows := make([]Row, 0, len(groups))
	for _, r := range groups {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key.less(rows[j].Key) })
	return rows
}
