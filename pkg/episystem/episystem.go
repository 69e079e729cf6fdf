// Package episystem groups subregions into the transboundary PPR
// episystems used for risk-targeted vaccination strategies.
package episystem

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eufmd/pprcost/pkg/aggregate"
	"github.com/eufmd/pprcost/pkg/population"
	"github.com/eufmd/pprcost/pkg/scenario"
)

// Level is the aggregate level name of episystem rows.
const Level aggregate.Level = "episystem"

//go:embed episystems.yaml
var defaultCatalog []byte

// Member lists the subregions of one country inside an episystem.
type Member struct {
	Country    string   `json:"country"`
	Subregions []string `json:"subregions"`
}

// Members keeps the country order of the catalog file.
type Members []Member

// UnmarshalYAML decodes a country → subregions mapping in document order.
func (m *Members) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: countries must be a mapping", node.Line)
	}
	out := make(Members, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var subs []string
		if err := node.Content[i+1].Decode(&subs); err != nil {
			return fmt.Errorf("line %d: %w", node.Content[i+1].Line, err)
		}
		out = append(out, Member{Country: node.Content[i].Value, Subregions: subs})
	}
	*m = out
	return nil
}

// Episystem is a network of interconnected small-ruminant populations that
// spans several countries.
type Episystem struct {
	Name      string  `yaml:"name" json:"name"`
	Countries Members `yaml:"countries" json:"countries"`
}

// Catalog is an ordered list of episystems.
type Catalog struct {
	Episystems []Episystem `yaml:"episystems" json:"episystems"`

	index map[string]string
}

// Parse decodes a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing episystem catalog: %w", err)
	}
	seen := map[string]bool{}
	for i, e := range c.Episystems {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("episystem %d has no name", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("duplicate episystem %q", e.Name)
		}
		seen[e.Name] = true
	}
	c.buildIndex()
	return &c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

func key(country, subregion string) string {
	return scenario.NormalizeName(country) + "|" + scenario.NormalizeName(subregion)
}

// buildIndex records the first episystem of every (country, subregion).
func (c *Catalog) buildIndex() {
	c.index = map[string]string{}
	for _, e := range c.Episystems {
		for _, m := range e.Countries {
			for _, s := range m.Subregions {
				k := key(m.Country, s)
				if _, ok := c.index[k]; !ok {
					c.index[k] = e.Name
				}
			}
		}
	}
}

// Lookup returns the first episystem in catalog order containing the
// subregion. Matching ignores case, accents and spaces.
func (c *Catalog) Lookup(country, subregion string) (string, bool) {
	name, ok := c.index[key(country, subregion)]
	return name, ok
}

// Memberships returns every episystem listing the subregion, in catalog
// order.
func (c *Catalog) Memberships(country, subregion string) []string {
	k := key(country, subregion)
	var out []string
	for _, e := range c.Episystems {
		for _, m := range e.Countries {
			for _, s := range m.Subregions {
				if key(m.Country, s) == k {
					out = append(out, e.Name)
				}
			}
		}
	}
	return out
}

// Filter keeps the records that fall inside some episystem. Country-level
// records never match.
func (c *Catalog) Filter(records []population.Record) []population.Record {
	var out []population.Record
	for _, r := range records {
		if _, ok := c.Lookup(r.Country, r.Subregion); ok {
			out = append(out, r)
		}
	}
	return out
}

// Rows aggregates entries by episystem. Each entry counts toward its first
// episystem only, so the rows partition the matched entries.
func (c *Catalog) Rows(entries []aggregate.Entry, opts ...aggregate.Option) []aggregate.Row {
	return aggregate.Group(entries, Level, func(e aggregate.Entry) (string, bool) {
		return c.Lookup(e.Record.Country, e.Record.Subregion)
	}, opts...)
}
