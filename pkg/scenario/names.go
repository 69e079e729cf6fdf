package scenario

import (
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds case, accents and whitespace so that "Côte d'Ivoire",
// "cote d'ivoire" and "Coted'Ivoire" compare equal. Country and subregion
// names from different data vintages are matched through it.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), ""))
}

// NameCollisions returns, for every normalized name shared by more than one
// key of m, the colliding keys in sorted order.
func NameCollisions[V any](m map[string]V) map[string][]string {
	groups := map[string][]string{}
	for k := range m {
		n := NormalizeName(k)
		groups[n] = append(groups[n], k)
	}
	out := map[string][]string{}
	for n, keys := range groups {
		if len(keys) > 1 {
			sort.Strings(keys)
			out[n] = keys
		}
	}
	return out
}

// MergeIndexes returns override plus every entry of base whose country is
// not already named in override under any spelling.
func MergeIndexes(override, base map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(override)+len(base))
	named := make(map[string]bool, len(override))
	for c, v := range override {
		out[c] = v
		named[NormalizeName(c)] = true
	}
	for c, v := range base {
		if !named[NormalizeName(c)] {
			out[c] = v
		}
	}
	return out
}
