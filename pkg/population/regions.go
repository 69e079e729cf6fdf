package population

import "github.com/eufmd/pprcost/pkg/scenario"

// African Union regional groupings, with the spellings used by FAOSTAT and
// the subnational tables.
var countryRegions = map[string][]string{
	scenario.RegionNorth: {
		"Algeria", "Egypt", "Libya", "Mauritania", "Morocco", "Tunisia",
		"Western Sahara", "Sahrawi Republic",
	},
	scenario.RegionWest: {
		"Benin", "Burkina Faso", "Cabo Verde", "Cape Verde", "Côte d'Ivoire",
		"Cote d'Ivoire", "Ivory Coast", "Gambia", "Ghana", "Guinea",
		"Guinea-Bissau", "Liberia", "Mali", "Niger", "Nigeria", "Senegal",
		"Sierra Leone", "Togo",
	},
	scenario.RegionCentral: {
		"Burundi", "Cameroon", "Central African Republic", "Chad", "Congo",
		"Republic of the Congo", "Democratic Republic of the Congo",
		"Equatorial Guinea", "Gabon", "Sao Tome and Principe",
	},
	scenario.RegionEast: {
		"Comoros", "Djibouti", "Eritrea", "Ethiopia", "Kenya", "Madagascar",
		"Mauritius", "Rwanda", "Seychelles", "Somalia", "South Sudan", "Sudan",
		"United Republic of Tanzania", "Tanzania", "Uganda",
	},
	scenario.RegionSouthern: {
		"Angola", "Botswana", "Eswatini", "eSwatini", "Kingdom of eSwatini",
		"Lesotho", "Malawi", "Mozambique", "Namibia", "South Africa", "Zambia",
		"Zimbabwe",
	},
}

var regionIndex = buildRegionIndex()

func buildRegionIndex() map[string]string {
	idx := map[string]string{}
	for region, countries := range countryRegions {
		for _, c := range countries {
			idx[scenario.NormalizeName(c)] = region
		}
	}
	return idx
}

// RegionOf returns the continental region of a country.
func RegionOf(country string) (string, bool) {
	r, ok := regionIndex[scenario.NormalizeName(country)]
	return r, ok
}
