package truth

import (
	"math"
	"sort"

	"github.com/premise-atlas/internal/normalize"
)

// BuildCityTruth reduces address truth rows to one row per city identity.
func BuildCityTruth(rows []AddressTruthRow) []CityTruthRow {
	byCity := make(map[string]*CityTruthRow)
	for _, row := range rows {
		city, ok := byCity[row.CityKey]
		if !ok {
			city = &CityTruthRow{
				CityID:     normalize.HashID("cty_", row.CityKey),
				CityKey:    row.CityKey,
				SegSummary: make(map[string]int),
				Reasons:    []string{},
			}
			byCity[row.CityKey] = city
		}
		city.RegCount += row.RegCount
		city.TechCount += row.TechCount
		city.AddrCount++
		city.CandCount += row.Cand
		city.SegSummary[row.Seg]++
		if row.BrandKey != "" {
			if city.BrandSummary == nil {
				city.BrandSummary = make(map[string]int)
			}
			city.BrandSummary[row.BrandKey]++
		}
	}

	out := make([]CityTruthRow, 0, len(byCity))
	for _, city := range byCity {
		city.TechPerReg = safeTechPerReg(city)
		out = append(out, *city)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CityKey < out[j].CityKey })
	return out
}

// safeTechPerReg computes the tech/reg ratio without ever producing a
// sentinel or overflow value. Downstream sorting and filtering depend on
// the regCount==0 branch returning the tech count verbatim.
func safeTechPerReg(city *CityTruthRow) float64 {
	if city.RegCount > 0 {
		return math.Round(float64(city.TechCount)/float64(city.RegCount)*100) / 100
	}
	if city.TechCount > 0 {
		city.Reasons = append(city.Reasons, "REG==0 but TECH>0")
	}
	return float64(city.TechCount)
}
