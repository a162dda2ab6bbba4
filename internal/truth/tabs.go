package truth

// Predicate is a pure, total boolean test over one city truth row. Every
// predicate returns for every row; none may panic or mutate its input.
type Predicate func(row CityTruthRow, th Thresholds) bool

// Tab names in their fixed presentation order.
var TabOrder = []string{
	"TECH_CLUSTERS",
	"MID_MARKET",
	"MEGA_CITIES",
	"FRANCHISE",
	"NO_REG_ACTIVITY",
}

// Tabs is the fixed registry of named category predicates.
var Tabs = map[string]Predicate{
	"TECH_CLUSTERS": func(row CityTruthRow, th Thresholds) bool {
		return row.RegCount > 0 && row.TechCount >= th.TechClusterMinTech
	},
	"MID_MARKET": func(row CityTruthRow, th Thresholds) bool {
		return row.RegCount > 0 &&
			row.TechCount >= th.MidMarketMinTech &&
			row.TechCount <= th.MidMarketMaxTech
	},
	"MEGA_CITIES": func(row CityTruthRow, th Thresholds) bool {
		return row.RegCount >= th.MegaCityMinReg
	},
	"FRANCHISE": func(row CityTruthRow, th Thresholds) bool {
		return row.SegSummary[SegCorpFranchise] > 0 || row.SegSummary[SegCorpOwned] > 0
	},
	"NO_REG_ACTIVITY": func(row CityTruthRow, th Thresholds) bool {
		return row.RegCount == 0 && row.TechCount > 0
	},
}

// FilterTab applies a named tab predicate over city rows. An unknown tab
// name yields an empty result rather than an error; the tab set is fixed.
func FilterTab(name string, rows []CityTruthRow, th Thresholds) []CityTruthRow {
	pred, ok := Tabs[name]
	if !ok {
		return nil
	}
	var out []CityTruthRow
	for _, row := range rows {
		if pred(row, th) {
			out = append(out, row)
		}
	}
	return out
}
