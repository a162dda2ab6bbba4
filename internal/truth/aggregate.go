package truth

import (
	"sort"

	"github.com/premise-atlas/internal/brand"
	"github.com/premise-atlas/internal/normalize"
	"github.com/premise-atlas/internal/source"
)

// addrAcc is the per-address accumulator filled during the single pass over
// both source collections the build consumes.
type addrAcc struct {
	key         normalize.Key
	facilityIDs []string
	techIDs     []string
	brandKeys   []string
	brandSegs   map[string]string
}

// Aggregator implements the build-up-then-finalize pattern: upsert during
// the pass, finalize into rows afterwards. The two phases are separate
// methods so each is testable on its own.
type Aggregator struct {
	accs  map[string]*addrAcc
	reg   *brand.Registry
	th    Thresholds
	stats BuildStats
}

// NewAggregator builds an aggregator with the given brand registry and
// thresholds. A nil registry disables brand matching.
func NewAggregator(reg *brand.Registry, th Thresholds) *Aggregator {
	return &Aggregator{
		accs: make(map[string]*addrAcc),
		reg:  reg,
		th:   th,
	}
}

func (a *Aggregator) upsert(key normalize.Key) *addrAcc {
	acc, ok := a.accs[key.ID]
	if !ok {
		acc = &addrAcc{key: key, brandSegs: make(map[string]string)}
		a.accs[key.ID] = acc
	}
	return acc
}

// AddFacilityRow folds one regulatory facility row into the accumulators.
// Rows that fail adaptation or address normalization are skipped and
// tallied, never fatal.
func (a *Aggregator) AddFacilityRow(row source.Row) {
	a.stats.FacilityRows++
	fac, err := source.AdaptFacility(row)
	if err != nil {
		a.stats.SkippedFacility++
		return
	}
	key, err := normalize.Normalize(fac.Street1, fac.Street2, fac.City, fac.State, fac.Zip)
	if err != nil {
		a.stats.SkippedFacility++
		return
	}
	acc := a.upsert(key)
	acc.facilityIDs = append(acc.facilityIDs, fac.FacilityID)
	if a.reg != nil {
		if bk, seg, ok := a.reg.Match(fac.BusinessName); ok {
			acc.brandKeys = append(acc.brandKeys, bk)
			acc.brandSegs[bk] = seg
		}
	}
}

// AddTechRow folds one license-holder row into the accumulators.
func (a *Aggregator) AddTechRow(row source.Row) {
	a.stats.TechRows++
	tech, err := source.AdaptTech(row)
	if err != nil {
		a.stats.SkippedTech++
		return
	}
	key, err := normalize.Normalize(tech.Street1, tech.Street2, tech.City, tech.State, tech.Zip)
	if err != nil {
		a.stats.SkippedTech++
		return
	}
	acc := a.upsert(key)
	acc.techIDs = append(acc.techIDs, tech.LicenseID)
}

// Finalize dedupes the accumulated id lists, classifies each address, and
// returns rows sorted by (cityKey, addressId) so repeated builds diff
// cleanly.
func (a *Aggregator) Finalize() ([]AddressTruthRow, BuildStats) {
	rows := make([]AddressTruthRow, 0, len(a.accs))
	for _, acc := range a.accs {
		rows = append(rows, finalizeAcc(acc, a.th))
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CityKey != rows[j].CityKey {
			return rows[i].CityKey < rows[j].CityKey
		}
		return rows[i].AddressID < rows[j].AddressID
	})
	a.stats.Addresses = len(rows)
	return rows, a.stats
}

func finalizeAcc(acc *addrAcc, th Thresholds) AddressTruthRow {
	facIDs := dedupe(acc.facilityIDs)
	techIDs := dedupe(acc.techIDs)
	brands := dedupe(acc.brandKeys)

	row := AddressTruthRow{
		AddressID:   acc.key.ID,
		AddressKey:  acc.key.Normalized,
		CityKey:     acc.key.CityKey,
		Zip5:        acc.key.Zip5,
		RegCount:    len(facIDs),
		FacilityIDs: facIDs,
		TechCount:   len(techIDs),
		TechIDs:     techIDs,
		Reasons:     []string{},
	}

	// Classification precedence: a brand match always overrides the generic
	// "has registration means INDIE" rule. Multi-brand addresses take the
	// first deduplicated brand; merging brands is out of scope.
	switch {
	case len(brands) > 0:
		row.BrandKey = brands[0]
		row.Seg = SegCorpFranchise
		if seg, ok := acc.brandSegs[row.BrandKey]; ok && seg != "" {
			row.Seg = seg
		}
		row.Reasons = append(row.Reasons, "BRAND:"+row.BrandKey)
		if len(brands) > 1 {
			row.Reasons = append(row.Reasons, "MULTI_BRAND_FIRST_WINS")
		}
	case row.RegCount > 0:
		row.Seg = SegIndie
		row.Reasons = append(row.Reasons, "REG_PRESENT")
	case row.TechCount > 0:
		row.Seg = SegSoloAtSolo
		row.Reasons = append(row.Reasons, "TECH_ONLY")
	default:
		row.Seg = SegUnknown
		row.Reasons = append(row.Reasons, "NO_SIGNALS")
	}

	if row.Seg == SegIndie && row.TechCount >= th.CandMinTech {
		row.Cand = 1
		row.Reasons = append(row.Reasons, "INDIE_MULTI_TECH")
	}
	return row
}

// dedupe returns the unique values preserving first-appearance order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
