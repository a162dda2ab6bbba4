// Package truth aggregates heterogeneous source rows under canonical
// address identities into explainable rollup views.
package truth

import "github.com/premise-atlas/internal/docstore"

// Segment values for the ownership/structure classification of an address.
const (
	SegCorpOwned     = "CORP_OWNED"
	SegCorpFranchise = "CORP_FRANCHISE"
	SegIndie         = "INDIE"
	SegSoloAtSalon   = "SOLO_AT_SALON"
	SegSoloAtSolo    = "SOLO_AT_SOLO"
	SegUnknown       = "UNKNOWN"
)

// AddressTruthRow is the aggregated record of facility and license-holder
// presence at one canonical address. Counts are set cardinalities over the
// deduplicated id lists, never raw row counts.
type AddressTruthRow struct {
	AddressID   string   `json:"addressId"`
	AddressKey  string   `json:"addressKey"`
	CityKey     string   `json:"cityKey"`
	Zip5        string   `json:"zip5"`
	RegCount    int      `json:"regCount"`
	FacilityIDs []string `json:"facilityIds"`
	TechCount   int      `json:"techCount"`
	TechIDs     []string `json:"techIds"`
	Seg         string   `json:"seg"`
	BrandKey    string   `json:"brandKey,omitempty"`
	Cand        int      `json:"cand"`
	Reasons     []string `json:"reasons"`
}

// CityTruthRow rolls address rows up to one city identity.
type CityTruthRow struct {
	CityID       string         `json:"cityId"`
	CityKey      string         `json:"cityKey"`
	RegCount     int            `json:"regCount"`
	TechCount    int            `json:"techCount"`
	TechPerReg   float64        `json:"techPerReg"`
	AddrCount    int            `json:"addrCount"`
	CandCount    int            `json:"candCount"`
	SegSummary   map[string]int `json:"segSummary"`
	BrandSummary map[string]int `json:"brandSummary,omitempty"`
	Reasons      []string       `json:"reasons"`
}

// AddressDoc and CityDoc are the persisted truth documents.
type AddressDoc struct {
	docstore.Envelope
	Rows []AddressTruthRow `json:"rows"`
}

type CityDoc struct {
	docstore.Envelope
	Rows []CityTruthRow `json:"rows"`
}

// Document names in the docstore.
const (
	SourceFacilitiesDoc = "source_facilities"
	SourceTechsDoc      = "source_techs"
	AddressTruthDoc     = "truth_addresses"
	CityTruthDoc        = "truth_cities"
)

// Thresholds carries the tuned constants for candidate flagging and the
// tab predicates. The numbers are tuned, not derived; keep them in config.
type Thresholds struct {
	CandMinTech        int `json:"candMinTech"`
	TechClusterMinTech int `json:"techClusterMinTech"`
	MidMarketMinTech   int `json:"midMarketMinTech"`
	MidMarketMaxTech   int `json:"midMarketMaxTech"`
	MegaCityMinReg     int `json:"megaCityMinReg"`
}

// DefaultThresholds returns the tuned defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CandMinTech:        2,
		TechClusterMinTech: 8,
		MidMarketMinTech:   3,
		MidMarketMaxTech:   7,
		MegaCityMinReg:     40,
	}
}

// BuildStats summarizes one aggregation pass, including skipped rows.
type BuildStats struct {
	FacilityRows    int `json:"facilityRows"`
	TechRows        int `json:"techRows"`
	SkippedFacility int `json:"skippedFacility"`
	SkippedTech     int `json:"skippedTech"`
	Addresses       int `json:"addresses"`
	Cities          int `json:"cities"`
}
