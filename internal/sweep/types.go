// Package sweep runs the candidate-discovery-and-classification pass over
// canonical addresses: fetch nearby place candidates, score them, and
// assign each address a physical-place class with an auditable reason
// trail.
package sweep

import "github.com/premise-atlas/internal/docstore"

// Address classes.
const (
	ClassStorefront  = "storefront"
	ClassSuiteCenter = "suite_center"
	ClassMaildrop    = "maildrop"
	ClassResidential = "residential"
	ClassUnknown     = "unknown"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is one normalized place-search hit, independent of provider
// response shape.
type Place struct {
	Name             string   `json:"name"`
	PlaceID          string   `json:"placeId,omitempty"`
	Types            []string `json:"types,omitempty"`
	Vicinity         string   `json:"vicinity,omitempty"`
	FormattedAddress string   `json:"formattedAddress,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	Website          string   `json:"website,omitempty"`
	Rating           float64  `json:"rating,omitempty"`
	Location         *LatLng  `json:"location,omitempty"`
}

// GeocodeResult is the provider's geocode answer. Non-OK statuses are
// returned as status strings, never as panics.
type GeocodeResult struct {
	Status           string  `json:"status"`
	Location         *LatLng `json:"location,omitempty"`
	FormattedAddress string  `json:"formattedAddress,omitempty"`
}

// Candidate is a scored place hit attached to one swept address.
type Candidate struct {
	Place
	Score     int      `json:"score"`
	AtAddress bool     `json:"atAddress"`
	DistanceM float64  `json:"distanceM,omitempty"`
	Reasons   []string `json:"reasons"`
}

// Context carries the density signals the classifier reads alongside the
// candidate list.
type Context struct {
	UniqueTechs       int     `json:"uniqueTechs"`
	LicenseCount      int     `json:"licenseCount"`
	ActiveCount       int     `json:"activeCount"`
	ActiveFraction    float64 `json:"activeFraction"`
	AcceptedFacility  bool    `json:"acceptedFacility"`
	GeocodeOK         bool    `json:"geocodeOk"`
	FetchedCandidates bool    `json:"fetchedCandidates"`
}

// Row is the per-address sweep result.
type Row struct {
	AddressID    string      `json:"addressId"`
	AddressKey   string      `json:"addressKey"`
	AddressClass string      `json:"addressClass"`
	Candidates   []Candidate `json:"sweepCandidates"`
	Top          *Candidate  `json:"topCandidate,omitempty"`
	Confidence   float64     `json:"confidence"`
	Reasons      []string    `json:"reasons"`
	Context      Context     `json:"context"`
}

// Diagnostics records the provider health for one sweep run.
type Diagnostics struct {
	Mode         string `json:"mode"` // stub | live
	KeyPresent   bool   `json:"keyPresent"`
	RunID        string `json:"runId"`
	GeocodeCalls int    `json:"geocodeCalls"`
	SearchCalls  int    `json:"searchCalls"`
	LastError    string `json:"lastError,omitempty"`
}

// Doc is the persisted sweep document.
type Doc struct {
	docstore.Envelope
	Provider Diagnostics `json:"provider"`
	Rows     []Row       `json:"rows"`
}

// SweepDoc names the persisted document.
const SweepDoc = "sweep_rows"
