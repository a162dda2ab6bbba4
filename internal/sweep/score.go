package sweep

import (
	"math"
	"strings"

	"github.com/premise-atlas/internal/normalize"
)

// ScoreWeights are the tuned scoring constants. The values are preserved
// from operational tuning, not derived.
type ScoreWeights struct {
	BeautyTypeHit      int `json:"beautyTypeHit"`
	BeautyTypeCap      int `json:"beautyTypeCap"`
	ResidentialTypeHit int `json:"residentialTypeHit"`
	ResidentialTypeCap int `json:"residentialTypeCap"`
	SuiteBrandBonus    int `json:"suiteBrandBonus"`
	WebsiteBonus       int `json:"websiteBonus"`
	PhoneBonus         int `json:"phoneBonus"`
	StrictMatchBonus   int `json:"strictMatchBonus"`
	StreetZipBonus     int `json:"streetZipBonus"`
	DistNearBonus      int `json:"distNearBonus"`   // <= 25m
	DistMidBonus       int `json:"distMidBonus"`    // <= 75m
	DistFarBonus       int `json:"distFarBonus"`    // <= 150m
	ScoreFloor         int `json:"scoreFloor"`
	ScoreCeil          int `json:"scoreCeil"`
}

func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		BeautyTypeHit:      12,
		BeautyTypeCap:      36,
		ResidentialTypeHit: -15,
		ResidentialTypeCap: -30,
		SuiteBrandBonus:    25,
		WebsiteBonus:       4,
		PhoneBonus:         4,
		StrictMatchBonus:   20,
		StreetZipBonus:     10,
		DistNearBonus:      15,
		DistMidBonus:       10,
		DistFarBonus:       5,
		ScoreFloor:         -100,
		ScoreCeil:          100,
	}
}

var beautyTypes = map[string]bool{
	"beauty_salon": true,
	"hair_care":    true,
	"nail_salon":   true,
	"spa":          true,
	"barber_shop":  true,
}

var residentialTypes = map[string]bool{
	"premise":            true,
	"subpremise":         true,
	"street_address":     true,
	"lodging":            true,
	"real_estate_agency": true,
	"room":               true,
}

// suiteBrandNames are known multi-operator suite cluster brands matched as
// name substrings.
var suiteBrandNames = []string{
	"SOLA SALON",
	"PHENIX SALON",
	"MY SALON SUITE",
	"SALON LOFTS",
	"SALONS BY JC",
	"IMAGE STUDIOS",
	"SUITE",
}

func hasBeautyType(types []string) bool {
	for _, t := range types {
		if beautyTypes[t] {
			return true
		}
	}
	return false
}

func hasResidentialType(types []string) bool {
	for _, t := range types {
		if residentialTypes[t] {
			return true
		}
	}
	return false
}

func isSuiteBrand(name string) bool {
	n := strings.ToUpper(name)
	for _, b := range suiteBrandNames {
		if strings.Contains(n, b) {
			return true
		}
	}
	return false
}

// ScoreCandidate deterministically scores one place hit against the swept
// address. Every contribution appends a reason token so the score is
// auditable.
func ScoreCandidate(key normalize.Key, geo *LatLng, p Place, w ScoreWeights) Candidate {
	c := Candidate{Place: p, Reasons: []string{}}
	score := 0

	beauty := 0
	for _, t := range p.Types {
		if beautyTypes[t] {
			beauty += w.BeautyTypeHit
		}
	}
	if beauty > w.BeautyTypeCap {
		beauty = w.BeautyTypeCap
	}
	if beauty > 0 {
		score += beauty
		c.Reasons = append(c.Reasons, "BEAUTY_TYPE")
	}

	resid := 0
	for _, t := range p.Types {
		if residentialTypes[t] {
			resid += w.ResidentialTypeHit
		}
	}
	if resid < w.ResidentialTypeCap {
		resid = w.ResidentialTypeCap
	}
	if resid < 0 {
		score += resid
		c.Reasons = append(c.Reasons, "RESIDENTIAL_TYPE")
	}

	if isSuiteBrand(p.Name) {
		score += w.SuiteBrandBonus
		c.Reasons = append(c.Reasons, "SUITE_BRAND_NAME")
	}
	if p.Website != "" {
		score += w.WebsiteBonus
		c.Reasons = append(c.Reasons, "HAS_WEBSITE")
	}
	if p.Phone != "" {
		score += w.PhoneBonus
		c.Reasons = append(c.Reasons, "HAS_PHONE")
	}

	switch matchAddressText(key, p) {
	case matchStrict:
		score += w.StrictMatchBonus
		c.AtAddress = true
		c.Reasons = append(c.Reasons, "STRICT_ADDRESS_MATCH")
	case matchStreetZip:
		score += w.StreetZipBonus
		c.Reasons = append(c.Reasons, "STREET_ZIP_MATCH")
	}

	if geo != nil && p.Location != nil {
		d := haversineM(*geo, *p.Location)
		c.DistanceM = math.Round(d*10) / 10
		switch {
		case d <= 25:
			score += w.DistNearBonus
			c.Reasons = append(c.Reasons, "DIST_NEAR")
		case d <= 75:
			score += w.DistMidBonus
			c.Reasons = append(c.Reasons, "DIST_MID")
		case d <= 150:
			score += w.DistFarBonus
			c.Reasons = append(c.Reasons, "DIST_FAR")
		}
	}

	if score > w.ScoreCeil {
		score = w.ScoreCeil
	}
	if score < w.ScoreFloor {
		score = w.ScoreFloor
	}
	c.Score = score
	return c
}

type addressMatch int

const (
	matchNone addressMatch = iota
	matchStreetZip
	matchStrict
)

// matchAddressText checks whether the swept address's street number,
// street name, and zip appear in the candidate's formatted address or
// vicinity text.
func matchAddressText(key normalize.Key, p Place) addressMatch {
	text := strings.ToUpper(p.FormattedAddress + " " + p.Vicinity)
	if text == "" {
		return matchNone
	}

	tokens := strings.Fields(key.Street)
	if len(tokens) == 0 {
		return matchNone
	}
	num := ""
	nameTok := ""
	for _, tok := range tokens {
		if num == "" && tok != "" && tok[0] >= '0' && tok[0] <= '9' {
			num = tok
			continue
		}
		// First alphabetic token longer than one letter is the street name.
		if nameTok == "" && len(tok) > 1 && !(tok[0] >= '0' && tok[0] <= '9') && tok != "#" {
			nameTok = tok
		}
	}

	hasName := nameTok != "" && strings.Contains(text, nameTok)
	hasZip := key.Zip5 != "" && strings.Contains(text, key.Zip5)
	hasNum := num != "" && containsToken(text, num)

	if hasNum && hasName && hasZip {
		return matchStrict
	}
	if hasName && hasZip {
		return matchStreetZip
	}
	return matchNone
}

func containsToken(text, token string) bool {
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.'
	}) {
		if f == token {
			return true
		}
	}
	return false
}

const earthRadiusM = 6371000.0

// haversineM returns the great-circle distance in meters.
func haversineM(a, b LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}
