package sweep

import (
	"sort"

	"github.com/premise-atlas/internal/normalize"
)

// ClassifyConfig carries the tuned classification thresholds. The numeric
// values are preserved operational tuning, exposed as configuration rather
// than re-derived.
type ClassifyConfig struct {
	Jurisdiction           string  `json:"jurisdiction"`
	StorefrontMinScore     int     `json:"storefrontMinScore"`
	SuiteMinLicenses       int     `json:"suiteMinLicenses"`
	SuiteMinTechs          int     `json:"suiteMinTechs"`
	ResidentialMaxTechs    int     `json:"residentialMaxTechs"`
	ResidentialMaxLicenses int     `json:"residentialMaxLicenses"`
	MaildropMinLicenses    int     `json:"maildropMinLicenses"`
	MaildropMaxActiveFrac  float64 `json:"maildropMaxActiveFrac"`
}

func DefaultClassifyConfig() ClassifyConfig {
	return ClassifyConfig{
		Jurisdiction:           "CO",
		StorefrontMinScore:     34,
		SuiteMinLicenses:       15,
		SuiteMinTechs:          6,
		ResidentialMaxTechs:    1,
		ResidentialMaxLicenses: 2,
		MaildropMinLicenses:    15,
		MaildropMaxActiveFrac:  0.2,
	}
}

// Classify assigns the address class, confidence, and reason tokens for
// one swept address. Branches are evaluated in fixed priority order and
// every branch appends machine-readable reasons so the decision is
// auditable after the fact.
func Classify(key normalize.Key, ctx Context, cands []Candidate, cfg ClassifyConfig) (string, float64, []string) {
	top := topCandidate(cands)

	// 1. PO-box street lines are mail drops no matter what the candidate
	// data says.
	if normalize.IsPOBox(key.Street) {
		return ClassMaildrop, 0.95, []string{"PO_BOX_PATTERN"}
	}

	// 2. Out-of-jurisdiction addresses are never classified.
	if key.State != "" && cfg.Jurisdiction != "" && key.State != cfg.Jurisdiction {
		return ClassUnknown, 0.9, []string{"OUT_OF_SCOPE_STATE", "STATE:" + key.State}
	}

	// 3. An operator-accepted facility overlay settles it.
	if ctx.AcceptedFacility {
		return ClassStorefront, 1.0, []string{"ACCEPTED_FACILITY"}
	}

	// 4. Geocoded, zero candidates, and low density reads as a residence.
	if ctx.GeocodeOK && len(cands) == 0 &&
		ctx.UniqueTechs <= cfg.ResidentialMaxTechs &&
		ctx.LicenseCount <= cfg.ResidentialMaxLicenses {
		return ClassResidential, 0.7, []string{"GEOCODE_NO_HITS", "LOW_DENSITY"}
	}

	// 5. A strong beauty-typed candidate without residential signal is a
	// storefront.
	if top != nil && top.Score >= cfg.StorefrontMinScore &&
		hasBeautyType(top.Types) && !hasResidentialType(top.Types) {
		conf := float64(top.Score) / 100
		if conf > 0.95 {
			conf = 0.95
		}
		if conf < 0.6 {
			conf = 0.6
		}
		return ClassStorefront, conf, []string{"TOP_CANDIDATE_STRONG", "SCORE_OVER_THRESHOLD"}
	}

	// 6. Dense license activity with no strong storefront candidate is a
	// suite cluster.
	if (ctx.LicenseCount >= cfg.SuiteMinLicenses || ctx.UniqueTechs >= cfg.SuiteMinTechs) &&
		(top == nil || top.Score < cfg.StorefrontMinScore) {
		return ClassSuiteCenter, 0.75, []string{"HIGH_DENSITY", "NO_STRONG_STOREFRONT"}
	}

	// 7. Residential signal dominant. High density alongside it is
	// ambiguous, so the confidence drops.
	if top != nil && hasResidentialType(top.Types) && !hasBeautyType(top.Types) {
		conf := 0.65
		reasons := []string{"RESIDENTIAL_DOMINANT"}
		if ctx.UniqueTechs >= cfg.SuiteMinTechs {
			conf = 0.45
			reasons = append(reasons, "AMBIGUOUS_DENSITY")
		}
		return ClassResidential, conf, reasons
	}

	// 8. Many licenses, almost none active, and nothing scoring positive:
	// likely a mail drop used as a license-of-record address.
	if ctx.LicenseCount >= cfg.MaildropMinLicenses &&
		ctx.ActiveFraction < cfg.MaildropMaxActiveFrac &&
		(top == nil || top.Score <= 0) {
		return ClassMaildrop, 0.6, []string{"LOW_ACTIVE_FRACTION", "NO_POSITIVE_CANDIDATE"}
	}

	// 9. Everything else stays unknown.
	reasons := []string{"INSUFFICIENT_SIGNALS"}
	if !ctx.FetchedCandidates {
		reasons = append(reasons, "NEEDS_SWEEP")
	}
	return ClassUnknown, 0.2, reasons
}

// topCandidate returns the highest-scoring candidate, ties broken by name
// for determinism.
func topCandidate(cands []Candidate) *Candidate {
	if len(cands) == 0 {
		return nil
	}
	idx := 0
	for i := 1; i < len(cands); i++ {
		if cands[i].Score > cands[idx].Score ||
			(cands[i].Score == cands[idx].Score && cands[i].Name < cands[idx].Name) {
			idx = i
		}
	}
	return &cands[idx]
}

// SortCandidates orders candidates by descending score, then name.
func SortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Name < cands[j].Name
	})
}
