// Package brand holds the franchise/chain registry used to classify
// facility business names. Matching is an ordered rule list evaluated in a
// fixed order, first match wins; adding a brand is additive, never a code
// change elsewhere.
package brand

import (
	"regexp"
	"strings"

	"github.com/premise-atlas/internal/docstore"
)

// Segment labels carried by brand rules. These mirror the truth-row
// segment enum values for branded addresses.
const (
	SegCorpOwned     = "CORP_OWNED"
	SegCorpFranchise = "CORP_FRANCHISE"
)

// RuleSpec is the serializable form of one brand rule.
type RuleSpec struct {
	Pattern string `json:"pattern"`
	Key     string `json:"key"`
	Seg     string `json:"seg,omitempty"`
}

type rule struct {
	re  *regexp.Regexp
	key string
	seg string
}

// Registry is an ordered brand rule list loaded once and passed into the
// aggregation path. It carries no mutable package state.
type Registry struct {
	rules []rule
}

// Match returns the first matching rule for a business name. Multiple
// matching brands at one name resolve to the first rule; the engine does
// not attempt multi-brand semantics.
func (r *Registry) Match(businessName string) (key, seg string, ok bool) {
	name := strings.ToUpper(strings.TrimSpace(businessName))
	if name == "" {
		return "", "", false
	}
	for _, ru := range r.rules {
		if ru.re.MatchString(name) {
			return ru.key, ru.seg, true
		}
	}
	return "", "", false
}

// Len reports the number of loaded rules.
func (r *Registry) Len() int { return len(r.rules) }

// FromSpecs compiles an ordered rule list. Invalid patterns are skipped so
// one bad row in an overridden rule document cannot disable the registry.
func FromSpecs(specs []RuleSpec) *Registry {
	reg := &Registry{}
	for _, s := range specs {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			continue
		}
		seg := s.Seg
		if seg == "" {
			seg = SegCorpFranchise
		}
		reg.rules = append(reg.rules, rule{re: re, key: s.Key, seg: seg})
	}
	return reg
}

// DefaultSpecs is the built-in rule set of common salon chains.
func DefaultSpecs() []RuleSpec {
	return []RuleSpec{
		{Pattern: `\bGREAT\s*CLIPS\b`, Key: "GREAT_CLIPS", Seg: SegCorpFranchise},
		{Pattern: `\bSPORT\s*CLIPS\b`, Key: "SPORT_CLIPS", Seg: SegCorpFranchise},
		{Pattern: `\bSUPERCUTS\b`, Key: "SUPERCUTS", Seg: SegCorpFranchise},
		{Pattern: `\bFANTASTIC\s*SAMS\b`, Key: "FANTASTIC_SAMS", Seg: SegCorpFranchise},
		{Pattern: `\bCOST\s*CUTTERS\b`, Key: "COST_CUTTERS", Seg: SegCorpFranchise},
		{Pattern: `\bROOSTERS\b.*\bGROOMING\b|\bROOSTERS\s+MGC\b`, Key: "ROOSTERS", Seg: SegCorpFranchise},
		{Pattern: `\bSMART\s*STYLE\b`, Key: "SMARTSTYLE", Seg: SegCorpFranchise},
		{Pattern: `\bULTA\b`, Key: "ULTA", Seg: SegCorpOwned},
		{Pattern: `\bEUROPEAN\s*WAX\b`, Key: "EUROPEAN_WAX_CENTER", Seg: SegCorpFranchise},
		{Pattern: `\bWAXING\s+THE\s+CITY\b`, Key: "WAXING_THE_CITY", Seg: SegCorpFranchise},
		{Pattern: `\bDRYBAR\b`, Key: "DRYBAR", Seg: SegCorpOwned},
		{Pattern: `\bHAIR\s*CUTTERY\b`, Key: "HAIR_CUTTERY", Seg: SegCorpOwned},
		{Pattern: `\bFLOYD'?S\s*(99)?\b.*\bBARBER`, Key: "FLOYDS_99", Seg: SegCorpFranchise},
		{Pattern: `\bV'?S\s+BARBERSHOP\b`, Key: "VS_BARBERSHOP", Seg: SegCorpFranchise},
	}
}

// Default builds the registry from the built-in specs.
func Default() *Registry {
	return FromSpecs(DefaultSpecs())
}

// BrandRulesDoc is the overridable rule document persisted in the docstore.
const BrandRulesDoc = "brand_rules"

type rulesDoc struct {
	docstore.Envelope
	Rules []RuleSpec `json:"rules"`
}

// Load reads brand rules from the docstore, falling back to the defaults
// when no override document exists.
func Load(store docstore.Store) *Registry {
	var doc rulesDoc
	if err := store.Read(BrandRulesDoc, &doc); err != nil || len(doc.Rules) == 0 {
		return Default()
	}
	return FromSpecs(doc.Rules)
}
