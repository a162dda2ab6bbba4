package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

// Key holds the canonical identity of one physical address at the three
// matching strictness tiers. Exact keeps the street line verbatim after
// cleanup, Normalized applies suffix/directional/unit canonicalization,
// Base additionally strips a trailing unit token so records with and
// without a suite number collapse together.
type Key struct {
	Exact      string `json:"exact"`
	Normalized string `json:"normalized"`
	Base       string `json:"base"`

	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip5    string `json:"zip5"`
	CityKey string `json:"cityKey"`

	ID     string `json:"id"`
	CityID string `json:"cityId"`
}

const (
	addressIDPrefix = "adr_"
	cityIDPrefix    = "cty_"
	idHexLen        = 16
)

// Directional words collapse to single letters only as whole tokens, so
// "NORTH AVE" becomes "N AVE" but "NORTHGLENN" is untouched.
var directionals = map[string]string{
	"NORTH": "N", "SOUTH": "S", "EAST": "E", "WEST": "W",
	"NORTHEAST": "NE", "NORTHWEST": "NW", "SOUTHEAST": "SE", "SOUTHWEST": "SW",
}

var streetSuffixes = map[string]string{
	"STREET": "ST", "AVENUE": "AVE", "BOULEVARD": "BLVD", "DRIVE": "DR",
	"LANE": "LN", "ROAD": "RD", "COURT": "CT", "CIRCLE": "CIR",
	"PLACE": "PL", "PARKWAY": "PKWY", "HIGHWAY": "HWY", "TERRACE": "TER",
	"TRAIL": "TRL", "SQUARE": "SQ", "EXPRESSWAY": "EXPY", "FREEWAY": "FWY",
	"PLAZA": "PLZ", "POINT": "PT", "CROSSING": "XING", "CENTER": "CTR", "CENTRE": "CTR",
}

var unitMarkers = map[string]string{
	"SUITE": "STE", "STE": "STE",
	"APARTMENT": "APT", "APT": "APT",
	"UNIT":     "UNIT",
	"FLOOR":    "FL", "FL": "FL",
	"ROOM":     "RM", "RM": "RM",
	"BUILDING": "BLDG", "BLDG": "BLDG",
}

// Trailing unit/suite patterns stripped for the base variant: "STE 200",
// "# 12", "C-108" at the tail of the street line.
// Punctuation stripping has already split "C-108" into "C 108" by the time
// these run, hence the third pattern.
var unitTailPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\s+(STE|APT|UNIT|FL|RM|BLDG)(\s+#?[A-Z0-9]+)+$`),
	regexp.MustCompile(`\s+#\s*[A-Z0-9]+$`),
	regexp.MustCompile(`\s+[A-Z]\s+\d+[A-Z]?$`),
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// Normalize turns raw address fields into the three key variants plus a
// hash-derived identity id. Missing street, city, or state is an error and
// callers must skip the record rather than fabricate a key.
func Normalize(street1, street2, city, state, zip string) (Key, error) {
	street := strings.TrimSpace(street1)
	if s2 := strings.TrimSpace(street2); s2 != "" {
		street = street + " " + s2
	}

	exactStreet := cleanText(street)
	cityClean := cleanText(city)
	stateClean := cleanText(state)

	if exactStreet == "" {
		return Key{}, errors.New("normalize: empty street line")
	}
	if cityClean == "" {
		return Key{}, errors.New("normalize: empty city")
	}
	if stateClean == "" {
		return Key{}, errors.New("normalize: empty state")
	}

	zip5 := nonDigits.ReplaceAllString(zip, "")
	if len(zip5) > 5 {
		zip5 = zip5[:5]
	}

	normStreet := canonicalizeTokens(exactStreet)
	baseStreet := stripUnitTail(normStreet)

	k := Key{
		Exact:      KeyString(exactStreet, cityClean, stateClean, zip5),
		Normalized: KeyString(normStreet, cityClean, stateClean, zip5),
		Base:       KeyString(baseStreet, cityClean, stateClean, zip5),
		Street:     normStreet,
		City:       cityClean,
		State:      stateClean,
		Zip5:       zip5,
		CityKey:    cityClean + " | " + stateClean,
	}
	k.ID = HashID(addressIDPrefix, k.Normalized)
	k.CityID = HashID(cityIDPrefix, k.CityKey)
	return k, nil
}

// KeyString renders the pipe-delimited canonical key format.
func KeyString(street, city, state, zip5 string) string {
	return street + " | " + city + " | " + state + " | " + zip5
}

// HashID derives a stable identity id from a canonical key string.
func HashID(prefix, key string) string {
	sum := sha256.Sum256([]byte(key))
	return prefix + hex.EncodeToString(sum[:])[:idHexLen]
}

// cleanText uppercases, replaces curly quotes and ampersands with literal
// tokens, strips punctuation except '#', and collapses whitespace.
func cleanText(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer("‘", "'", "’", "'", "“", "\"", "”", "\"").Replace(s)
	s = strings.ReplaceAll(s, "&", " AND ")

	b := strings.Builder{}
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		case r == '#':
			b.WriteRune('#')
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// canonicalizeTokens applies directional, street-suffix, and unit-marker
// canonicalization as whole tokens only.
func canonicalizeTokens(street string) string {
	tokens := strings.Fields(street)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if rep, ok := directionals[tok]; ok {
			out = append(out, rep)
			continue
		}
		if rep, ok := streetSuffixes[tok]; ok {
			out = append(out, rep)
			continue
		}
		if rep, ok := unitMarkers[tok]; ok {
			out = append(out, rep)
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// stripUnitTail removes a trailing unit/suite token from the street line.
// Only the tail is considered so an interior "#" (rare but real) survives.
func stripUnitTail(street string) string {
	s := street
	for _, re := range unitTailPatterns {
		if stripped := re.ReplaceAllString(s, ""); stripped != s && strings.TrimSpace(stripped) != "" {
			s = strings.TrimSpace(stripped)
		}
	}
	return s
}

// IsPOBox reports whether a normalized street line starts with a PO-box
// pattern.
func IsPOBox(street string) bool {
	return rePOBox.MatchString(street)
}

var rePOBox = regexp.MustCompile(`^(P\s*O\s+BOX|PO\s*BOX|POST\s+OFFICE\s+BOX)\b`)
