package normalize

import (
	"testing"
)

func TestNormalizeKeyVariants(t *testing.T) {
	tests := []struct {
		name           string
		street1        string
		street2        string
		city, st, zip  string
		wantNormalized string
		wantBase       string
	}{
		{
			name:           "suite spelled out",
			street1:        "123 Main St Suite 200",
			city:           "Denver", st: "CO", zip: "80202",
			wantNormalized: "123 MAIN ST STE 200 | DENVER | CO | 80202",
			wantBase:       "123 MAIN ST | DENVER | CO | 80202",
		},
		{
			name:           "suite abbreviated",
			street1:        "123 Main St Ste 200",
			city:           "Denver", st: "CO", zip: "80202",
			wantNormalized: "123 MAIN ST STE 200 | DENVER | CO | 80202",
			wantBase:       "123 MAIN ST | DENVER | CO | 80202",
		},
		{
			name:           "street suffix canonicalized",
			street1:        "456 Larimer Street",
			city:           "Denver", st: "CO", zip: "80202",
			wantNormalized: "456 LARIMER ST | DENVER | CO | 80202",
			wantBase:       "456 LARIMER ST | DENVER | CO | 80202",
		},
		{
			name:           "directional collapsed as whole token",
			street1:        "456 North Broadway",
			city:           "Denver", st: "CO", zip: "80203",
			wantNormalized: "456 N BROADWAY | DENVER | CO | 80203",
			wantBase:       "456 N BROADWAY | DENVER | CO | 80203",
		},
		{
			name:           "hash unit tail stripped",
			street1:        "789 Colfax Avenue #12",
			city:           "Denver", st: "CO", zip: "80218",
			wantNormalized: "789 COLFAX AVE #12 | DENVER | CO | 80218",
			wantBase:       "789 COLFAX AVE | DENVER | CO | 80218",
		},
		{
			name:           "hyphenated unit tail stripped",
			street1:        "1550 S Pearl St C-108",
			city:           "Denver", st: "CO", zip: "80210",
			wantNormalized: "1550 S PEARL ST C 108 | DENVER | CO | 80210",
			wantBase:       "1550 S PEARL ST | DENVER | CO | 80210",
		},
		{
			name:           "street2 folded in",
			street1:        "2101 Champa St",
			street2:        "Unit 4",
			city:           "Denver", st: "CO", zip: "80205",
			wantNormalized: "2101 CHAMPA ST UNIT 4 | DENVER | CO | 80205",
			wantBase:       "2101 CHAMPA ST | DENVER | CO | 80205",
		},
		{
			name:           "zip plus four trimmed to zip5",
			street1:        "900 Sixteenth St",
			city:           "Denver", st: "CO", zip: "80202-1234",
			wantNormalized: "900 SIXTEENTH ST | DENVER | CO | 80202",
			wantBase:       "900 SIXTEENTH ST | DENVER | CO | 80202",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Normalize(tt.street1, tt.street2, tt.city, tt.st, tt.zip)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if key.Normalized != tt.wantNormalized {
				t.Errorf("Normalized = %q, want %q", key.Normalized, tt.wantNormalized)
			}
			if key.Base != tt.wantBase {
				t.Errorf("Base = %q, want %q", key.Base, tt.wantBase)
			}
		})
	}
}

func TestNormalizeDeterminism(t *testing.T) {
	first, err := Normalize("123 Main St Suite 200", "", "Denver", "CO", "80202")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		again, err := Normalize("123 Main St Suite 200", "", "Denver", "CO", "80202")
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("iteration %d produced different key: %+v vs %+v", i, again, first)
		}
	}
}

func TestBaseKeyCollapsing(t *testing.T) {
	a, err := Normalize("123 Main St Suite 200", "", "Denver", "CO", "80202")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Normalize("123 Main St Ste 200", "", "Denver", "CO", "80202")
	if err != nil {
		t.Fatal(err)
	}
	if a.Base != b.Base {
		t.Errorf("base keys differ: %q vs %q", a.Base, b.Base)
	}

	c, err := Normalize("123 Main St Suite 300", "", "Denver", "CO", "80202")
	if err != nil {
		t.Fatal(err)
	}
	if a.Base != c.Base {
		t.Errorf("suite 200 and 300 should share a base key: %q vs %q", a.Base, c.Base)
	}
	if a.Exact == c.Exact {
		t.Errorf("suite 200 and 300 must have distinct exact keys: %q", a.Exact)
	}
}

func TestNormalizeMissingFields(t *testing.T) {
	tests := []struct {
		name                string
		street, city, state string
	}{
		{"missing street", "", "Denver", "CO"},
		{"missing city", "123 Main St", "", "CO"},
		{"missing state", "123 Main St", "Denver", ""},
		{"punctuation-only street", "...", "Denver", "CO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Normalize(tt.street, "", tt.city, tt.state, "80202"); err == nil {
				t.Error("expected an error, got none")
			}
		})
	}
}

func TestHashID(t *testing.T) {
	id := HashID("adr_", "123 MAIN ST | DENVER | CO | 80202")
	if len(id) != len("adr_")+16 {
		t.Errorf("id length = %d, want prefix + 16 hex chars: %q", len(id), id)
	}
	if id != HashID("adr_", "123 MAIN ST | DENVER | CO | 80202") {
		t.Error("hash id is not stable")
	}
	if id == HashID("adr_", "124 MAIN ST | DENVER | CO | 80202") {
		t.Error("distinct keys hashed to the same id")
	}
}

func TestIsPOBox(t *testing.T) {
	tests := []struct {
		street string
		want   bool
	}{
		{"PO BOX 400", true},
		{"P O BOX 400", true},
		{"POST OFFICE BOX 12", true},
		{"123 MAIN ST", false},
		{"400 POBOX LN", false},
	}
	for _, tt := range tests {
		if got := IsPOBox(tt.street); got != tt.want {
			t.Errorf("IsPOBox(%q) = %v, want %v", tt.street, got, tt.want)
		}
	}
}

func TestParseKeyRoundTrip(t *testing.T) {
	key, err := Normalize("123 Main St Suite 200", "", "Denver", "CO", "80202")
	if err != nil {
		t.Fatal(err)
	}
	parsed := ParseKey(key.Normalized)
	if parsed.ID != key.ID {
		t.Errorf("parsed id %q != original %q", parsed.ID, key.ID)
	}
	if parsed.Base != key.Base {
		t.Errorf("parsed base %q != original %q", parsed.Base, key.Base)
	}
	if parsed.State != "CO" || parsed.Zip5 != "80202" {
		t.Errorf("parsed fields wrong: %+v", parsed)
	}
}
