package brand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premise-atlas/internal/docstore"
)

func TestMatchFirstRuleWins(t *testing.T) {
	reg := FromSpecs([]RuleSpec{
		{Pattern: `\bGREAT\s*CLIPS\b`, Key: "GREAT_CLIPS"},
		{Pattern: `\bCLIPS\b`, Key: "ANY_CLIPS"},
	})
	require.Equal(t, 2, reg.Len())

	key, seg, ok := reg.Match("Great Clips #4411")
	assert.True(t, ok)
	assert.Equal(t, "GREAT_CLIPS", key)
	assert.Equal(t, SegCorpFranchise, seg)

	key, _, ok = reg.Match("Clips R Us")
	assert.True(t, ok)
	assert.Equal(t, "ANY_CLIPS", key)
}

func TestMatchNoHit(t *testing.T) {
	reg := Default()
	_, _, ok := reg.Match("Rosa's Nail Studio")
	assert.False(t, ok)
	_, _, ok = reg.Match("   ")
	assert.False(t, ok)
}

func TestFromSpecsSkipsInvalidPatterns(t *testing.T) {
	reg := FromSpecs([]RuleSpec{
		{Pattern: `([`, Key: "BROKEN"},
		{Pattern: `\bSUPERCUTS\b`, Key: "SUPERCUTS"},
	})
	assert.Equal(t, 1, reg.Len())
	key, _, ok := reg.Match("Supercuts 1182")
	assert.True(t, ok)
	assert.Equal(t, "SUPERCUTS", key)
}

func TestDefaultSpecsCoverKnownBrands(t *testing.T) {
	reg := Default()

	cases := []struct {
		name string
		key  string
		seg  string
	}{
		{"GREAT CLIPS OF ARVADA", "GREAT_CLIPS", SegCorpFranchise},
		{"Supercuts 1182", "SUPERCUTS", SegCorpFranchise},
		{"Ulta Beauty Salon", "ULTA", SegCorpOwned},
		{"European Wax Center - Denver", "EUROPEAN_WAX_CENTER", SegCorpFranchise},
		{"Floyd's 99 Barbershop", "FLOYDS_99", SegCorpFranchise},
	}
	for _, tc := range cases {
		key, seg, ok := reg.Match(tc.name)
		assert.True(t, ok, tc.name)
		assert.Equal(t, tc.key, key, tc.name)
		assert.Equal(t, tc.seg, seg, tc.name)
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	docs, err := docstore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	reg := Load(docs)
	_, _, ok := reg.Match("Great Clips")
	assert.True(t, ok)
}

func TestLoadPrefersOverrideDocument(t *testing.T) {
	docs, err := docstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, docs.Write(BrandRulesDoc, rulesDoc{Rules: []RuleSpec{
		{Pattern: `\bLOCAL\s+CHAIN\b`, Key: "LOCAL_CHAIN", Seg: SegCorpOwned},
	}}))

	reg := Load(docs)
	key, seg, ok := reg.Match("Local Chain No 5")
	assert.True(t, ok)
	assert.Equal(t, "LOCAL_CHAIN", key)
	assert.Equal(t, SegCorpOwned, seg)
	_, _, ok = reg.Match("Great Clips")
	assert.False(t, ok)
}
