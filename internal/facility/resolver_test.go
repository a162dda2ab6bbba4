package facility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premise-atlas/internal/docstore"
	"github.com/premise-atlas/internal/source"
)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	store, err := docstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewResolver(store, nil)
}

func seedRow(brand, street string) source.Row {
	return source.Row{
		"brand":    brand,
		"address1": street,
		"city":     "Denver",
		"state":    "CO",
		"zip":      "80202",
	}
}

func TestSlugAndFacilityID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Great Clips", "great-clips"},
		{"  Mona's  Nail Studio ", "mona-s-nail-studio"},
		{"123 MAIN ST | DENVER | CO | 80202", "123-main-st-denver-co-80202"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in))
	}

	id := FacilityID("Great Clips", "123 MAIN ST | DENVER | CO | 80202")
	assert.Equal(t, "great-clips_123-main-st-denver-co-80202", id)
	// Re-deriving from the same inputs must reproduce the id.
	assert.Equal(t, id, FacilityID("Great Clips", "123 MAIN ST | DENVER | CO | 80202"))
}

func TestPreviewBuckets(t *testing.T) {
	r := newResolver(t)
	_, err := r.Commit("base", []source.Row{seedRow("Great Clips", "10 Broadway")})
	require.NoError(t, err)

	res, err := r.Preview([]source.Row{
		seedRow("Great Clips", "10 Broadway"),           // known
		seedRow("Great Clips", "10 Broadway Suite 200"), // base-tier match
		seedRow("Sola Salon", "500 Wazee St"),           // new
		{"brand": "No Address"},                         // invalid
	})
	require.NoError(t, err)

	require.Len(t, res.Matched, 2)
	assert.Equal(t, "exact", res.Matched[0].MatchTier)
	assert.Equal(t, "base", res.Matched[1].MatchTier)
	assert.Len(t, res.NotFound, 1)
	assert.Len(t, res.Invalid, 1)
	assert.Equal(t, 2, res.Counts["matched"])
	assert.Equal(t, 1, res.Counts["notFound"])
	assert.Equal(t, 1, res.Counts["invalid"])
}

func TestIdempotentImport(t *testing.T) {
	r := newResolver(t)
	rows := []source.Row{
		seedRow("Great Clips", "10 Broadway"),
		seedRow("Sola Salon", "500 Wazee St"),
	}

	first, err := r.Commit("import-a", rows)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Appended)
	assert.Equal(t, 0, first.SkippedExisting)

	dirBefore, err := r.Directory()
	require.NoError(t, err)

	second, err := r.Commit("import-a", rows)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Appended)
	assert.Equal(t, len(rows), second.SkippedExisting)

	dirAfter, err := r.Directory()
	require.NoError(t, err)
	assert.Equal(t, dirBefore, dirAfter, "re-importing the same file must not change the directory")
}

func TestCommitSkipsBaseKeyAcrossLogs(t *testing.T) {
	r := newResolver(t)
	_, err := r.Commit("log-1", []source.Row{seedRow("Great Clips", "10 Broadway Ste 200")})
	require.NoError(t, err)

	// Same premise without the suite token arrives via a different log.
	res, err := r.Commit("log-2", []source.Row{seedRow("Great Clips", "10 Broadway")})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Appended)
	assert.Equal(t, 1, res.SkippedExisting)
}

func TestRebuildLastWriteWins(t *testing.T) {
	r := newResolver(t)
	_, err := r.Commit("log-1", []source.Row{{
		"brand": "Old Brand", "address1": "10 Broadway",
		"city": "Denver", "state": "CO", "zip": "80202",
	}})
	require.NoError(t, err)

	// Force a second entry for the same normalized key directly into the
	// seed log, as a later correction pass would.
	var logs SeedLogDocBody
	require.NoError(t, r.store.Read(SeedLogDoc, &logs))
	entry := logs.Logs["log-1"][0]
	entry.Seed.Brand = "New Brand"
	entry.AddedAt = entry.AddedAt.Add(1)
	logs.Logs["log-2"] = []SeedEntry{entry}
	require.NoError(t, r.store.Write(SeedLogDoc, logs))

	rows, err := r.Rebuild()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "New Brand", rows[0].Brand)
}
