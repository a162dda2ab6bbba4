package truth

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premise-atlas/internal/brand"
	"github.com/premise-atlas/internal/docstore"
	"github.com/premise-atlas/internal/source"
)

func newTestStore(t *testing.T) docstore.Store {
	t.Helper()
	store, err := docstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestBuildMissingInputFailsFast(t *testing.T) {
	store := newTestStore(t)
	_, err := Build(store, brand.Default(), DefaultThresholds())
	require.Error(t, err)
	assert.True(t, errors.Is(err, docstore.ErrNotFound))
	assert.Contains(t, err.Error(), SourceFacilitiesDoc)
}

func TestBuildWritesBothTruthDocs(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Write(SourceFacilitiesDoc, SourceDoc{
		Rows: []source.Row{
			facRow("FAC-1", "Great Clips", "10 Broadway"),
			facRow("FAC-2", "Mona's Nails", "20 Broadway"),
			{"business_name": "missing id"},
		},
	}))
	require.NoError(t, store.Write(SourceTechsDoc, SourceDoc{
		Rows: []source.Row{
			techRow("LIC-1", "20 Broadway"),
			techRow("LIC-2", "20 Broadway"),
		},
	}))

	stats, err := Build(store, brand.Default(), DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Addresses)
	assert.Equal(t, 1, stats.Cities)
	assert.Equal(t, 1, stats.SkippedFacility)

	var addrDoc AddressDoc
	require.NoError(t, store.Read(AddressTruthDoc, &addrDoc))
	assert.True(t, addrDoc.OK)
	assert.Len(t, addrDoc.Rows, 2)

	var cityDoc CityDoc
	require.NoError(t, store.Read(CityTruthDoc, &cityDoc))
	require.Len(t, cityDoc.Rows, 1)
	assert.Equal(t, "DENVER | CO", cityDoc.Rows[0].CityKey)
}
