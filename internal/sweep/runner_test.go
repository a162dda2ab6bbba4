package sweep

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premise-atlas/internal/docstore"
	"github.com/premise-atlas/internal/normalize"
	"github.com/premise-atlas/internal/truth"
)

// fakeProvider simulates a live provider with canned results.
type fakeProvider struct {
	geo     GeocodeResult
	geoErr  error
	places  []Place
	hitsErr error
}

func (f fakeProvider) Geocode(ctx context.Context, address string) (GeocodeResult, error) {
	return f.geo, f.geoErr
}

func (f fakeProvider) NearbySearch(ctx context.Context, loc LatLng, keyword string) ([]Place, error) {
	return f.places, f.hitsErr
}

func (f fakeProvider) Mode() string { return "live" }

func truthRow(t *testing.T, street, city, zip string, techs int) truth.AddressTruthRow {
	key := mustKey(t, street, city, "CO", zip)
	return truth.AddressTruthRow{
		AddressID:  key.ID,
		AddressKey: key.Normalized,
		CityKey:    key.CityKey,
		Zip5:       key.Zip5,
		TechCount:  techs,
	}
}

func TestRunFullRequiresTruthSnapshot(t *testing.T) {
	store, err := docstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(store, StubProvider{}, 1000, false, DefaultScoreWeights(), DefaultClassifyConfig(), nil)
	_, err = r.Run(context.Background(), RunOptions{})
	require.Error(t, err)
}

func TestRunScopedSynthesizesPlaceholders(t *testing.T) {
	store, err := docstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(store, StubProvider{}, 1000, false, DefaultScoreWeights(), DefaultClassifyConfig(), nil)

	scope := "1460 S BROADWAY | DENVER | CO | 80210"
	doc, err := r.Run(context.Background(), RunOptions{Scope: []string{scope}})
	require.NoError(t, err)
	require.Len(t, doc.Rows, 1)

	row := doc.Rows[0]
	assert.Equal(t, scope, row.AddressKey)
	assert.Equal(t, normalize.ParseKey(scope).ID, row.AddressID)
	assert.Equal(t, ClassUnknown, row.AddressClass)
	assert.Contains(t, row.Reasons, "NEEDS_SWEEP")
	assert.False(t, row.Context.FetchedCandidates)
	assert.Equal(t, "stub", doc.Provider.Mode)

	var persisted Doc
	require.NoError(t, store.Read(SweepDoc, &persisted))
	assert.Equal(t, 1, persisted.Counts["rows"])
	assert.Equal(t, 1, persisted.Counts["needsSweep"])
}

func TestRunLiveProviderScoresCandidates(t *testing.T) {
	store, err := docstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	tr := truthRow(t, "1460 S Broadway", "Denver", "80210", 2)
	require.NoError(t, store.Write(truth.AddressTruthDoc, truth.AddressDoc{Rows: []truth.AddressTruthRow{tr}}))

	provider := fakeProvider{
		geo: GeocodeResult{Status: "OK", Location: &LatLng{Lat: 39.69, Lng: -104.99}},
		places: []Place{{
			Name:             "Lux Nails",
			PlaceID:          "p1",
			Types:            []string{"nail_salon", "beauty_salon", "hair_care"},
			FormattedAddress: "1460 S Broadway, Denver, CO 80210",
			Location:         &LatLng{Lat: 39.69, Lng: -104.99},
		}},
	}
	r := NewRunner(store, provider, 1000, true, DefaultScoreWeights(), DefaultClassifyConfig(), nil)

	doc, err := r.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Len(t, doc.Rows, 1)

	row := doc.Rows[0]
	assert.Equal(t, ClassStorefront, row.AddressClass)
	require.NotNil(t, row.Top)
	assert.Equal(t, "p1", row.Top.PlaceID)
	assert.True(t, row.Top.AtAddress)
	assert.True(t, row.Context.GeocodeOK)
	assert.True(t, row.Context.FetchedCandidates)
	assert.Equal(t, 1, doc.Counts["class:storefront"])
	assert.True(t, doc.Provider.KeyPresent)
}

func TestRunProviderFailureIsDiagnosedNotFatal(t *testing.T) {
	store, err := docstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	tr := truthRow(t, "12 Oak St", "Denver", "80202", 1)
	require.NoError(t, store.Write(truth.AddressTruthDoc, truth.AddressDoc{Rows: []truth.AddressTruthRow{tr}}))

	provider := fakeProvider{geo: GeocodeResult{Status: "ERROR"}, geoErr: assertErr{}}
	r := NewRunner(store, provider, 1000, true, DefaultScoreWeights(), DefaultClassifyConfig(), nil)

	doc, err := r.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Len(t, doc.Rows, 1)
	assert.Contains(t, doc.Rows[0].Reasons, "PROVIDER_DEGRADED")
	assert.Equal(t, "geocode transport down", doc.Provider.LastError)
}

func TestRunOrderedByCityThenAddress(t *testing.T) {
	store, err := docstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	rows := []truth.AddressTruthRow{
		truthRow(t, "9 Pine St", "Westminster", "80030", 1),
		truthRow(t, "5 Elm St", "Aurora", "80010", 1),
		truthRow(t, "7 Oak St", "Aurora", "80010", 1),
	}
	require.NoError(t, store.Write(truth.AddressTruthDoc, truth.AddressDoc{Rows: rows}))

	r := NewRunner(store, StubProvider{}, 1000, false, DefaultScoreWeights(), DefaultClassifyConfig(), nil)
	doc, err := r.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Len(t, doc.Rows, 3)

	var cities []string
	for _, row := range doc.Rows {
		cities = append(cities, cityOf(row.AddressKey))
	}
	assert.Equal(t, []string{"AURORA", "AURORA", "WESTMINSTER"}, cities)
	assert.LessOrEqual(t, doc.Rows[0].AddressID, doc.Rows[1].AddressID)
}

type assertErr struct{}

func (assertErr) Error() string { return "geocode transport down" }
