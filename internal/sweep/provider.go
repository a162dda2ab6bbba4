package sweep

import "context"

// Provider is the external geocode + nearby-place-search capability. Both
// calls tolerate non-OK upstream statuses by returning an explicit status
// string; transport-level failures come back as errors and are converted
// into per-run diagnostics, never a batch abort.
type Provider interface {
	Geocode(ctx context.Context, address string) (GeocodeResult, error)
	NearbySearch(ctx context.Context, loc LatLng, keyword string) ([]Place, error)
	Mode() string
}

// StubProvider is the degraded mode used when no API key is configured: it
// returns empty results with a stub status so the sweep still emits rows.
type StubProvider struct{}

func (StubProvider) Geocode(ctx context.Context, address string) (GeocodeResult, error) {
	return GeocodeResult{Status: "STUB"}, nil
}

func (StubProvider) NearbySearch(ctx context.Context, loc LatLng, keyword string) ([]Place, error) {
	return nil, nil
}

func (StubProvider) Mode() string { return "stub" }
