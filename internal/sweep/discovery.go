package sweep

import (
	"context"

	"golang.org/x/time/rate"
)

// SearchKeywords are the fixed nearby-search terms swept per address.
var SearchKeywords = []string{
	"nail salon",
	"hair salon",
	"salon suites",
	"beauty salon",
}

// Discoverer wraps the provider with rate limiting and per-address
// candidate deduplication.
type Discoverer struct {
	provider Provider
	limiter  *rate.Limiter
	keywords []string
}

// NewDiscoverer builds a discoverer. qps bounds outbound calls; zero or
// negative means one call per second.
func NewDiscoverer(provider Provider, qps float64) *Discoverer {
	if qps <= 0 {
		qps = 1
	}
	return &Discoverer{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(qps), 1),
		keywords: SearchKeywords,
	}
}

// Discover geocodes one canonical address and collects deduplicated nearby
// candidates across all keywords. The returned error reflects the first
// provider failure; partial results are still returned.
func (d *Discoverer) Discover(ctx context.Context, address string) (GeocodeResult, []Place, int, error) {
	calls := 0
	if err := d.limiter.Wait(ctx); err != nil {
		return GeocodeResult{Status: "CANCELLED"}, nil, calls, err
	}
	geo, err := d.provider.Geocode(ctx, address)
	calls++
	if err != nil {
		return geo, nil, calls, err
	}
	if geo.Location == nil {
		return geo, nil, calls, nil
	}

	var firstErr error
	seen := make(map[string]bool)
	var places []Place
	for _, kw := range d.keywords {
		if err := d.limiter.Wait(ctx); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			break
		}
		hits, err := d.provider.NearbySearch(ctx, *geo.Location, kw)
		calls++
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, p := range hits {
			k := dedupeKey(p)
			if seen[k] {
				continue
			}
			seen[k] = true
			places = append(places, p)
		}
	}
	return geo, places, calls, firstErr
}

// dedupeKey prefers the provider's place id, falling back to name+vicinity.
func dedupeKey(p Place) string {
	if p.PlaceID != "" {
		return "id:" + p.PlaceID
	}
	return "nv:" + p.Name + "|" + p.Vicinity
}
