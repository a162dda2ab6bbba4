package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
)

// PlacesClient speaks the Google-Maps-shaped geocode and nearby-search
// endpoints. Response-shape drift is isolated here: the wire structs below
// are adapted into the normalized Place record before anything downstream
// sees them.
type PlacesClient struct {
	baseURL string
	apiKey  string
	radiusM int
	http    *http.Client
}

// NewPlacesClient builds a live client. baseURL defaults to the Google
// Maps API root when empty.
func NewPlacesClient(baseURL, apiKey string, timeout time.Duration) *PlacesClient {
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PlacesClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		radiusM: 150,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *PlacesClient) Mode() string { return "live" }

// Wire shapes for the provider's JSON responses.
type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type nearbyResponse struct {
	Status  string        `json:"status"`
	Results []placeResult `json:"results"`
}

type placeResult struct {
	Name     string   `json:"name"`
	PlaceID  string   `json:"place_id"`
	Types    []string `json:"types"`
	Vicinity string   `json:"vicinity"`
	Rating   float64  `json:"rating"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	FormattedAddress         string `json:"formatted_address"`
	FormattedPhoneNumber     string `json:"formatted_phone_number"`
	InternationalPhoneNumber string `json:"international_phone_number"`
	Website                  string `json:"website"`
}

// adaptPlace is the one provider-version adapter from the wire shape to
// the normalized candidate record.
func adaptPlace(pr placeResult) Place {
	p := Place{
		Name:             pr.Name,
		PlaceID:          pr.PlaceID,
		Types:            pr.Types,
		Vicinity:         pr.Vicinity,
		FormattedAddress: pr.FormattedAddress,
		Website:          pr.Website,
		Rating:           pr.Rating,
	}
	if pr.FormattedPhoneNumber != "" {
		p.Phone = pr.FormattedPhoneNumber
	} else if pr.InternationalPhoneNumber != "" {
		p.Phone = pr.InternationalPhoneNumber
	}
	if pr.Geometry.Location.Lat != 0 || pr.Geometry.Location.Lng != 0 {
		p.Location = &LatLng{Lat: pr.Geometry.Location.Lat, Lng: pr.Geometry.Location.Lng}
	}
	return p
}

func (c *PlacesClient) get(ctx context.Context, path string, params url.Values, into interface{}) error {
	params.Set("key", c.apiKey)
	u := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "places: building request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "places: request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("places: http %d from %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return errors.Wrap(err, "places: decoding response")
	}
	return nil
}

func (c *PlacesClient) Geocode(ctx context.Context, address string) (GeocodeResult, error) {
	params := url.Values{"address": {address}}
	var resp geocodeResponse
	if err := c.get(ctx, "/geocode/json", params, &resp); err != nil {
		return GeocodeResult{Status: "ERROR"}, err
	}
	out := GeocodeResult{Status: resp.Status}
	if resp.Status == "OK" && len(resp.Results) > 0 {
		r := resp.Results[0]
		out.Location = &LatLng{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng}
		out.FormattedAddress = r.FormattedAddress
	}
	return out, nil
}

func (c *PlacesClient) NearbySearch(ctx context.Context, loc LatLng, keyword string) ([]Place, error) {
	params := url.Values{
		"location": {fmt.Sprintf("%f,%f", loc.Lat, loc.Lng)},
		"radius":   {fmt.Sprintf("%d", c.radiusM)},
		"keyword":  {keyword},
	}
	var resp nearbyResponse
	if err := c.get(ctx, "/place/nearbysearch/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, errors.Newf("places: nearby search status %s", resp.Status)
	}
	out := make([]Place, 0, len(resp.Results))
	for _, pr := range resp.Results {
		out = append(out, adaptPlace(pr))
	}
	return out, nil
}
