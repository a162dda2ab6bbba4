package source

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptFacilitySynonyms(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want FacilityRow
	}{
		{
			name: "primary column names",
			row: Row{
				"facility_id": "FAC-1", "business_name": "Polished",
				"address1": "123 Main St", "city": "Denver", "state": "CO", "zip": "80202",
			},
			want: FacilityRow{FacilityID: "FAC-1", BusinessName: "Polished", Street1: "123 Main St", City: "Denver", State: "CO", Zip: "80202"},
		},
		{
			name: "synonym column names",
			row: Row{
				"License_Number": "FAC-2", "DBA": "Shine",
				"Street": "9 Elm Ave", "Premise_City": "Aurora", "State_Code": "CO", "Postal_Code": "80010",
			},
			want: FacilityRow{FacilityID: "FAC-2", BusinessName: "Shine", Street1: "9 Elm Ave", City: "Aurora", State: "CO", Zip: "80010"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AdaptFacility(tt.row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdaptFacilityMissingID(t *testing.T) {
	_, err := AdaptFacility(Row{"business_name": "No ID", "address1": "1 Main St"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRow))
}

func TestAdaptTech(t *testing.T) {
	got, err := AdaptTech(Row{
		"credential_number": "LIC-9",
		"licensee_name":     "J. Doe",
		"license_status":    "Active",
		"mailing_street":    "44 Pine St",
		"city":              "Denver",
		"state":             "CO",
	})
	require.NoError(t, err)
	assert.Equal(t, "LIC-9", got.LicenseID)
	assert.Equal(t, "Active", got.Status)
	assert.Equal(t, "44 Pine St", got.Street1)

	_, err = AdaptTech(Row{"name": "no license"})
	assert.True(t, errors.Is(err, ErrMalformedRow))
}

func TestAdaptSeed(t *testing.T) {
	got, err := AdaptSeed(Row{
		"brand": "Sola Salon", "address1": "500 Wazee St",
		"city": "Denver", "state": "CO", "zip": "80202", "url": "https://example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sola Salon", got.Brand)
	assert.Equal(t, "https://example.com", got.Website)

	_, err = AdaptSeed(Row{"address1": "500 Wazee St"})
	assert.True(t, errors.Is(err, ErrMalformedRow))
}

func TestIsActive(t *testing.T) {
	assert.True(t, IsActive("ACTIVE"))
	assert.True(t, IsActive(" current "))
	assert.False(t, IsActive("EXPIRED"))
	assert.False(t, IsActive(""))
}
