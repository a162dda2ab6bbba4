// Package source maps heterogeneous upstream row shapes onto the common
// address tuple the engine works with. Each source type carries an explicit
// synonym table from canonical field name to the raw column names seen in
// the wild, consumed by one typed adapter per source.
package source

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Row is one upstream record with named fields, as produced by the (out of
// scope) ingestion layer.
type Row map[string]string

// ErrMalformedRow marks rows missing a required identity field. Callers
// skip and tally these, they never abort a batch.
var ErrMalformedRow = errors.New("malformed source row")

// Synonyms maps a canonical field name to the ordered list of raw column
// names accepted for it. First present non-blank value wins.
type Synonyms map[string][]string

var facilitySynonyms = Synonyms{
	"facilityId":   {"facility_id", "registration_id", "license_number", "reg_no", "id"},
	"businessName": {"business_name", "dba", "dba_name", "facility_name", "name"},
	"street1":      {"address1", "address_line_1", "street", "premise_street", "addr1"},
	"street2":      {"address2", "address_line_2", "suite", "addr2"},
	"city":         {"city", "premise_city", "addr_city"},
	"state":        {"state", "premise_state", "addr_state", "state_code"},
	"zip":          {"zip", "zip_code", "postal_code", "premise_zip"},
	"status":       {"status", "license_status", "registration_status"},
}

var techSynonyms = Synonyms{
	"licenseId":   {"license_id", "license_no", "credential_number", "credential_id", "id"},
	"holderName":  {"holder_name", "licensee_name", "full_name", "name"},
	"licenseType": {"license_type", "credential_type", "profession"},
	"status":      {"status", "license_status", "credential_status"},
	"street1":     {"address1", "address_line_1", "street", "mailing_street", "addr1"},
	"street2":     {"address2", "address_line_2", "mailing_street2", "addr2"},
	"city":        {"city", "mailing_city", "addr_city"},
	"state":       {"state", "mailing_state", "addr_state", "state_code"},
	"zip":         {"zip", "zip_code", "postal_code", "mailing_zip"},
}

var seedSynonyms = Synonyms{
	"brand":    {"brand", "brand_name", "chain"},
	"name":     {"display_name", "location_name", "name"},
	"street1":  {"address1", "address_line_1", "street", "addr1"},
	"street2":  {"address2", "address_line_2", "suite", "addr2"},
	"city":     {"city"},
	"state":    {"state", "state_code"},
	"zip":      {"zip", "zip_code", "postal_code"},
	"category": {"category", "segment", "type"},
	"phone":    {"phone", "phone_number"},
	"website":  {"website", "url", "web"},
}

// FacilityRow is one regulatory facility registration.
type FacilityRow struct {
	FacilityID   string
	BusinessName string
	Street1      string
	Street2      string
	City         string
	State        string
	Zip          string
	Status       string
}

// TechRow is one individual license holder.
type TechRow struct {
	LicenseID   string
	HolderName  string
	LicenseType string
	Status      string
	Street1     string
	Street2     string
	City        string
	State       string
	Zip         string
}

// SeedRow is one operator-entered facility seed.
type SeedRow struct {
	Brand    string `json:"brand"`
	Name     string `json:"name,omitempty"`
	Street1  string `json:"street1"`
	Street2  string `json:"street2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Category string `json:"category,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Website  string `json:"website,omitempty"`
}

func lookup(row Row, names []string) string {
	for _, name := range names {
		for k, v := range row {
			if strings.EqualFold(strings.TrimSpace(k), name) {
				if val := strings.TrimSpace(v); val != "" {
					return val
				}
			}
		}
	}
	return ""
}

func field(row Row, syn Synonyms, canonical string) string {
	return lookup(row, syn[canonical])
}

// AdaptFacility resolves a raw facility/registration row. A blank facility
// id is a MalformedRow: without the identity field the row cannot be
// counted without double-counting risk.
func AdaptFacility(row Row) (FacilityRow, error) {
	out := FacilityRow{
		FacilityID:   field(row, facilitySynonyms, "facilityId"),
		BusinessName: field(row, facilitySynonyms, "businessName"),
		Street1:      field(row, facilitySynonyms, "street1"),
		Street2:      field(row, facilitySynonyms, "street2"),
		City:         field(row, facilitySynonyms, "city"),
		State:        field(row, facilitySynonyms, "state"),
		Zip:          field(row, facilitySynonyms, "zip"),
		Status:       field(row, facilitySynonyms, "status"),
	}
	if out.FacilityID == "" {
		return out, errors.Wrap(ErrMalformedRow, "facility row missing facility id")
	}
	return out, nil
}

// AdaptTech resolves a raw license-holder row.
func AdaptTech(row Row) (TechRow, error) {
	out := TechRow{
		LicenseID:   field(row, techSynonyms, "licenseId"),
		HolderName:  field(row, techSynonyms, "holderName"),
		LicenseType: field(row, techSynonyms, "licenseType"),
		Status:      field(row, techSynonyms, "status"),
		Street1:     field(row, techSynonyms, "street1"),
		Street2:     field(row, techSynonyms, "street2"),
		City:        field(row, techSynonyms, "city"),
		State:       field(row, techSynonyms, "state"),
		Zip:         field(row, techSynonyms, "zip"),
	}
	if out.LicenseID == "" {
		return out, errors.Wrap(ErrMalformedRow, "tech row missing license id")
	}
	return out, nil
}

// AdaptSeed resolves an operator-entered seed row. Brand and the full
// address are required; validation beyond presence happens in the facility
// resolver.
func AdaptSeed(row Row) (SeedRow, error) {
	out := SeedRow{
		Brand:    field(row, seedSynonyms, "brand"),
		Name:     field(row, seedSynonyms, "name"),
		Street1:  field(row, seedSynonyms, "street1"),
		Street2:  field(row, seedSynonyms, "street2"),
		City:     field(row, seedSynonyms, "city"),
		State:    field(row, seedSynonyms, "state"),
		Zip:      field(row, seedSynonyms, "zip"),
		Category: field(row, seedSynonyms, "category"),
		Phone:    field(row, seedSynonyms, "phone"),
		Website:  field(row, seedSynonyms, "website"),
	}
	if out.Brand == "" {
		return out, errors.Wrap(ErrMalformedRow, "seed row missing brand")
	}
	return out, nil
}

// IsActive reports whether a license status string counts as live.
func IsActive(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "ACTIVE", "CURRENT", "VALID", "ISSUED", "RENEWED":
		return true
	}
	return false
}
