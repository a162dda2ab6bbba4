package truth

import (
	"github.com/cockroachdb/errors"

	"github.com/premise-atlas/internal/brand"
	"github.com/premise-atlas/internal/docstore"
	"github.com/premise-atlas/internal/source"
)

// SourceDoc is the shape the ingestion layer writes for each source table.
type SourceDoc struct {
	docstore.Envelope
	Rows []source.Row `json:"rows"`
}

// Build runs the full truth rebuild: read both source documents, aggregate
// to address rows, roll up to city rows, and replace both truth documents.
// Missing source documents fail the build fast; malformed rows are skipped
// and tallied.
func Build(store docstore.Store, reg *brand.Registry, th Thresholds) (BuildStats, error) {
	var facDoc, techDoc SourceDoc
	if err := store.Read(SourceFacilitiesDoc, &facDoc); err != nil {
		return BuildStats{}, errors.Wrap(err, "truth build: facility source")
	}
	if err := store.Read(SourceTechsDoc, &techDoc); err != nil {
		return BuildStats{}, errors.Wrap(err, "truth build: tech source")
	}

	agg := NewAggregator(reg, th)
	for _, row := range facDoc.Rows {
		agg.AddFacilityRow(row)
	}
	for _, row := range techDoc.Rows {
		agg.AddTechRow(row)
	}
	rows, stats := agg.Finalize()
	cities := BuildCityTruth(rows)
	stats.Cities = len(cities)

	addrDoc := AddressDoc{
		Envelope: docstore.NewEnvelope(map[string]int{
			"rows":            len(rows),
			"skippedFacility": stats.SkippedFacility,
			"skippedTech":     stats.SkippedTech,
		}),
		Rows: rows,
	}
	if err := store.Write(AddressTruthDoc, addrDoc); err != nil {
		return stats, err
	}
	cityDoc := CityDoc{
		Envelope: docstore.NewEnvelope(map[string]int{"rows": len(cities)}),
		Rows:     cities,
	}
	if err := store.Write(CityTruthDoc, cityDoc); err != nil {
		return stats, err
	}
	return stats, nil
}
