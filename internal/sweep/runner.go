package sweep

import (
	"context"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/premise-atlas/internal/docstore"
	"github.com/premise-atlas/internal/facility"
	"github.com/premise-atlas/internal/normalize"
	"github.com/premise-atlas/internal/source"
	"github.com/premise-atlas/internal/truth"
)

// Runner executes one sweep over the current truth snapshot.
type Runner struct {
	store      docstore.Store
	disc       *Discoverer
	mode       string
	keyPresent bool
	weights    ScoreWeights
	cfg        ClassifyConfig
	log        *zap.SugaredLogger
}

// NewRunner wires a runner. provider may be the stub; keyPresent is a hint
// surfaced in diagnostics, never the key itself.
func NewRunner(store docstore.Store, provider Provider, qps float64, keyPresent bool, weights ScoreWeights, cfg ClassifyConfig, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{
		store:      store,
		disc:       NewDiscoverer(provider, qps),
		mode:       provider.Mode(),
		keyPresent: keyPresent,
		weights:    weights,
		cfg:        cfg,
		log:        log,
	}
}

// RunOptions scopes a sweep. An empty Scope sweeps every truth row; keys
// may be address ids or canonical key strings. Scoped keys absent from the
// truth snapshot are synthesized as minimal placeholder rows.
type RunOptions struct {
	Scope []string
}

// density holds the per-address license tallies the classifier reads.
type density struct {
	total  int
	active int
}

// Run executes the sweep and replaces the sweep document. Provider
// failures become per-run diagnostics; the batch never aborts on them.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (Doc, error) {
	targets, err := r.selectTargets(opts)
	if err != nil {
		return Doc{}, err
	}
	densities := r.loadDensities()
	accepted := r.loadAcceptedAddresses()

	diag := Diagnostics{
		Mode:       r.mode,
		KeyPresent: r.keyPresent,
		RunID:      uuid.NewString(),
	}

	rows := make([]Row, 0, len(targets))
	for _, tr := range targets {
		rows = append(rows, r.sweepOne(ctx, tr, densities[tr.AddressID], accepted[tr.AddressID], &diag))
	}

	sort.Slice(rows, func(i, j int) bool {
		ci, cj := cityOf(rows[i].AddressKey), cityOf(rows[j].AddressKey)
		if ci != cj {
			return ci < cj
		}
		return rows[i].AddressID < rows[j].AddressID
	})

	counts := map[string]int{"rows": len(rows)}
	for _, row := range rows {
		counts["class:"+row.AddressClass]++
		if len(row.Candidates) == 0 {
			counts["noHits"]++
		}
		for _, reason := range row.Reasons {
			if reason == "NEEDS_SWEEP" {
				counts["needsSweep"]++
			}
		}
	}

	doc := Doc{
		Envelope: docstore.NewEnvelope(counts),
		Provider: diag,
		Rows:     rows,
	}
	if err := r.store.Write(SweepDoc, doc); err != nil {
		return doc, err
	}
	r.log.Infow("sweep complete",
		"rows", len(rows),
		"mode", diag.Mode,
		"geocodeCalls", diag.GeocodeCalls,
		"searchCalls", diag.SearchCalls,
		"lastError", diag.LastError)
	return doc, nil
}

func (r *Runner) sweepOne(ctx context.Context, tr truth.AddressTruthRow, dens density, acceptedFacility bool, diag *Diagnostics) Row {
	key := normalize.ParseKey(tr.AddressKey)
	row := Row{
		AddressID:  tr.AddressID,
		AddressKey: tr.AddressKey,
		Context: Context{
			UniqueTechs:      tr.TechCount,
			LicenseCount:     dens.total,
			ActiveCount:      dens.active,
			AcceptedFacility: acceptedFacility,
		},
	}
	if dens.total > 0 {
		row.Context.ActiveFraction = float64(dens.active) / float64(dens.total)
	}

	geo, places, calls, err := r.disc.Discover(ctx, tr.AddressKey)
	diag.GeocodeCalls++
	if calls > 1 {
		diag.SearchCalls += calls - 1
	}
	if err != nil {
		diag.LastError = err.Error()
	}
	row.Context.GeocodeOK = geo.Status == "OK" && geo.Location != nil
	row.Context.FetchedCandidates = r.mode == "live" && err == nil &&
		(geo.Status == "OK" || geo.Status == "ZERO_RESULTS")

	cands := make([]Candidate, 0, len(places))
	for _, p := range places {
		cands = append(cands, ScoreCandidate(key, geo.Location, p, r.weights))
	}
	SortCandidates(cands)
	row.Candidates = cands
	if top := topCandidate(cands); top != nil {
		row.Top = top
	}

	class, conf, reasons := Classify(key, row.Context, cands, r.cfg)
	row.AddressClass = class
	row.Confidence = conf
	row.Reasons = reasons
	if err != nil {
		row.Reasons = append(row.Reasons, "PROVIDER_DEGRADED")
	}
	return row
}

// selectTargets resolves the sweep scope against the truth snapshot. A
// full sweep with no snapshot is a MissingInput hard failure; a scoped
// sweep synthesizes placeholders for unknown keys instead of failing.
func (r *Runner) selectTargets(opts RunOptions) ([]truth.AddressTruthRow, error) {
	var doc truth.AddressDoc
	readErr := r.store.Read(truth.AddressTruthDoc, &doc)
	if readErr != nil && !errors.Is(readErr, docstore.ErrNotFound) {
		return nil, readErr
	}
	if len(opts.Scope) == 0 {
		if readErr != nil {
			return nil, errors.Wrap(readErr, "sweep: truth snapshot required for a full sweep")
		}
		return doc.Rows, nil
	}

	byID := make(map[string]truth.AddressTruthRow, len(doc.Rows))
	byKey := make(map[string]truth.AddressTruthRow, len(doc.Rows))
	for _, row := range doc.Rows {
		byID[row.AddressID] = row
		byKey[row.AddressKey] = row
	}

	var targets []truth.AddressTruthRow
	for _, want := range opts.Scope {
		if row, ok := byID[want]; ok {
			targets = append(targets, row)
			continue
		}
		if row, ok := byKey[want]; ok {
			targets = append(targets, row)
			continue
		}
		key := normalize.ParseKey(want)
		targets = append(targets, truth.AddressTruthRow{
			AddressID:  key.ID,
			AddressKey: key.Normalized,
			CityKey:    key.CityKey,
			Zip5:       key.Zip5,
			Seg:        truth.SegUnknown,
			Reasons:    []string{"SYNTHESIZED_FOR_SWEEP"},
		})
	}
	return targets, nil
}

// loadDensities recomputes per-address license totals and active counts
// from the raw tech source. Missing source is tolerated; densities just
// stay zero.
func (r *Runner) loadDensities() map[string]density {
	out := make(map[string]density)
	var doc truth.SourceDoc
	if err := r.store.Read(truth.SourceTechsDoc, &doc); err != nil {
		return out
	}
	for _, raw := range doc.Rows {
		tech, err := source.AdaptTech(raw)
		if err != nil {
			continue
		}
		key, err := normalize.Normalize(tech.Street1, tech.Street2, tech.City, tech.State, tech.Zip)
		if err != nil {
			continue
		}
		d := out[key.ID]
		d.total++
		if source.IsActive(tech.Status) {
			d.active++
		}
		out[key.ID] = d
	}
	return out
}

// loadAcceptedAddresses maps address ids covered by the facility
// directory. A directory entry is an operator-accepted overlay.
func (r *Runner) loadAcceptedAddresses() map[string]bool {
	out := make(map[string]bool)
	var dir facility.DirectoryDocBody
	if err := r.store.Read(facility.DirectoryDoc, &dir); err != nil {
		return out
	}
	for _, f := range dir.Rows {
		out[f.AddressID] = true
	}
	return out
}

func cityOf(addressKey string) string {
	parts := strings.SplitN(addressKey, " | ", 3)
	if len(parts) > 1 {
		return parts[1]
	}
	return ""
}
