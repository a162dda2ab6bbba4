// Package facility resolves operator-entered seed records against the
// canonical address space and maintains the deduplicated facility
// directory.
package facility

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/premise-atlas/internal/docstore"
	"github.com/premise-atlas/internal/normalize"
	"github.com/premise-atlas/internal/source"
)

// Document names in the docstore.
const (
	SeedLogDoc   = "facility_seedlog"
	DirectoryDoc = "facility_directory"
)

// Facility is one operator-confirmed premise in the directory.
type Facility struct {
	FacilityID      string `json:"facilityId"`
	AddressID       string `json:"addressId"`
	AddressKey      string `json:"addressKey"`
	AddressKeyExact string `json:"addressKeyExact"`
	AddressKeyBase  string `json:"addressKeyBase"`
	Brand           string `json:"brand"`
	DisplayName     string `json:"displayName,omitempty"`
	Category        string `json:"category,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Website         string `json:"website,omitempty"`
}

// SeedEntry is one committed seed, stamped with its log and commit time.
type SeedEntry struct {
	Seed    source.SeedRow `json:"seed"`
	Key     normalize.Key  `json:"key"`
	Log     string         `json:"log"`
	AddedAt time.Time      `json:"addedAt"`
}

// SeedLogDocBody holds every named seed log in one document.
type SeedLogDocBody struct {
	docstore.Envelope
	Logs map[string][]SeedEntry `json:"logs"`
}

// DirectoryDocBody is the persisted facility directory.
type DirectoryDocBody struct {
	docstore.Envelope
	Rows []Facility `json:"rows"`
}

// PreviewResult buckets incoming rows against the current directory.
type PreviewResult struct {
	Matched  []MatchedSeed  `json:"matched"`
	NotFound []PreviewSeed  `json:"notFound"`
	Invalid  []InvalidSeed  `json:"invalid"`
	Counts   map[string]int `json:"counts"`
}

type PreviewSeed struct {
	Seed source.SeedRow `json:"seed"`
	Key  normalize.Key  `json:"key"`
}

type MatchedSeed struct {
	PreviewSeed
	MatchTier  string `json:"matchTier"` // exact | normalized | base
	FacilityID string `json:"facilityId"`
}

type InvalidSeed struct {
	Seed   source.SeedRow `json:"seed"`
	Reason string         `json:"reason"`
}

// CommitResult summarizes one commit pass.
type CommitResult struct {
	Appended        int `json:"appended"`
	SkippedExisting int `json:"skippedExisting"`
	Invalid         int `json:"invalid"`
	DirectorySize   int `json:"directorySize"`
}

// Resolver matches and commits seeds against the docstore-backed directory.
type Resolver struct {
	store docstore.Store
	log   *zap.SugaredLogger
}

func NewResolver(store docstore.Store, log *zap.SugaredLogger) *Resolver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Resolver{store: store, log: log}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases and collapses non-alphanumerics to single dashes.
func Slug(s string) string {
	out := nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(out, "-")
}

// FacilityID derives the deterministic directory id from brand and address
// key. Re-importing the same seed always reproduces the same id.
func FacilityID(brand, addressKey string) string {
	return Slug(brand) + "_" + Slug(addressKey)
}

// validate checks the required seed fields and normalizes the address.
func validate(row source.Row) (source.SeedRow, normalize.Key, string) {
	seed, err := source.AdaptSeed(row)
	if err != nil {
		return seed, normalize.Key{}, "missing brand"
	}
	if seed.Street1 == "" || seed.City == "" || seed.State == "" || seed.Zip == "" {
		return seed, normalize.Key{}, "missing address part"
	}
	key, err := normalize.Normalize(seed.Street1, seed.Street2, seed.City, seed.State, seed.Zip)
	if err != nil {
		return seed, normalize.Key{}, "address failed normalization"
	}
	return seed, key, ""
}

// directoryIndex indexes the current directory at the three key tiers.
type directoryIndex struct {
	exact      map[string]*Facility
	normalized map[string]*Facility
	base       map[string]*Facility
}

func indexDirectory(rows []Facility) directoryIndex {
	idx := directoryIndex{
		exact:      make(map[string]*Facility, len(rows)),
		normalized: make(map[string]*Facility, len(rows)),
		base:       make(map[string]*Facility, len(rows)),
	}
	for i := range rows {
		f := &rows[i]
		idx.exact[f.AddressKeyExact] = f
		idx.normalized[f.AddressKey] = f
		idx.base[f.AddressKeyBase] = f
	}
	return idx
}

// match walks the tiers strictest first.
func (idx directoryIndex) match(key normalize.Key) (*Facility, string) {
	if f, ok := idx.exact[key.Exact]; ok {
		return f, "exact"
	}
	if f, ok := idx.normalized[key.Normalized]; ok {
		return f, "normalized"
	}
	if f, ok := idx.base[key.Base]; ok {
		return f, "base"
	}
	return nil, ""
}

// Preview matches incoming rows against the existing directory at all
// three key tiers and reports the matched / not-found / invalid buckets
// without writing anything.
func (r *Resolver) Preview(rows []source.Row) (PreviewResult, error) {
	dir, err := r.readDirectory()
	if err != nil {
		return PreviewResult{}, err
	}
	idx := indexDirectory(dir.Rows)

	res := PreviewResult{Counts: map[string]int{}}
	for _, row := range rows {
		seed, key, reason := validate(row)
		if reason != "" {
			res.Invalid = append(res.Invalid, InvalidSeed{Seed: seed, Reason: reason})
			continue
		}
		if f, tier := idx.match(key); f != nil {
			res.Matched = append(res.Matched, MatchedSeed{
				PreviewSeed: PreviewSeed{Seed: seed, Key: key},
				MatchTier:   tier,
				FacilityID:  f.FacilityID,
			})
			continue
		}
		res.NotFound = append(res.NotFound, PreviewSeed{Seed: seed, Key: key})
	}
	res.Counts["matched"] = len(res.Matched)
	res.Counts["notFound"] = len(res.NotFound)
	res.Counts["invalid"] = len(res.Invalid)
	return res, nil
}

// Commit appends the not-found rows to the named seed log, skipping any
// whose base key already exists anywhere in the seed logs, then rebuilds
// the directory from all logs. Committing the same file twice is a no-op
// on the second run apart from the skippedExisting tally.
func (r *Resolver) Commit(logName string, rows []source.Row) (CommitResult, error) {
	if logName == "" {
		return CommitResult{}, errors.New("facility commit: seed log name required")
	}
	preview, err := r.Preview(rows)
	if err != nil {
		return CommitResult{}, err
	}

	var logs SeedLogDocBody
	if err := r.store.Read(SeedLogDoc, &logs); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return CommitResult{}, err
	}
	if logs.Logs == nil {
		logs.Logs = make(map[string][]SeedEntry)
	}

	existingBase := make(map[string]bool)
	for _, entries := range logs.Logs {
		for _, e := range entries {
			existingBase[e.Key.Base] = true
		}
	}

	res := CommitResult{Invalid: len(preview.Invalid)}
	// Directory matches also count as already present.
	res.SkippedExisting += len(preview.Matched)
	now := time.Now().UTC()
	for _, seed := range preview.NotFound {
		if existingBase[seed.Key.Base] {
			res.SkippedExisting++
			continue
		}
		existingBase[seed.Key.Base] = true
		logs.Logs[logName] = append(logs.Logs[logName], SeedEntry{
			Seed:    seed.Seed,
			Key:     seed.Key,
			Log:     logName,
			AddedAt: now,
		})
		res.Appended++
	}

	logs.Envelope = docstore.NewEnvelope(map[string]int{"logs": len(logs.Logs)})
	if err := r.store.Write(SeedLogDoc, logs); err != nil {
		return res, err
	}

	dir, err := r.Rebuild()
	if err != nil {
		return res, err
	}
	res.DirectorySize = len(dir)
	r.log.Infow("facility commit",
		"log", logName,
		"appended", res.Appended,
		"skippedExisting", res.SkippedExisting,
		"invalid", res.Invalid,
		"directory", res.DirectorySize)
	return res, nil
}

// Rebuild regenerates the whole directory from every seed log, last write
// wins per address key, and replaces the directory document.
func (r *Resolver) Rebuild() ([]Facility, error) {
	var logs SeedLogDocBody
	if err := r.store.Read(SeedLogDoc, &logs); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}

	var entries []SeedEntry
	for _, logEntries := range logs.Logs {
		entries = append(entries, logEntries...)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].AddedAt.Before(entries[j].AddedAt) })

	byKey := make(map[string]Facility)
	for _, e := range entries {
		byKey[e.Key.Normalized] = Facility{
			FacilityID:      FacilityID(e.Seed.Brand, e.Key.Normalized),
			AddressID:       e.Key.ID,
			AddressKey:      e.Key.Normalized,
			AddressKeyExact: e.Key.Exact,
			AddressKeyBase:  e.Key.Base,
			Brand:           e.Seed.Brand,
			DisplayName:     e.Seed.Name,
			Category:        e.Seed.Category,
			Phone:           e.Seed.Phone,
			Website:         e.Seed.Website,
		}
	}

	rows := make([]Facility, 0, len(byKey))
	for _, f := range byKey {
		rows = append(rows, f)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].AddressKey < rows[j].AddressKey })

	doc := DirectoryDocBody{
		Envelope: docstore.NewEnvelope(map[string]int{"rows": len(rows)}),
		Rows:     rows,
	}
	if err := r.store.Write(DirectoryDoc, doc); err != nil {
		return rows, err
	}
	return rows, nil
}

// Directory returns the current directory rows, empty when none exists.
func (r *Resolver) Directory() ([]Facility, error) {
	dir, err := r.readDirectory()
	if err != nil {
		return nil, err
	}
	return dir.Rows, nil
}

func (r *Resolver) readDirectory() (DirectoryDocBody, error) {
	var dir DirectoryDocBody
	if err := r.store.Read(DirectoryDoc, &dir); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return dir, err
	}
	return dir, nil
}
