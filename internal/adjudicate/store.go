// Package adjudicate persists human decisions over swept addresses and
// merges them deterministically with the computed classification.
package adjudicate

import (
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/premise-atlas/internal/docstore"
)

// Decision values. confirm_candidate confirms one specific candidate by
// place id; the class-mapped decisions force a class outright.
const (
	DecisionUnreviewed       = "unreviewed"
	DecisionConfirmCandidate = "confirm_candidate"
	DecisionSuiteCenter      = "suite_center"
	DecisionResidential      = "residential"
	DecisionRejected         = "rejected"
	DecisionNoStorefront     = "no_storefront"
	DecisionUnknown          = "unknown"
)

// Adjudication is one live human decision for one canonical address. At
// most one exists per address key; upsert replaces.
type Adjudication struct {
	AddressKey string    `json:"addressKey"`
	Decision   string    `json:"decision"`
	PlaceID    string    `json:"placeId,omitempty"`
	Note       string    `json:"note,omitempty"`
	DecidedAt  time.Time `json:"decidedAt"`
}

// DocBody is the persisted adjudication document.
type DocBody struct {
	docstore.Envelope
	Items []Adjudication `json:"items"`
}

// AdjudicationsDoc names the persisted document.
const AdjudicationsDoc = "adjudications"

var validDecisions = map[string]bool{
	DecisionConfirmCandidate: true,
	DecisionSuiteCenter:      true,
	DecisionResidential:      true,
	DecisionRejected:         true,
	DecisionNoStorefront:     true,
	DecisionUnknown:          true,
}

// Store persists at most one adjudication per address key.
type Store struct {
	docs docstore.Store
}

func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

func (s *Store) read() (DocBody, error) {
	var doc DocBody
	if err := s.docs.Read(AdjudicationsDoc, &doc); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return doc, err
	}
	return doc, nil
}

func (s *Store) write(doc DocBody) error {
	sort.Slice(doc.Items, func(i, j int) bool { return doc.Items[i].AddressKey < doc.Items[j].AddressKey })
	doc.Envelope = docstore.NewEnvelope(map[string]int{"items": len(doc.Items)})
	return s.docs.Write(AdjudicationsDoc, doc)
}

// Upsert replaces any existing decision for the address key. Adjudicating
// an address unknown to the truth snapshot is a normal create.
func (s *Store) Upsert(adj Adjudication) error {
	changed, err := s.BulkUpsert([]Adjudication{adj})
	_ = changed
	return err
}

// BulkUpsert applies the upsert rule across many keys in one read-modify-
// write pass and reports how many entries actually changed.
func (s *Store) BulkUpsert(adjs []Adjudication) (int, error) {
	doc, err := s.read()
	if err != nil {
		return 0, err
	}

	byKey := make(map[string]int, len(doc.Items))
	for i, item := range doc.Items {
		byKey[item.AddressKey] = i
	}

	changed := 0
	for _, adj := range adjs {
		if adj.AddressKey == "" {
			return changed, errors.New("adjudicate: address key required")
		}
		if !validDecisions[adj.Decision] {
			return changed, errors.Newf("adjudicate: unknown decision %q", adj.Decision)
		}
		if adj.DecidedAt.IsZero() {
			adj.DecidedAt = time.Now().UTC()
		}
		if i, ok := byKey[adj.AddressKey]; ok {
			prev := doc.Items[i]
			if prev.Decision != adj.Decision || prev.PlaceID != adj.PlaceID || prev.Note != adj.Note {
				changed++
			}
			doc.Items[i] = adj
			continue
		}
		byKey[adj.AddressKey] = len(doc.Items)
		doc.Items = append(doc.Items, adj)
		changed++
	}

	if err := s.write(doc); err != nil {
		return changed, err
	}
	return changed, nil
}

// Get returns the live adjudication for a key, if any.
func (s *Store) Get(addressKey string) (Adjudication, bool, error) {
	doc, err := s.read()
	if err != nil {
		return Adjudication{}, false, err
	}
	for _, item := range doc.Items {
		if item.AddressKey == addressKey {
			return item, true, nil
		}
	}
	return Adjudication{}, false, nil
}

// All returns every live adjudication keyed by address key.
func (s *Store) All() (map[string]Adjudication, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Adjudication, len(doc.Items))
	for _, item := range doc.Items {
		out[item.AddressKey] = item
	}
	return out, nil
}
