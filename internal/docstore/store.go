// Package docstore is the engine's persistence seam: a key-value document
// store with read/replace-whole-document semantics. Two backends exist, a
// JSON-file store (default) and a Postgres-backed store selected when a
// database URL is configured.
package docstore

import (
	"time"

	"github.com/cockroachdb/errors"
)

// ErrNotFound is returned when a named document does not exist. Build steps
// that require the document treat this as a MissingInput hard failure.
var ErrNotFound = errors.New("document not found")

// Store reads and replaces whole named documents.
type Store interface {
	Read(name string, into interface{}) error
	Write(name string, doc interface{}) error
	Exists(name string) (bool, error)
}

// Envelope is the common wrapper carried by every persisted document.
type Envelope struct {
	OK        bool           `json:"ok"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Counts    map[string]int `json:"counts,omitempty"`
}

// NewEnvelope stamps a fresh envelope.
func NewEnvelope(counts map[string]int) Envelope {
	return Envelope{OK: true, UpdatedAt: time.Now().UTC(), Counts: counts}
}
