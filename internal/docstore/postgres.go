package docstore

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq"
)

// PGStore persists documents in a single Postgres table with upsert
// semantics. It exists for deployments that already run Postgres; the
// engine's semantics are identical to the file store.
type PGStore struct {
	db *sql.DB
}

const createDocumentTable = `
CREATE TABLE IF NOT EXISTS premise_document (
	name       text PRIMARY KEY,
	body       jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
)`

// NewPGStore opens the connection, verifies it, and ensures the document
// table exists.
func NewPGStore(url string) (*PGStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "docstore: opening postgres")
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "docstore: connecting to postgres")
	}
	if _, err := db.Exec(createDocumentTable); err != nil {
		return nil, errors.Wrap(err, "docstore: ensuring premise_document table")
	}
	return &PGStore{db: db}, nil
}

func (ps *PGStore) Read(name string, into interface{}) error {
	var body []byte
	err := ps.db.QueryRow(`SELECT body FROM premise_document WHERE name = $1`, name).Scan(&body)
	if err == sql.ErrNoRows {
		return errors.Wrapf(ErrNotFound, "%s (premise_document)", name)
	}
	if err != nil {
		return errors.Wrapf(err, "docstore: reading %s", name)
	}
	if err := json.Unmarshal(body, into); err != nil {
		return errors.Wrapf(err, "docstore: decoding %s", name)
	}
	return nil
}

func (ps *PGStore) Write(name string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "docstore: encoding %s", name)
	}
	_, err = ps.db.Exec(`
		INSERT INTO premise_document (name, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = now()
	`, name, body)
	if err != nil {
		return errors.Wrapf(err, "docstore: upserting %s", name)
	}
	return nil
}

func (ps *PGStore) Exists(name string) (bool, error) {
	var one int
	err := ps.db.QueryRow(`SELECT 1 FROM premise_document WHERE name = $1`, name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "docstore: stat %s", name)
	}
	return true, nil
}

// Close releases the underlying connection pool.
func (ps *PGStore) Close() error {
	return ps.db.Close()
}
