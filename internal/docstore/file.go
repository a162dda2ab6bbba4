package docstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// FileStore keeps one pretty-printed JSON file per document under a data
// directory. Writes are temp-then-rename so a crash mid-write never leaves
// a partial document visible to readers.
type FileStore struct {
	dir string
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("docstore: data directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "docstore: creating data dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) path(name string) string {
	// Document names may carry a subdirectory, e.g. "seeds/operator-2026".
	clean := filepath.FromSlash(strings.TrimPrefix(name, "/"))
	return filepath.Join(fs.dir, clean+".json")
}

func (fs *FileStore) Read(name string, into interface{}) error {
	p := fs.path(name)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotFound, "%s (looked in %s)", name, p)
		}
		return errors.Wrapf(err, "docstore: reading %s", p)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return errors.Wrapf(err, "docstore: decoding %s", p)
	}
	return nil
}

func (fs *FileStore) Write(name string, doc interface{}) error {
	p := fs.path(name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrapf(err, "docstore: creating dir for %s", p)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "docstore: encoding %s", name)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "docstore: writing %s", tmp)
	}
	if err := os.Rename(tmp, p); err != nil {
		return errors.Wrapf(err, "docstore: renaming %s", tmp)
	}
	return nil
}

func (fs *FileStore) Exists(name string) (bool, error) {
	_, err := os.Stat(fs.path(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "docstore: stat %s", name)
}
