package docstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Envelope
	Values []string `json:"values"`
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	in := testDoc{Envelope: NewEnvelope(map[string]int{"values": 2}), Values: []string{"a", "b"}}
	require.NoError(t, store.Write("truth_addresses", in))

	var out testDoc
	require.NoError(t, store.Read("truth_addresses", &out))
	assert.Equal(t, in.Values, out.Values)
	assert.True(t, out.OK)

	ok, err := store.Exists("truth_addresses")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileStoreNotFound(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var out testDoc
	err = store.Read("missing_doc", &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	// The error names the attempted path for the MissingInput report.
	assert.Contains(t, err.Error(), "missing_doc")

	ok, err := store.Exists("missing_doc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Write("doc", testDoc{Values: []string{"v1"}}))
	require.NoError(t, store.Write("doc", testDoc{Values: []string{"v2"}}))

	var out testDoc
	require.NoError(t, store.Read("doc", &out))
	assert.Equal(t, []string{"v2"}, out.Values)

	// No temp files left behind after a successful replace.
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileStoreSubdirectoryNames(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Write("seeds/operator-import", testDoc{Values: []string{"x"}}))
	_, err = os.Stat(filepath.Join(dir, "seeds", "operator-import.json"))
	require.NoError(t, err)

	var out testDoc
	require.NoError(t, store.Read("seeds/operator-import", &out))
	assert.Equal(t, []string{"x"}, out.Values)
}
