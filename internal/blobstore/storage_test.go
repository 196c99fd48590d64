package blobstore_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/audfs/creator-node/internal/adapter"
	. "github.com/audfs/creator-node/internal/blobstore"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(adapter.NewFileSystem(), t.TempDir())
	require.NoError(t, err)
	return storage
}

// requireNoTempFiles asserts that no spool files leaked into the root.
func requireNoTempFiles(t *testing.T, storage *Storage) {
	t.Helper()
	leftovers, err := filepath.Glob(filepath.Join(storage.Root(), "blob-*"))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

func TestStorageRoundTrip(t *testing.T) {
	storage := newTestStorage(t)
	data := []byte("segment00000.ts payload")

	cid, path, err := storage.Store(data)
	require.NoError(t, err)
	require.Equal(t, CID(data), cid)
	require.Equal(t, storage.PathFor(cid), path)
	require.True(t, storage.Has(path))

	f, info, err := storage.Open(path)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, int64(len(data)), info.Size())

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, data, got)
	requireNoTempFiles(t, storage)
}

func TestStoreIsIdempotent(t *testing.T) {
	storage := newTestStorage(t)
	data := []byte("metadata document")

	cid1, path1, err := storage.Store(data)
	require.NoError(t, err)
	cid2, path2, err := storage.Store(data)
	require.NoError(t, err)
	require.Equal(t, cid1, cid2)
	require.Equal(t, path1, path2)

	other, otherPath, err := storage.Store([]byte("different document"))
	require.NoError(t, err)
	require.NotEqual(t, cid1, other)
	require.NotEqual(t, path1, otherPath)
	requireNoTempFiles(t, storage)
}

func TestStoreEntry(t *testing.T) {
	storage := newTestStorage(t)
	data := []byte("150x150 thumbnail bytes")
	dirCID := DirCID([]DirEntry{{Name: "150x150.jpg", CID: CID(data)}})

	cid, path, err := storage.StoreEntry(dirCID, data)
	require.NoError(t, err)
	require.Equal(t, CID(data), cid)
	require.Equal(t, storage.PathForEntry(dirCID, cid), path)
	require.True(t, storage.Has(path))

	// The anchoring directory is a real directory, not a blob.
	info, err := os.Stat(storage.PathFor(dirCID))
	require.NoError(t, err)
	require.True(t, info.IsDir())
	require.False(t, storage.Has(storage.PathFor(dirCID)))
}

func TestStoreStream(t *testing.T) {
	storage := newTestStorage(t)
	data := []byte("streamed audio bytes")

	cid, path, err := storage.StoreStream(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, CID(data), cid)
	require.True(t, storage.Has(path))

	// Re-streaming the same content lands on the same path and leaves no
	// spool files behind.
	cid2, path2, err := storage.StoreStream(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, cid, cid2)
	require.Equal(t, path, path2)
	requireNoTempFiles(t, storage)
}

func TestStoreStreamAsVerifiesContent(t *testing.T) {
	storage := newTestStorage(t)
	data := []byte("bytes a peer claims to serve")
	cid := CID(data)

	path, err := storage.StoreStreamAs(cid, bytes.NewReader(data))
	require.NoError(t, err)
	require.True(t, storage.Has(path))

	ok, err := storage.Verify(cid, path)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStoreStreamAsRejectsMismatch(t *testing.T) {
	storage := newTestStorage(t)
	claimed := CID([]byte("the content we asked for"))

	_, err := storage.StoreStreamAs(claimed, bytes.NewReader([]byte("tampered bytes")))
	require.ErrorIs(t, err, domain.ErrUpstream)

	// Nothing becomes visible under the claimed address.
	require.False(t, storage.Has(storage.PathFor(claimed)))
	requireNoTempFiles(t, storage)
}

func TestStoreStreamEntryAs(t *testing.T) {
	storage := newTestStorage(t)
	data := []byte("480x480 thumbnail bytes")
	cid := CID(data)
	dirCID := DirCID([]DirEntry{{Name: "480x480.jpg", CID: cid}})

	path, err := storage.StoreStreamEntryAs(dirCID, cid, bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, storage.PathForEntry(dirCID, cid), path)
	require.True(t, storage.Has(path))

	_, err = storage.StoreStreamEntryAs(dirCID, cid, bytes.NewReader([]byte("wrong bytes")))
	require.NoError(t, err, "existing verified copy short-circuits the write")
}

func TestOpenMissingBlob(t *testing.T) {
	storage := newTestStorage(t)

	_, _, err := storage.Open(storage.PathFor(CID([]byte("never stored"))))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOpenRejectsDirectory(t *testing.T) {
	storage := newTestStorage(t)
	dirCID := DirCID([]DirEntry{{Name: "original.jpg", CID: CID([]byte("img"))}})
	path, err := storage.EnsureDir(dirCID)
	require.NoError(t, err)

	_, _, err = storage.Open(path)
	require.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestVerifyDetectsCorruption(t *testing.T) {
	storage := newTestStorage(t)
	data := []byte("original blob bytes")

	cid, path, err := storage.Store(data)
	require.NoError(t, err)

	ok, err := storage.Verify(cid, path)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("bit-rotted bytes"), 0o644))
	ok, err = storage.Verify(cid, path)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, storage.Discard(path))
	require.False(t, storage.Has(path))

	_, err = storage.Verify(cid, path)
	require.Error(t, err)
}
