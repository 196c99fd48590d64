package blobstore_test

import (
	"context"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	. "github.com/audfs/creator-node/internal/blobstore"
)

func staticSources(sources ...Source) func(context.Context) []Source {
	return func(context.Context) []Source { return sources }
}

func TestRehydratorFetchesMissingBlob(t *testing.T) {
	fetcher, storage, httpClient := newTestFetcher(t)
	data := []byte("evicted blob bytes")
	cid := CID(data)

	httpClient.EXPECT().
		Download(gomock.Any(), "https://gateway.example.com/ipfs/"+cid, gomock.Nil()).
		Return(blobBody(data), nil)

	rehydrator := NewRehydrator(storage, fetcher, staticSources(Source{Endpoint: "https://gateway.example.com"}), 1, 4)
	require.True(t, rehydrator.Enqueue(RehydrateTask{CID: cid, StoragePath: storage.PathFor(cid)}))
	rehydrator.Stop()

	require.True(t, storage.Has(storage.PathFor(cid)))
}

func TestRehydratorRepairsCorruptBlob(t *testing.T) {
	fetcher, storage, httpClient := newTestFetcher(t)
	data := []byte("blob that rotted on disk")
	cid, path, err := storage.Store(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("rotted bytes"), 0o644))

	httpClient.EXPECT().
		Download(gomock.Any(), "https://gateway.example.com/ipfs/"+cid, gomock.Nil()).
		Return(blobBody(data), nil)

	rehydrator := NewRehydrator(storage, fetcher, staticSources(Source{Endpoint: "https://gateway.example.com"}), 1, 4)
	require.True(t, rehydrator.Enqueue(RehydrateTask{CID: cid, StoragePath: path}))
	rehydrator.Stop()

	ok, err := storage.Verify(cid, path)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRehydratorLeavesHealthyBlobAlone(t *testing.T) {
	fetcher, storage, _ := newTestFetcher(t)
	data := []byte("healthy blob")
	cid, path, err := storage.Store(data)
	require.NoError(t, err)

	// No Download expectation: a verified local copy needs no network.
	rehydrator := NewRehydrator(storage, fetcher, staticSources(Source{Endpoint: "https://gateway.example.com"}), 1, 4)
	require.True(t, rehydrator.Enqueue(RehydrateTask{CID: cid, StoragePath: path}))
	rehydrator.Stop()

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestRehydratorWithoutSources(t *testing.T) {
	fetcher, storage, _ := newTestFetcher(t)
	cid := CID([]byte("nowhere to fetch from"))

	rehydrator := NewRehydrator(storage, fetcher, staticSources(), 1, 4)
	require.True(t, rehydrator.Enqueue(RehydrateTask{CID: cid, StoragePath: storage.PathFor(cid)}))
	rehydrator.Stop()

	require.False(t, storage.Has(storage.PathFor(cid)))
}

func TestRehydratorDeduplicatesAndBounds(t *testing.T) {
	fetcher, storage, httpClient := newTestFetcher(t)
	data := []byte("blob under repair")
	cid := CID(data)
	task := RehydrateTask{CID: cid, StoragePath: storage.PathFor(cid)}

	release := make(chan struct{})
	httpClient.EXPECT().
		Download(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, http.Header) (io.ReadCloser, error) {
			<-release
			return blobBody(data), nil
		})

	rehydrator := NewRehydrator(storage, fetcher, staticSources(Source{Endpoint: "https://gateway.example.com"}), 1, 1)
	require.True(t, rehydrator.Enqueue(task))

	// Same path again: already pending.
	require.False(t, rehydrator.Enqueue(task))

	// Different path: the queue cap holds admissions at one.
	otherCID := CID([]byte("second blob"))
	require.False(t, rehydrator.Enqueue(RehydrateTask{CID: otherCID, StoragePath: storage.PathFor(otherCID)}))

	close(release)
	rehydrator.Stop()

	require.True(t, storage.Has(task.StoragePath))
	require.False(t, storage.Has(storage.PathFor(otherCID)))
}
