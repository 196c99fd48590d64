package blobstore_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	. "github.com/audfs/creator-node/internal/blobstore"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/mocks"
)

func newTestFetcher(t *testing.T) (*Fetcher, *Storage, *mocks.MockHTTPClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	storage := newTestStorage(t)
	httpClient := mocks.NewMockHTTPClient(ctrl)
	return NewFetcher(storage, httpClient, 2), storage, httpClient
}

func blobBody(data []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(data))
}

func TestFetchOneStoresVerifiedBlob(t *testing.T) {
	fetcher, storage, httpClient := newTestFetcher(t)
	data := []byte("gateway served bytes")
	task := FetchTask{CID: CID(data)}

	httpClient.EXPECT().
		Download(gomock.Any(), "https://gateway.example.com/ipfs/"+task.CID, gomock.Nil()).
		Return(blobBody(data), nil)

	path, err := fetcher.FetchOne(context.Background(), task, []Source{
		{Endpoint: "https://gateway.example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, storage.PathFor(task.CID), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestFetchOneFallsBackAcrossSources(t *testing.T) {
	fetcher, storage, httpClient := newTestFetcher(t)
	data := []byte("replica held bytes")
	task := FetchTask{CID: CID(data)}

	peerHeader := http.Header{}
	peerHeader.Set("Authorization", "Bearer signed-token")

	// The peer is down; the lookup falls through to the gateway.
	httpClient.EXPECT().
		Download(gomock.Any(), "https://peer.example.com/file_lookup?multihash="+task.CID, peerHeader).
		Return(nil, errors.New("connection refused"))
	httpClient.EXPECT().
		Download(gomock.Any(), "https://gateway.example.com/ipfs/"+task.CID, gomock.Nil()).
		Return(blobBody(data), nil)

	path, err := fetcher.FetchOne(context.Background(), task, []Source{
		{Endpoint: "https://peer.example.com/", Peer: true, Header: peerHeader},
		{Endpoint: "https://gateway.example.com"},
	})
	require.NoError(t, err)
	require.True(t, storage.Has(path))
}

func TestFetchOneRejectsCorruptSource(t *testing.T) {
	fetcher, storage, httpClient := newTestFetcher(t)
	data := []byte("the real content")
	task := FetchTask{CID: CID(data)}

	httpClient.EXPECT().
		Download(gomock.Any(), "https://bad.example.com/ipfs/"+task.CID, gomock.Nil()).
		Return(blobBody([]byte("tampered content")), nil)
	httpClient.EXPECT().
		Download(gomock.Any(), "https://good.example.com/ipfs/"+task.CID, gomock.Nil()).
		Return(blobBody(data), nil)

	path, err := fetcher.FetchOne(context.Background(), task, []Source{
		{Endpoint: "https://bad.example.com"},
		{Endpoint: "https://good.example.com"},
	})
	require.NoError(t, err)

	ok, err := storage.Verify(task.CID, path)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFetchOneSkipsBlobAlreadyOnDisk(t *testing.T) {
	fetcher, storage, _ := newTestFetcher(t)
	data := []byte("already local")

	cid, path, err := storage.Store(data)
	require.NoError(t, err)

	// No Download expectation: the fetcher must not touch the network.
	got, err := fetcher.FetchOne(context.Background(), FetchTask{CID: cid}, []Source{
		{Endpoint: "https://gateway.example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, path, got)
}

func TestFetchOneDirectoryEntry(t *testing.T) {
	fetcher, storage, httpClient := newTestFetcher(t)
	data := []byte("original upload bytes")
	cid := CID(data)
	dirCID := DirCID([]DirEntry{{Name: "original.jpg", CID: cid}})
	task := FetchTask{CID: cid, DirCID: dirCID, FileName: "original.jpg"}

	httpClient.EXPECT().
		Download(gomock.Any(), "https://gateway.example.com/ipfs/"+dirCID+"/original.jpg", gomock.Nil()).
		Return(blobBody(data), nil)

	path, err := fetcher.FetchOne(context.Background(), task, []Source{
		{Endpoint: "https://gateway.example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, storage.PathForEntry(dirCID, cid), path)
	require.True(t, storage.Has(path))
}

func TestFetchOneExhaustsSources(t *testing.T) {
	fetcher, storage, httpClient := newTestFetcher(t)
	task := FetchTask{CID: CID([]byte("unreachable blob"))}

	httpClient.EXPECT().
		Download(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("504 gateway timeout")).
		Times(2)

	_, err := fetcher.FetchOne(context.Background(), task, []Source{
		{Endpoint: "https://one.example.com"},
		{Endpoint: "https://two.example.com"},
	})
	require.ErrorIs(t, err, domain.ErrUpstream)
	require.False(t, storage.Has(storage.PathFor(task.CID)))
}

func TestFetchBatch(t *testing.T) {
	fetcher, storage, httpClient := newTestFetcher(t)
	first := []byte("first blob")
	second := []byte("second blob")
	tasks := []FetchTask{{CID: CID(first)}, {CID: CID(second)}}

	httpClient.EXPECT().
		Download(gomock.Any(), "https://gateway.example.com/ipfs/"+tasks[0].CID, gomock.Nil()).
		Return(blobBody(first), nil)
	httpClient.EXPECT().
		Download(gomock.Any(), "https://gateway.example.com/ipfs/"+tasks[1].CID, gomock.Nil()).
		Return(blobBody(second), nil)

	err := fetcher.FetchBatch(context.Background(), tasks, []Source{
		{Endpoint: "https://gateway.example.com"},
	})
	require.NoError(t, err)
	require.True(t, storage.Has(storage.PathFor(tasks[0].CID)))
	require.True(t, storage.Has(storage.PathFor(tasks[1].CID)))
}

func TestFetchBatchReportsFailures(t *testing.T) {
	fetcher, _, httpClient := newTestFetcher(t)
	served := []byte("served blob")
	tasks := []FetchTask{{CID: CID(served)}, {CID: CID([]byte("missing blob"))}}

	httpClient.EXPECT().
		Download(gomock.Any(), "https://gateway.example.com/ipfs/"+tasks[0].CID, gomock.Nil()).
		Return(blobBody(served), nil)
	httpClient.EXPECT().
		Download(gomock.Any(), "https://gateway.example.com/ipfs/"+tasks[1].CID, gomock.Nil()).
		Return(nil, errors.New("404 not found"))

	err := fetcher.FetchBatch(context.Background(), tasks, []Source{
		{Endpoint: "https://gateway.example.com"},
	})
	require.ErrorIs(t, err, domain.ErrUpstream)
	require.ErrorContains(t, err, "1 of 2")
}

func TestFetchBatchEmpty(t *testing.T) {
	fetcher, _, _ := newTestFetcher(t)
	require.NoError(t, fetcher.FetchBatch(context.Background(), nil, nil))
}
