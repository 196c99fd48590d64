package replication_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audfs/creator-node/internal/mocks"
	"github.com/audfs/creator-node/internal/replication"
)

func newTestClient(t *testing.T) (*replication.Client, *mocks.MockHTTPClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockHTTP := mocks.NewMockHTTPClient(ctrl)
	return replication.NewClient(mockHTTP), mockHTTP
}

func TestClientExportComposesURL(t *testing.T) {
	client, mockHTTP := newTestClient(t)

	mockHTTP.EXPECT().
		Get(gomock.Any(),
			"https://source.audfs.test/export?clock_range_min=7&wallet_public_key="+testWallet+"&wallet_public_key="+testOtherWallet,
			gomock.Any()).
		Return(nil)

	response, err := client.Export(context.Background(), sourceEndpoint+"/", []string{testWallet, testOtherWallet}, 7)
	require.NoError(t, err)
	assert.NotNil(t, response)
}

func TestClientExportWrapsError(t *testing.T) {
	client, mockHTTP := newTestClient(t)

	mockHTTP.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("connection refused"))

	_, err := client.Export(context.Background(), sourceEndpoint, []string{testWallet}, 1)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to fetch export from "+sourceEndpoint)
}

func TestClientRequestSyncPostsBody(t *testing.T) {
	client, mockHTTP := newTestClient(t)

	var raw map[string]interface{}
	mockHTTP.EXPECT().
		Post(gomock.Any(), secondaryTwo+"/sync", "application/json", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ string, body io.Reader) ([]byte, error) {
			require.NoError(t, json.NewDecoder(body).Decode(&raw))
			return []byte(`{}`), nil
		})

	err := client.RequestSync(context.Background(), secondaryTwo+"/", replication.SyncBody{
		Wallets:             []string{testWallet},
		CreatorNodeEndpoint: selfEndpoint,
		Immediate:           true,
		SyncType:            "manual",
	})
	require.NoError(t, err)

	// The body keys are the wire contract other nodes parse.
	assert.Equal(t, []interface{}{testWallet}, raw["wallet"])
	assert.Equal(t, selfEndpoint, raw["creator_node_endpoint"])
	assert.Equal(t, true, raw["immediate"])
	assert.Equal(t, "manual", raw["sync_type"])
}

func TestClientRequestSyncWrapsError(t *testing.T) {
	client, mockHTTP := newTestClient(t)

	mockHTTP.EXPECT().
		Post(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("503 service unavailable"))

	err := client.RequestSync(context.Background(), secondaryTwo, replication.SyncBody{Wallets: []string{testWallet}})
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to request sync on "+secondaryTwo)
}
