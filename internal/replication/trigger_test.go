package replication_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audfs/creator-node/internal/adapter"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/mocks"
	"github.com/audfs/creator-node/internal/replication"
)

const (
	secondaryTwo   = "https://cn2.audfs.test"
	secondaryThree = "https://cn3.audfs.test"
)

func newTestTrigger(t *testing.T, debounce time.Duration) (*replication.Trigger, *mocks.MockHTTPClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockHTTP := mocks.NewMockHTTPClient(ctrl)
	trigger := replication.NewTrigger(replication.NewClient(mockHTTP), adapter.NewClock(), replication.TriggerConfig{
		SelfEndpoint: selfEndpoint,
		Debounce:     debounce,
		ReapInterval: 5 * time.Millisecond,
		Concurrency:  2,
	})
	t.Cleanup(trigger.Stop)
	return trigger, mockHTTP
}

// expectSyncPost decodes each sync notification hitting the endpoint into
// the bodies channel so the test goroutine can assert on it.
func expectSyncPost(mockHTTP *mocks.MockHTTPClient, endpoint string, bodies chan<- replication.SyncBody) *gomock.Call {
	return mockHTTP.EXPECT().
		Post(gomock.Any(), endpoint+"/sync", "application/json", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ string, body io.Reader) ([]byte, error) {
			var syncBody replication.SyncBody
			if err := json.NewDecoder(body).Decode(&syncBody); err != nil {
				return nil, err
			}
			bodies <- syncBody
			return []byte(`{}`), nil
		})
}

func waitForBody(t *testing.T, bodies <-chan replication.SyncBody) replication.SyncBody {
	t.Helper()
	select {
	case body := <-bodies:
		return body
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for sync notification")
		return replication.SyncBody{}
	}
}

func TestTriggerNotifiesSecondariesAfterDebounce(t *testing.T) {
	trigger, mockHTTP := newTestTrigger(t, 20*time.Millisecond)

	bodies := make(chan replication.SyncBody, 2)
	expectSyncPost(mockHTTP, secondaryTwo, bodies)
	expectSyncPost(mockHTTP, secondaryThree, bodies)

	// Wallet casing must not leak onto the wire.
	trigger.Schedule("0x"+strings.ToUpper(testWallet[2:]), []string{secondaryTwo, secondaryThree}, domain.SyncTypeRecurring)

	expected := replication.SyncBody{
		Wallets:             []string{testWallet},
		CreatorNodeEndpoint: selfEndpoint,
		SyncType:            string(domain.SyncTypeRecurring),
	}
	assert.Equal(t, expected, waitForBody(t, bodies))
	assert.Equal(t, expected, waitForBody(t, bodies))
	assert.False(t, trigger.Pending(testWallet))
}

func TestTriggerCollapsesBurst(t *testing.T) {
	trigger, mockHTTP := newTestTrigger(t, 50*time.Millisecond)

	bodies := make(chan replication.SyncBody, 1)
	expectSyncPost(mockHTTP, secondaryTwo, bodies)

	// Three writes inside the debounce window produce one notification.
	trigger.Schedule(testWallet, []string{secondaryTwo}, domain.SyncTypeRecurring)
	trigger.Schedule(testWallet, []string{secondaryTwo}, domain.SyncTypeRecurring)
	trigger.Schedule(testWallet, []string{secondaryTwo}, domain.SyncTypeRecurring)

	waitForBody(t, bodies)
	time.Sleep(60 * time.Millisecond)
	assert.False(t, trigger.Pending(testWallet))
}

func TestTriggerRescheduleReplacesPayload(t *testing.T) {
	trigger, mockHTTP := newTestTrigger(t, 40*time.Millisecond)

	bodies := make(chan replication.SyncBody, 1)
	expectSyncPost(mockHTTP, secondaryThree, bodies)

	// The second schedule overwrites the first before it comes due, so
	// only the replacement secondary is notified.
	trigger.Schedule(testWallet, []string{secondaryTwo}, domain.SyncTypeRecurring)
	trigger.Schedule(testWallet, []string{secondaryThree}, domain.SyncTypeManual)

	body := waitForBody(t, bodies)
	assert.Equal(t, string(domain.SyncTypeManual), body.SyncType)
}

func TestTriggerCancel(t *testing.T) {
	trigger, _ := newTestTrigger(t, 30*time.Millisecond)

	trigger.Schedule(testWallet, []string{secondaryTwo}, domain.SyncTypeRecurring)
	assert.True(t, trigger.Cancel(testWallet))
	assert.False(t, trigger.Pending(testWallet))

	// No Post expectation: a cancelled trigger must never dispatch.
	time.Sleep(100 * time.Millisecond)
	assert.False(t, trigger.Cancel(testWallet))
}

func TestTriggerPending(t *testing.T) {
	trigger, _ := newTestTrigger(t, 10*time.Second)

	assert.False(t, trigger.Pending(testWallet))
	trigger.Schedule(testWallet, []string{secondaryTwo}, domain.SyncTypeRecurring)
	assert.True(t, trigger.Pending(testWallet))
	assert.True(t, trigger.Pending("0x"+strings.ToUpper(testWallet[2:])))
}

func TestTriggerScheduleRequiresSecondaries(t *testing.T) {
	trigger, _ := newTestTrigger(t, 10*time.Second)

	trigger.Schedule(testWallet, nil, domain.SyncTypeRecurring)
	assert.False(t, trigger.Pending(testWallet))
}

func TestTriggerScheduleAfterStop(t *testing.T) {
	trigger, _ := newTestTrigger(t, 10*time.Second)

	trigger.Stop()
	trigger.Schedule(testWallet, []string{secondaryTwo}, domain.SyncTypeRecurring)
	assert.False(t, trigger.Pending(testWallet))
}

func TestTriggerImmediateNotifiesAllSecondaries(t *testing.T) {
	trigger, mockHTTP := newTestTrigger(t, 10*time.Second)

	bodies := make(chan replication.SyncBody, 2)
	expectSyncPost(mockHTTP, secondaryTwo, bodies)
	expectSyncPost(mockHTTP, secondaryThree, bodies)

	err := trigger.SyncImmediate(context.Background(), testWallet, []string{secondaryTwo, secondaryThree}, domain.SyncTypeManual)
	require.NoError(t, err)

	expected := replication.SyncBody{
		Wallets:             []string{testWallet},
		CreatorNodeEndpoint: selfEndpoint,
		Immediate:           true,
		SyncType:            string(domain.SyncTypeManual),
	}
	assert.Equal(t, expected, waitForBody(t, bodies))
	assert.Equal(t, expected, waitForBody(t, bodies))
}

func TestTriggerImmediateSurfacesFailure(t *testing.T) {
	trigger, mockHTTP := newTestTrigger(t, 10*time.Second)

	bodies := make(chan replication.SyncBody, 1)
	expectSyncPost(mockHTTP, secondaryTwo, bodies)
	mockHTTP.EXPECT().
		Post(gomock.Any(), secondaryThree+"/sync", "application/json", gomock.Any()).
		Return(nil, errors.New("503 service unavailable"))

	err := trigger.SyncImmediate(context.Background(), testWallet, []string{secondaryTwo, secondaryThree}, domain.SyncTypeManual)
	require.Error(t, err)
	assert.ErrorContains(t, err, secondaryThree)
}
