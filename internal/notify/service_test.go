package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtbook/internal/logger"
	"courtbook/internal/slot"
)

func TestMain(m *testing.M) {
	logger.InitWithWriters(io.Discard, io.Discard)
	os.Exit(m.Run())
}

const residentX = "0xaaa0000000000000000000000000000000000001"

func testNotice() Notice {
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	return Notice{
		Type:      TypeBookingConfirmed,
		Requester: residentX,
		Facility:  "tennis",
		Interval:  slot.Interval{Start: start, End: start.Add(30 * time.Minute)},
		Amount:    1000,
		Created:   time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func marshal(t *testing.T, n Notice) []byte {
	t.Helper()
	data, err := json.Marshal(n)
	require.NoError(t, err)
	return data
}

func TestQueue(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewWithClient(client)

	n := testNotice()
	mock.ExpectLPush(queueKey, marshal(t, n)).SetVal(1)

	require.NoError(t, svc.Queue(context.Background(), n))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRedisDown(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewWithClient(client)

	n := testNotice()
	mock.ExpectLPush(queueKey, marshal(t, n)).SetErr(errors.New("connection refused"))

	assert.Error(t, svc.Queue(context.Background(), n))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextDelivers(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewWithClient(client)

	n := testNotice()
	mock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, string(marshal(t, n))})

	delivered := n
	delivered.Tries = 1
	mock.ExpectPublish(channelKey, marshal(t, delivered)).SetVal(1)

	svc.processNext(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextRequeuesOnDeliveryFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewWithClient(client)

	n := testNotice()
	mock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, string(marshal(t, n))})

	attempted := n
	attempted.Tries = 1
	mock.ExpectPublish(channelKey, marshal(t, attempted)).SetErr(errors.New("publish failed"))
	mock.ExpectLPush(queueKey, marshal(t, attempted)).SetVal(1)

	svc.processNext(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextParksExhaustedNotice(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewWithClient(client)

	n := testNotice()
	n.Tries = maxTries - 1
	mock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, string(marshal(t, n))})

	attempted := n
	attempted.Tries = maxTries
	mock.ExpectPublish(channelKey, marshal(t, attempted)).SetErr(errors.New("publish failed"))

	// The failed record carries a timestamp, so match it loosely.
	mock.CustomMatch(func(expected, actual []interface{}) error {
		return nil
	}).ExpectLPush(failedKey, "ignored").SetVal(1)

	svc.processNext(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueLength(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewWithClient(client)

	mock.ExpectLLen(queueKey).SetVal(4)

	assert.Equal(t, int64(4), svc.QueueLength(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
