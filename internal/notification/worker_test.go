package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func response(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(""))}
}

const (
	acQuery  = `SELECT "id","serial_number","subdivision_id" FROM "air_conditioners" WHERE "air_conditioners"."id" = \$1 ORDER BY "air_conditioners"."id" LIMIT \$[0-9]+`
	subQuery = `SELECT .* FROM "push_subscriptions".*JOIN .*subscription_subdivision_mapping.*WHERE .*ssm\.subdivision_id = \$1`
)

func expectAC(mock sqlmock.Sqlmock, acID uint, serial string, subdivisionID any) {
	mock.ExpectQuery(acQuery).
		WithArgs(acID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "serial_number", "subdivision_id"}).AddRow(acID, serial, subdivisionID))
}

func expectSubscription(mock sqlmock.Sqlmock, subdivisionID uint, endpoint string) {
	mock.ExpectQuery(subQuery).
		WithArgs(subdivisionID).
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "user_id", "created_at"}).
			AddRow(endpoint, "test_p256dh", "test_auth", nil, time.Now()))
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{}, zap.NewNop())

	assert.True(t, wp.Dispatch(123))
	assert.False(t, wp.Dispatch(124), "a full queue must not block the caller")

	select {
	case job := <-wp.jobs:
		assert.Equal(t, uint(123), job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_SendsBreakdownAlert(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{}, zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(1)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			defer wg.Done()
			assert.Equal(t, "https://example.com/push", sub.Endpoint)
			assert.Equal(t, "test_p256dh", sub.Keys.P256dh)

			var msg Message
			assert.NoError(t, json.Unmarshal(payload, &msg))
			assert.Equal(t, "Air conditioner SN-101 reported a breakdown", msg.Body)
			assert.Equal(t, uint(101), msg.ACID)
			return response(http.StatusCreated), nil
		},
	}

	expectAC(mock, 101, "SN-101", 7)
	expectSubscription(mock, 7, "https://example.com/push")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	require.True(t, wp.Dispatch(101))
	wg.Wait()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{}, zap.NewNop())
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return response(http.StatusGone), nil
		},
	}

	endpoint := "https://example.com/expired"
	expectAC(mock, 102, "SN-102", 7)
	expectSubscription(mock, 7, endpoint)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM subscription_subdivision_mapping WHERE push_subscription_endpoint = \$1`).
		WithArgs(endpoint).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
		WithArgs(endpoint).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	require.True(t, wp.Dispatch(102))
	assert.Eventually(t, func() bool { return mock.ExpectationsWereMet() == nil }, time.Second, 10*time.Millisecond)
}

func TestWorkerPool_SkipsUnplacedAsset(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{}, zap.NewNop())
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			t.Error("no subscriber should be notified")
			return response(http.StatusCreated), nil
		},
	}

	expectAC(mock, 103, "SN-103", nil)

	wp.notifyBreakdown(context.Background(), 103)
	assert.NoError(t, mock.ExpectationsWereMet())
}
