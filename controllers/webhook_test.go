package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lablinkriparo/riparo-be/services"
)

// mapDedup replaces the redis store in tests
type mapDedup struct {
	seen map[string]bool
}

func (m *mapDedup) Seen(ctx context.Context, eventID string) bool { return m.seen[eventID] }

func (m *mapDedup) MarkProcessed(ctx context.Context, eventID string) { m.seen[eventID] = true }

func newWebhookTestController(t *testing.T) (*WebhookController, sqlmock.Sqlmock, *mapDedup) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	credits := services.NewCreditService(db)
	dedup := &mapDedup{seen: map[string]bool{}}
	wc := &WebhookController{
		topupService:   services.NewTopupService(db, nil, credits),
		loyaltyService: services.NewLoyaltyService(db, nil, credits, services.NewLogNotifier()),
		dedup:          dedup,
	}
	return wc, mock, dedup
}

func postWebhook(wc *WebhookController, payload string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(payload))
	wc.HandleStripe(c)
	return w
}

const topupEventPayload = `{"id":"evt_retry_1","type":"checkout.session.completed","data":{"object":{"id":"cs_retry_1","payment_status":"paid","metadata":{"topup_request_id":"7"}}}}`

// A delivery that fails mid-processing must not claim the event id:
// the 5xx makes Stripe redeliver, and the redelivery has to be processed
// rather than acknowledged as a duplicate.
func TestWebhookFailedDeliveryIsRetriable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	wc, mock, dedup := newWebhookTestController(t)

	// First delivery: the topup request lookup fails, handler answers 5xx.
	mock.ExpectQuery(`SELECT \* FROM "topup_requests"`).WillReturnError(errors.New("connection reset"))

	w := postWebhook(wc, topupEventPayload)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, dedup.seen["evt_retry_1"], "a failed delivery must not be recorded as processed")

	// Redelivery: processing succeeds and only then is the event recorded.
	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "topup_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "amount", "status", "created_at", "updated_at"}).
			AddRow(7, "centro", 3, "100.00", "approved", now, now))

	w = postWebhook(wc, topupEventPayload)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, dedup.seen["evt_retry_1"])

	// Third delivery is acknowledged from the dedup store alone; no
	// further statements may reach the database.
	w = postWebhook(wc, topupEventPayload)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
