package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionSplit(t *testing.T) {
	platform, centro := CommissionSplit(decimal.NewFromInt(30))

	assert.True(t, platform.Equal(decimal.RequireFromString("1.50")), "platform commission: got %s", platform)
	assert.True(t, centro.Equal(decimal.RequireFromString("28.50")), "centro revenue: got %s", centro)
	assert.True(t, platform.Add(centro).Equal(decimal.NewFromInt(30)), "split must cover the full price")
}

func TestCommissionSplitRoundsToCents(t *testing.T) {
	platform, centro := CommissionSplit(decimal.RequireFromString("29.99"))

	// 5% of 29.99 is 1.4995, rounded to 1.50
	assert.True(t, platform.Equal(decimal.RequireFromString("1.50")))
	assert.True(t, platform.Add(centro).Equal(decimal.RequireFromString("29.99")))
}

func TestCreateCheckoutRequiresIDs(t *testing.T) {
	gateway := &mockGateway{}
	s := NewLoyaltyService(nil, gateway, NewCreditService(nil), &mockNotifier{})

	_, err := s.CreateCheckout(0, 1, "", "https://example.com")
	require.Error(t, err)

	_, err = s.CreateCheckout(1, 0, "", "https://example.com")
	require.Error(t, err)

	assert.Zero(t, gateway.createCalls)
}

func TestCreateCheckoutRejectsSecondActiveCard(t *testing.T) {
	db, mock := newMockDB(t)
	gateway := &mockGateway{}
	s := NewLoyaltyService(db, gateway, NewCreditService(db), &mockNotifier{})

	mock.ExpectQuery(`SELECT count\(\*\) FROM "loyalty_cards"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := s.CreateCheckout(4, 2, "cliente@example.com", "https://example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has an active loyalty card")
	assert.Zero(t, gateway.createCalls, "no checkout session may be opened when a card is already active")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCornerCheckoutRequiresToken(t *testing.T) {
	gateway := &mockGateway{}
	s := NewLoyaltyService(nil, gateway, NewCreditService(nil), &mockNotifier{})

	_, err := s.CreateCornerCheckout("", 1, "https://example.com")
	require.Error(t, err)
	assert.Zero(t, gateway.createCalls)
}

func TestLoyaltyConfirmNotPaidIsNoOp(t *testing.T) {
	gateway := &mockGateway{session: &CheckoutSession{
		ID:            "cs_unpaid",
		PaymentStatus: "unpaid",
		Metadata:      map[string]string{"type": "loyalty_card", "loyalty_card_id": "4"},
	}}
	s := NewLoyaltyService(nil, gateway, NewCreditService(nil), &mockNotifier{})

	result, err := s.ConfirmPayment("cs_unpaid")

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Payment not completed", result.Message)
}

func TestApplyConfirmedSessionRejectsForeignSessions(t *testing.T) {
	s := NewLoyaltyService(nil, &mockGateway{}, NewCreditService(nil), &mockNotifier{})

	_, err := s.ApplyConfirmedSession(&CheckoutSession{
		ID:            "cs_other",
		PaymentStatus: PaymentStatusPaid,
		Metadata:      map[string]string{"topup_request_id": "9"},
	})
	require.Error(t, err)
}

// A transient failure while charging the commission must roll the
// activation back too, so the webhook retry replays the whole step and the
// €1.50 is deducted exactly once.
func TestActivateCardRollsBackWhenChargeFails(t *testing.T) {
	db, mock := newMockDB(t)
	notifier := &mockNotifier{}
	s := NewLoyaltyService(db, &mockGateway{}, NewCreditService(db), notifier)

	now := time.Now()
	pendingCard := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "customer_id", "centro_id", "status", "platform_commission", "created_at", "updated_at"}).
			AddRow(4, 9, 2, "pending_payment", "1.50", now, now)
	}

	// First attempt: the card update succeeds but the centro row read
	// inside the charge fails. Everything must roll back.
	mock.ExpectQuery(`SELECT \* FROM "loyalty_cards"`).WillReturnRows(pendingCard())
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "loyalty_cards" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "credit_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "centri_assistenza"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	require.Error(t, s.ActivateCard(4, "pi_1"))

	// Retry: the rollback left the card pending_payment, so the whole
	// activation replays and the commission row is written this time.
	mock.ExpectQuery(`SELECT \* FROM "loyalty_cards"`).WillReturnRows(pendingCard())
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "loyalty_cards" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "credit_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "centri_assistenza"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_name", "credit_balance", "credit_warning_threshold", "payment_status"}).
			AddRow(2, "Centro Demo", "200.00", "50.00", "good_standing"))
	mock.ExpectQuery(`INSERT INTO "credit_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "centri_assistenza" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "customers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "centro_id", "name", "email"}).
			AddRow(9, 2, "Mario Rossi", "mario@example.com"))
	mock.ExpectQuery(`SELECT \* FROM "centri_assistenza"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_name"}).AddRow(2, "Centro Demo"))

	require.NoError(t, s.ActivateCard(4, "pi_1"))
	assert.Equal(t, 1, notifier.activations)
	assert.NoError(t, mock.ExpectationsWereMet(), "the commission must be written exactly once across both attempts")
}

func TestNewCardNumberFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		number := newCardNumber()
		assert.True(t, strings.HasPrefix(number, "LLR-"))
		assert.Len(t, number, 12)
		assert.Equal(t, strings.ToUpper(number), number)
		assert.False(t, seen[number], "card numbers must not repeat")
		seen[number] = true
	}
}
