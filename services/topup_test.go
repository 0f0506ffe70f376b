package services

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lablinkriparo/riparo-be/models"
)

func TestCreateCheckoutRejectsBelowMinimum(t *testing.T) {
	gateway := &mockGateway{}
	s := NewTopupService(nil, gateway, NewCreditService(nil))

	_, err := s.CreateCheckout(models.EntityCentro, 1, decimal.NewFromFloat(49.99), "", "https://example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Minimum topup amount is €50")
	assert.Zero(t, gateway.createCalls, "no checkout session may be opened for a rejected topup")
}

func TestCreateCheckoutRejectsUnknownEntityType(t *testing.T) {
	gateway := &mockGateway{}
	s := NewTopupService(nil, gateway, NewCreditService(nil))

	_, err := s.CreateCheckout("tecnico", 1, decimal.NewFromInt(50), "", "https://example.com")

	require.Error(t, err)
	assert.Zero(t, gateway.createCalls)
}

func TestCreateCheckoutRejectsMissingEntityID(t *testing.T) {
	gateway := &mockGateway{}
	s := NewTopupService(nil, gateway, NewCreditService(nil))

	_, err := s.CreateCheckout(models.EntityCorner, 0, decimal.NewFromInt(50), "", "https://example.com")

	require.Error(t, err)
	assert.Zero(t, gateway.createCalls)
}

func TestConfirmPaymentRequiresSessionID(t *testing.T) {
	s := NewTopupService(nil, &mockGateway{}, NewCreditService(nil))

	_, err := s.ConfirmPayment("")
	require.Error(t, err)
}

func TestConfirmPaymentNotPaidIsNoOp(t *testing.T) {
	gateway := &mockGateway{session: &CheckoutSession{
		ID:            "cs_unpaid",
		PaymentStatus: "unpaid",
		Metadata:      map[string]string{"topup_request_id": "7"},
	}}
	s := NewTopupService(nil, gateway, NewCreditService(nil))

	result, err := s.ConfirmPayment("cs_unpaid")

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Payment not completed", result.Message)
}

func TestConfirmPaymentAlreadyApprovedShortCircuits(t *testing.T) {
	db, mock := newMockDB(t)

	gateway := &mockGateway{session: &CheckoutSession{
		ID:            "cs_paid",
		PaymentStatus: PaymentStatusPaid,
		Metadata:      map[string]string{"topup_request_id": "7"},
	}}
	s := NewTopupService(db, gateway, NewCreditService(db))

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "topup_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "amount", "status", "payment_reference", "created_at", "updated_at"}).
			AddRow(7, "centro", 3, "100.00", "approved", "cs_paid", now, now))

	result, err := s.ConfirmPayment("cs_paid")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Already processed", result.Message)
	assert.Nil(t, result.NewBalance, "no balance delta may be applied twice")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func confirmDuplicateScript(mock sqlmock.Sqlmock) {
	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "topup_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "amount", "status", "payment_reference", "created_at", "updated_at"}).
			AddRow(7, "centro", 3, "100.00", "pending", "cs_paid", now, now))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "centri_assistenza"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_name", "credit_balance", "credit_warning_threshold", "payment_status"}).
			AddRow(3, "Centro Demo", "20.00", "50.00", "warning"))
	mock.ExpectQuery(`INSERT INTO "credit_transactions"`).WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()
}

// A concurrent confirmation already wrote the credit transaction; this
// path still has to flip the request to approved, and a failure doing so
// must surface instead of reporting success over a still-pending request.
func TestConfirmDuplicateReferenceSurfacesMarkApprovedFailure(t *testing.T) {
	db, mock := newMockDB(t)
	gateway := &mockGateway{session: &CheckoutSession{
		ID:            "cs_paid",
		PaymentStatus: PaymentStatusPaid,
		Metadata:      map[string]string{"topup_request_id": "7"},
	}}
	s := NewTopupService(db, gateway, NewCreditService(db))

	confirmDuplicateScript(mock)
	mock.ExpectExec(`UPDATE "topup_requests" SET`).WillReturnError(errors.New("connection reset"))

	_, err := s.ConfirmPayment("cs_paid")

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmDuplicateReferenceMarksApproved(t *testing.T) {
	db, mock := newMockDB(t)
	gateway := &mockGateway{session: &CheckoutSession{
		ID:            "cs_paid",
		PaymentStatus: PaymentStatusPaid,
		Metadata:      map[string]string{"topup_request_id": "7"},
	}}
	s := NewTopupService(db, gateway, NewCreditService(db))

	confirmDuplicateScript(mock)
	mock.ExpectExec(`UPDATE "topup_requests" SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := s.ConfirmPayment("cs_paid")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Already processed", result.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateManualRequestEnforcesMinimum(t *testing.T) {
	s := NewTopupService(nil, &mockGateway{}, NewCreditService(nil))

	_, err := s.CreateManualRequest(models.EntityCentro, 1, decimal.NewFromInt(20), "bonifico")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Minimum topup amount is €50")
}
