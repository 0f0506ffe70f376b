package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/lablinkriparo/riparo-be/models"
)

func TestStatusAfterTopup(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		want    models.PaymentStatus
	}{
		{"well funded", "250.00", models.PaymentStatusGoodStanding},
		{"exactly at cutoff", "100.00", models.PaymentStatusGoodStanding},
		{"just below cutoff", "99.99", models.PaymentStatusWarning},
		{"zero balance", "0.00", models.PaymentStatusWarning},
		{"negative balance", "-0.01", models.PaymentStatusSuspended},
		{"deeply negative", "-120.00", models.PaymentStatusSuspended},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balance, err := decimal.NewFromString(tt.balance)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, StatusAfterTopup(balance))
		})
	}
}

func TestStatusAfterCharge(t *testing.T) {
	tests := []struct {
		name      string
		balance   string
		threshold string
		want      models.PaymentStatus
	}{
		{"healthy balance", "80.00", "50", models.PaymentStatusGoodStanding},
		{"exactly at threshold", "50.00", "50", models.PaymentStatusGoodStanding},
		{"below threshold", "49.99", "50", models.PaymentStatusWarning},
		{"zero suspends", "0.00", "50", models.PaymentStatusSuspended},
		{"negative suspends", "-1.50", "50", models.PaymentStatusSuspended},
		{"custom threshold", "70.00", "75", models.PaymentStatusWarning},
		{"unset threshold falls back to 50", "49.00", "0", models.PaymentStatusWarning},
		{"unset threshold healthy", "51.00", "0", models.PaymentStatusGoodStanding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balance, _ := decimal.NewFromString(tt.balance)
			threshold, _ := decimal.NewFromString(tt.threshold)
			assert.Equal(t, tt.want, StatusAfterCharge(balance, threshold))
		})
	}
}

// A €100 topup on a €-20 balance lands at €80: funded again, but still
// below the €100 good-standing cutoff of the topup path.
func TestTopupOnNegativeBalanceEndsInWarning(t *testing.T) {
	balance := decimal.NewFromInt(-20)
	newBalance := balance.Add(decimal.NewFromInt(100))

	assert.True(t, newBalance.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, models.PaymentStatusWarning, StatusAfterTopup(newBalance))
}

func TestApplyTopupRejectsNonPositiveAmounts(t *testing.T) {
	s := NewCreditService(nil)

	_, err := s.ApplyTopup(models.EntityCentro, 1, decimal.Zero, "ref", "desc")
	assert.Error(t, err)

	_, err = s.ApplyTopup(models.EntityCentro, 1, decimal.NewFromInt(-10), "ref", "desc")
	assert.Error(t, err)
}

func TestChargeCommissionRejectsNonPositiveAmounts(t *testing.T) {
	s := NewCreditService(nil)

	_, err := s.ChargeCommission(models.EntityCentro, 1, decimal.Zero, "ref", "desc")
	assert.Error(t, err)
}
