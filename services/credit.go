package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lablinkriparo/riparo-be/models"
)

// ErrDuplicateReference is returned when a balance mutation carries a
// payment reference that was already applied. Callers treat it as an
// idempotent no-op, not a failure.
var ErrDuplicateReference = errors.New("payment reference already applied")

var (
	goodStandingCutoff      = decimal.NewFromInt(100)
	defaultWarningThreshold = decimal.NewFromInt(50)
)

// StatusAfterTopup recomputes the payment status after a credit topup.
// The topup path considers an entity in good standing from €100 up and in
// warning territory down to zero.
func StatusAfterTopup(balance decimal.Decimal) models.PaymentStatus {
	switch {
	case balance.GreaterThanOrEqual(goodStandingCutoff):
		return models.PaymentStatusGoodStanding
	case balance.GreaterThanOrEqual(decimal.Zero):
		return models.PaymentStatusWarning
	default:
		return models.PaymentStatusSuspended
	}
}

// StatusAfterCharge recomputes the payment status after a commission
// deduction. The charge path suspends at zero and warns below the entity's
// configured threshold (€50 when unset). The cutoffs intentionally differ
// from the topup path; see DESIGN.md.
func StatusAfterCharge(balance, warningThreshold decimal.Decimal) models.PaymentStatus {
	if warningThreshold.IsZero() {
		warningThreshold = defaultWarningThreshold
	}
	switch {
	case balance.LessThanOrEqual(decimal.Zero):
		return models.PaymentStatusSuspended
	case balance.LessThan(warningThreshold):
		return models.PaymentStatusWarning
	default:
		return models.PaymentStatusGoodStanding
	}
}

type CreditService struct {
	db *gorm.DB
}

func NewCreditService(db *gorm.DB) *CreditService {
	return &CreditService{db: db}
}

// BalanceUpdate reports the outcome of a balance mutation
type BalanceUpdate struct {
	NewBalance decimal.Decimal
	Status     models.PaymentStatus
}

// ApplyTopup credits amount to the entity's balance and appends one audit
// transaction, all inside a single row-locked database transaction.
func (s *CreditService) ApplyTopup(entityType models.EntityType, entityID uint, amount decimal.Decimal, reference, description string) (*BalanceUpdate, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("topup amount must be positive")
	}
	return s.applyDelta(entityType, entityID, amount, models.TransactionTypeTopup, reference, description, func(balance, _ decimal.Decimal) models.PaymentStatus {
		return StatusAfterTopup(balance)
	})
}

// ChargeCommission debits amount from the entity's balance. The balance may
// go negative; the status recomputation flags it as suspended.
func (s *CreditService) ChargeCommission(entityType models.EntityType, entityID uint, amount decimal.Decimal, reference, description string) (*BalanceUpdate, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("commission amount must be positive")
	}
	return s.applyDelta(entityType, entityID, amount.Neg(), models.TransactionTypeLoyaltyCommission, reference, description, StatusAfterCharge)
}

// ChargeCommissionTx is ChargeCommission running inside the caller's
// transaction, so the debit commits or rolls back together with the
// caller's own writes.
func (s *CreditService) ChargeCommissionTx(tx *gorm.DB, entityType models.EntityType, entityID uint, amount decimal.Decimal, reference, description string) (*BalanceUpdate, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("commission amount must be positive")
	}
	return s.applyDeltaIn(tx, entityType, entityID, amount.Neg(), models.TransactionTypeLoyaltyCommission, reference, description, StatusAfterCharge)
}

// Adjust applies a signed manual correction by a platform admin.
func (s *CreditService) Adjust(entityType models.EntityType, entityID uint, delta decimal.Decimal, description string) (*BalanceUpdate, error) {
	if delta.IsZero() {
		return nil, errors.New("adjustment amount must be non-zero")
	}
	return s.applyDelta(entityType, entityID, delta, models.TransactionTypeAdjustment, "", description, StatusAfterCharge)
}

// applyDelta is the single writer for credit balances. It locks the entity
// row, applies the signed delta, recomputes the status and appends the
// audit transaction. A duplicate payment reference aborts the whole
// transaction with ErrDuplicateReference.
func (s *CreditService) applyDelta(entityType models.EntityType, entityID uint, delta decimal.Decimal, txType models.TransactionType, reference, description string, statusFn func(balance, threshold decimal.Decimal) models.PaymentStatus) (*BalanceUpdate, error) {
	var result *BalanceUpdate

	err := s.db.Transaction(func(tx *gorm.DB) error {
		update, err := s.applyDeltaIn(tx, entityType, entityID, delta, txType, reference, description, statusFn)
		if err != nil {
			return err
		}
		result = update
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *CreditService) applyDeltaIn(tx *gorm.DB, entityType models.EntityType, entityID uint, delta decimal.Decimal, txType models.TransactionType, reference, description string, statusFn func(balance, threshold decimal.Decimal) models.PaymentStatus) (*BalanceUpdate, error) {
	var balance, threshold decimal.Decimal

	switch entityType {
	case models.EntityCentro:
		var centro models.Centro
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&centro, entityID).Error; err != nil {
			return nil, fmt.Errorf("centro %d not found: %w", entityID, err)
		}
		balance = centro.CreditBalance
		threshold = centro.CreditWarningThreshold
	case models.EntityCorner:
		var corner models.Corner
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&corner, entityID).Error; err != nil {
			return nil, fmt.Errorf("corner %d not found: %w", entityID, err)
		}
		balance = corner.CreditBalance
		threshold = corner.CreditWarningThreshold
	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}

	newBalance := balance.Add(delta)
	status := statusFn(newBalance, threshold)

	record := models.CreditTransaction{
		EntityType:       entityType,
		EntityID:         entityID,
		Type:             txType,
		Amount:           delta,
		BalanceAfter:     newBalance,
		Description:      description,
		PaymentReference: reference,
	}
	if err := tx.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateReference
		}
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"credit_balance":     newBalance,
		"payment_status":     status,
		"last_credit_update": now,
	}

	var model interface{}
	if entityType == models.EntityCentro {
		model = &models.Centro{}
	} else {
		model = &models.Corner{}
	}
	if err := tx.Model(model).Where("id = ?", entityID).Updates(updates).Error; err != nil {
		return nil, err
	}

	return &BalanceUpdate{NewBalance: newBalance, Status: status}, nil
}

// GetTransactions returns the audit trail for one entity, newest first.
func (s *CreditService) GetTransactions(entityType models.EntityType, entityID uint, limit int) ([]models.CreditTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var transactions []models.CreditTransaction
	err := s.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&transactions).Error
	return transactions, err
}

// GetAllTransactions returns the platform-wide audit trail, newest first.
func (s *CreditService) GetAllTransactions(limit int) ([]models.CreditTransaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var transactions []models.CreditTransaction
	err := s.db.Order("created_at DESC").Limit(limit).Find(&transactions).Error
	return transactions, err
}
