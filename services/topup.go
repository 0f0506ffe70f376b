package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lablinkriparo/riparo-be/config"
	"github.com/lablinkriparo/riparo-be/metrics"
	"github.com/lablinkriparo/riparo-be/models"
	"github.com/lablinkriparo/riparo-be/websocket"
)

// Minimum topup accepted by the platform, in euro.
var minTopupAmount = decimal.NewFromInt(50)

type TopupService struct {
	db      *gorm.DB
	gateway PaymentGateway
	credits *CreditService
}

func NewTopupService(db *gorm.DB, gateway PaymentGateway, credits *CreditService) *TopupService {
	return &TopupService{db: db, gateway: gateway, credits: credits}
}

type TopupCheckoutResult struct {
	URL            string `json:"url"`
	SessionID      string `json:"session_id"`
	TopupRequestID uint   `json:"topup_request_id"`
}

// CreateCheckout validates the topup, records a pending request and opens a
// hosted checkout session whose metadata points back at the request.
func (s *TopupService) CreateCheckout(entityType models.EntityType, entityID uint, amount decimal.Decimal, userEmail, origin string) (*TopupCheckoutResult, error) {
	if entityType != models.EntityCentro && entityType != models.EntityCorner {
		return nil, errors.New("entity_type must be centro or corner")
	}
	if entityID == 0 {
		return nil, errors.New("entity_id is required")
	}
	if amount.LessThan(minTopupAmount) {
		return nil, errors.New("Minimum topup amount is €50")
	}

	entityName, err := s.entityName(entityType, entityID)
	if err != nil {
		return nil, err
	}

	request := models.TopupRequest{
		EntityType:    entityType,
		EntityID:      entityID,
		Amount:        amount,
		PaymentMethod: "stripe",
		Status:        models.TopupStatusPending,
		Notes:         "Pagamento con carta via Stripe",
	}
	if err := s.db.Create(&request).Error; err != nil {
		return nil, fmt.Errorf("failed to create topup request: %w", err)
	}

	log.WithField("topup_request_id", request.ID).Info("[CREATE-TOPUP] Created pending topup request")

	slug := "centro"
	if entityType == models.EntityCorner {
		slug = "corner"
	}

	sess, err := s.gateway.CreateCheckoutSession(CheckoutParams{
		AmountCents:        amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:           "eur",
		ProductName:        fmt.Sprintf("Ricarica Credito - %s", entityName),
		ProductDescription: fmt.Sprintf("Ricarica credito piattaforma per %s", slug),
		CustomerEmail:      userEmail,
		SuccessURL:         fmt.Sprintf("%s/%s?topup=success", origin, slug),
		CancelURL:          fmt.Sprintf("%s/%s?topup=cancelled", origin, slug),
		Metadata: map[string]string{
			"topup_request_id": strconv.FormatUint(uint64(request.ID), 10),
			"entity_type":      string(entityType),
			"entity_id":        strconv.FormatUint(uint64(entityID), 10),
			"amount":           amount.StringFixed(2),
		},
	})
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&models.TopupRequest{}).Where("id = ?", request.ID).Updates(map[string]interface{}{
		"payment_reference": sess.ID,
		"notes":             fmt.Sprintf("Stripe session: %s", sess.ID),
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to store session reference: %w", err)
	}

	log.WithField("session_id", sess.ID).Info("[CREATE-TOPUP] Created checkout session")

	return &TopupCheckoutResult{
		URL:            sess.URL,
		SessionID:      sess.ID,
		TopupRequestID: request.ID,
	}, nil
}

type ConfirmResult struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message,omitempty"`
	NewBalance *decimal.Decimal `json:"new_balance,omitempty"`
}

// ConfirmPayment checks the session state with the provider and, when paid,
// applies the balance update exactly once. Re-confirming an already
// approved request is a successful no-op.
func (s *TopupService) ConfirmPayment(sessionID string) (*ConfirmResult, error) {
	if sessionID == "" {
		return nil, errors.New("session_id is required")
	}

	sess, err := s.gateway.RetrieveSession(sessionID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"session_id": sessionID, "payment_status": sess.PaymentStatus}).
		Info("[CONFIRM-TOPUP] Retrieved session")

	if sess.PaymentStatus != PaymentStatusPaid {
		return &ConfirmResult{Success: false, Message: "Payment not completed"}, nil
	}

	requestID, err := strconv.ParseUint(sess.Metadata["topup_request_id"], 10, 64)
	if err != nil {
		return nil, errors.New("missing topup_request_id in session metadata")
	}

	return s.applyConfirmed(uint(requestID), sessionID)
}

// ApplyConfirmedSession is the webhook entry point: the event already
// carries the paid session, so no provider round-trip is needed.
func (s *TopupService) ApplyConfirmedSession(sess *CheckoutSession) (*ConfirmResult, error) {
	if sess.PaymentStatus != PaymentStatusPaid {
		return &ConfirmResult{Success: false, Message: "Payment not completed"}, nil
	}
	requestID, err := strconv.ParseUint(sess.Metadata["topup_request_id"], 10, 64)
	if err != nil {
		return nil, errors.New("missing topup_request_id in session metadata")
	}
	return s.applyConfirmed(uint(requestID), sess.ID)
}

func (s *TopupService) applyConfirmed(requestID uint, reference string) (*ConfirmResult, error) {
	var request models.TopupRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		return nil, fmt.Errorf("topup request %d not found: %w", requestID, err)
	}

	if request.Status == models.TopupStatusApproved {
		log.WithField("topup_request_id", requestID).Info("[CONFIRM-TOPUP] Already processed")
		return &ConfirmResult{Success: true, Message: "Already processed"}, nil
	}

	update, err := s.credits.ApplyTopup(
		request.EntityType,
		request.EntityID,
		request.Amount,
		reference,
		fmt.Sprintf("Ricarica via Stripe - €%s", request.Amount.StringFixed(2)),
	)
	if errors.Is(err, ErrDuplicateReference) {
		// A concurrent confirmation won the race; finish marking the
		// request and report success. A failed status write surfaces so
		// the retry picks the request up again.
		log.WithField("topup_request_id", requestID).Info("[CONFIRM-TOPUP] Duplicate reference, treating as processed")
		if err := s.markApproved(requestID); err != nil {
			return nil, err
		}
		return &ConfirmResult{Success: true, Message: "Already processed"}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.markApproved(requestID); err != nil {
		return nil, err
	}

	metrics.TopupsConfirmed.WithLabelValues(string(request.EntityType)).Inc()
	if config.WSHub != nil {
		config.WSHub.BroadcastEvent(websocket.EventBalanceUpdated, websocket.BalanceEvent{
			EntityType: string(request.EntityType),
			EntityID:   request.EntityID,
			NewBalance: update.NewBalance.StringFixed(2),
			Status:     string(update.Status),
		})
	}

	log.WithFields(log.Fields{
		"topup_request_id": requestID,
		"amount":           request.Amount.StringFixed(2),
		"new_balance":      update.NewBalance.StringFixed(2),
	}).Info("[CONFIRM-TOPUP] Credited topup")

	return &ConfirmResult{Success: true, NewBalance: &update.NewBalance}, nil
}

func (s *TopupService) markApproved(requestID uint) error {
	now := time.Now()
	return s.db.Model(&models.TopupRequest{}).Where("id = ?", requestID).Updates(map[string]interface{}{
		"status":       models.TopupStatusApproved,
		"processed_at": now,
	}).Error
}

// CreateManualRequest records a bank-transfer topup awaiting admin approval.
func (s *TopupService) CreateManualRequest(entityType models.EntityType, entityID uint, amount decimal.Decimal, notes string) (*models.TopupRequest, error) {
	if entityType != models.EntityCentro && entityType != models.EntityCorner {
		return nil, errors.New("entity_type must be centro or corner")
	}
	if entityID == 0 {
		return nil, errors.New("entity_id is required")
	}
	if amount.LessThan(minTopupAmount) {
		return nil, errors.New("Minimum topup amount is €50")
	}

	request := models.TopupRequest{
		EntityType:    entityType,
		EntityID:      entityID,
		Amount:        amount,
		PaymentMethod: "bank_transfer",
		Status:        models.TopupStatusPending,
		Notes:         notes,
	}
	if err := s.db.Create(&request).Error; err != nil {
		return nil, fmt.Errorf("failed to create topup request: %w", err)
	}
	return &request, nil
}

// ApproveRequest lets a platform admin confirm a bank-transfer topup.
func (s *TopupService) ApproveRequest(requestID uint) (*ConfirmResult, error) {
	result, err := s.applyConfirmed(requestID, fmt.Sprintf("topup_request:%d", requestID))
	if err != nil {
		return nil, err
	}

	if config.WSHub != nil && result.NewBalance != nil {
		config.WSHub.BroadcastEvent(websocket.EventTopupApproved, websocket.TopupApprovedEvent{
			TopupRequestID: requestID,
			NewBalance:     result.NewBalance.StringFixed(2),
		})
	}
	return result, nil
}

// ListRequests returns topup requests, optionally filtered by status.
func (s *TopupService) ListRequests(status models.TopupStatus) ([]models.TopupRequest, error) {
	var requests []models.TopupRequest
	query := s.db.Order("created_at DESC").Limit(200)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&requests).Error
	return requests, err
}

func (s *TopupService) entityName(entityType models.EntityType, entityID uint) (string, error) {
	switch entityType {
	case models.EntityCentro:
		var centro models.Centro
		if err := s.db.First(&centro, entityID).Error; err != nil {
			return "", fmt.Errorf("centro %d not found: %w", entityID, err)
		}
		return centro.BusinessName, nil
	default:
		var corner models.Corner
		if err := s.db.First(&corner, entityID).Error; err != nil {
			return "", fmt.Errorf("corner %d not found: %w", entityID, err)
		}
		return corner.BusinessName, nil
	}
}
