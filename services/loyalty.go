package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/lablinkriparo/riparo-be/config"
	"github.com/lablinkriparo/riparo-be/metrics"
	"github.com/lablinkriparo/riparo-be/models"
	"github.com/lablinkriparo/riparo-be/websocket"
)

// Loyalty card pricing. The platform keeps 5% of the €30 annual price; on
// corner referrals the corner earns a fixed €10 out of the centro's share.
var (
	loyaltyAnnualPrice       = decimal.NewFromInt(30)
	platformCommissionRate   = decimal.NewFromFloat(0.05)
	cornerReferralCommission = decimal.NewFromInt(10)
)

const loyaltyMaxDevices = 3

// CommissionSplit returns the platform commission and centro revenue for a
// card sold at the given price.
func CommissionSplit(price decimal.Decimal) (platform, centro decimal.Decimal) {
	platform = price.Mul(platformCommissionRate).Round(2)
	centro = price.Sub(platform)
	return platform, centro
}

type LoyaltyService struct {
	db       *gorm.DB
	gateway  PaymentGateway
	credits  *CreditService
	notifier Notifier
}

func NewLoyaltyService(db *gorm.DB, gateway PaymentGateway, credits *CreditService, notifier Notifier) *LoyaltyService {
	return &LoyaltyService{db: db, gateway: gateway, credits: credits, notifier: notifier}
}

type LoyaltyCheckoutResult struct {
	URL           string `json:"url"`
	LoyaltyCardID uint   `json:"loyalty_card_id"`
}

// CreateCheckout opens a hosted checkout for a customer subscribing
// directly at a centro.
func (s *LoyaltyService) CreateCheckout(customerID, centroID uint, customerEmail, origin string) (*LoyaltyCheckoutResult, error) {
	if customerID == 0 || centroID == 0 {
		return nil, errors.New("customer_id and centro_id are required")
	}

	if err := s.rejectIfActiveCard(customerID, centroID); err != nil {
		return nil, err
	}

	var centro models.Centro
	if err := s.db.First(&centro, centroID).Error; err != nil {
		return nil, fmt.Errorf("centro %d not found: %w", centroID, err)
	}

	card, err := s.createPendingCard(customerID, centroID, nil)
	if err != nil {
		return nil, err
	}

	log.WithField("loyalty_card_id", card.ID).Info("[CREATE-LOYALTY] Created pending card")

	sess, err := s.gateway.CreateCheckoutSession(CheckoutParams{
		AmountCents:        loyaltyAnnualPrice.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:           "eur",
		ProductName:        fmt.Sprintf("Tessera Fedeltà - %s", centro.BusinessName),
		ProductDescription: "Abbonamento annuale tessera fedeltà",
		CustomerEmail:      customerEmail,
		SuccessURL:         fmt.Sprintf("%s/loyalty-success?card_id=%d", origin, card.ID),
		CancelURL:          fmt.Sprintf("%s/loyalty-cancelled", origin),
		Metadata: map[string]string{
			"type":            "loyalty_card",
			"loyalty_card_id": strconv.FormatUint(uint64(card.ID), 10),
			"customer_id":     strconv.FormatUint(uint64(customerID), 10),
			"centro_id":       strconv.FormatUint(uint64(centroID), 10),
			"centro_name":     centro.BusinessName,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.LoyaltyCard{}).Where("id = ?", card.ID).
		Update("stripe_session_id", sess.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to store session reference: %w", err)
	}

	log.WithField("session_id", sess.ID).Info("[CREATE-LOYALTY] Created checkout session")

	return &LoyaltyCheckoutResult{URL: sess.URL, LoyaltyCardID: card.ID}, nil
}

// CreateCornerCheckout resolves a corner invitation token, creates the
// customer when needed and opens the checkout with the corner referral
// recorded on the pending card.
func (s *LoyaltyService) CreateCornerCheckout(invitationToken string, centroID uint, origin string) (*LoyaltyCheckoutResult, error) {
	if invitationToken == "" || centroID == 0 {
		return nil, errors.New("invitation_token and centro_id are required")
	}

	var invitation models.CornerLoyaltyInvitation
	if err := s.db.Where("invitation_token = ?", invitationToken).First(&invitation).Error; err != nil {
		return nil, errors.New("Invito non trovato o scaduto")
	}
	if invitation.Status == models.InvitationPaid {
		return nil, errors.New("Questa tessera è già stata attivata")
	}
	if invitation.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("Questo invito è scaduto")
	}

	var centro models.Centro
	if err := s.db.First(&centro, centroID).Error; err != nil {
		return nil, fmt.Errorf("centro %d not found: %w", centroID, err)
	}

	// Find or create the customer at this centro
	var customer models.Customer
	err := s.db.Where("email = ? AND centro_id = ?", invitation.CustomerEmail, centroID).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		customer = models.Customer{
			CentroID: centroID,
			Name:     invitation.CustomerName,
			Email:    invitation.CustomerEmail,
			Phone:    invitation.CustomerPhone,
		}
		if err := s.db.Create(&customer).Error; err != nil {
			return nil, fmt.Errorf("failed to create customer: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	if err := s.rejectIfActiveCard(customer.ID, centroID); err != nil {
		return nil, err
	}

	card, err := s.createPendingCard(customer.ID, centroID, &invitation)
	if err != nil {
		return nil, err
	}

	log.WithField("loyalty_card_id", card.ID).Info("[CREATE-CORNER-LOYALTY] Created pending card")

	sess, err := s.gateway.CreateCheckoutSession(CheckoutParams{
		AmountCents:        loyaltyAnnualPrice.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:           "eur",
		ProductName:        fmt.Sprintf("Tessera Fedeltà - %s", centro.BusinessName),
		ProductDescription: fmt.Sprintf("Tessera fedeltà su invito di %s", invitation.CustomerName),
		CustomerEmail:      invitation.CustomerEmail,
		SuccessURL:         fmt.Sprintf("%s/loyalty-success?card_id=%d", origin, card.ID),
		CancelURL:          fmt.Sprintf("%s/loyalty-cancelled", origin),
		Metadata: map[string]string{
			"type":            "loyalty_card",
			"loyalty_card_id": strconv.FormatUint(uint64(card.ID), 10),
			"customer_id":     strconv.FormatUint(uint64(customer.ID), 10),
			"centro_id":       strconv.FormatUint(uint64(centroID), 10),
			"invitation_id":   strconv.FormatUint(uint64(invitation.ID), 10),
		},
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.LoyaltyCard{}).Where("id = ?", card.ID).
		Update("stripe_session_id", sess.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to store session reference: %w", err)
	}

	return &LoyaltyCheckoutResult{URL: sess.URL, LoyaltyCardID: card.ID}, nil
}

// ConfirmPayment is the explicit confirm path used by the success page.
func (s *LoyaltyService) ConfirmPayment(sessionID string) (*ConfirmResult, error) {
	if sessionID == "" {
		return nil, errors.New("session_id is required")
	}

	sess, err := s.gateway.RetrieveSession(sessionID)
	if err != nil {
		return nil, err
	}

	if sess.PaymentStatus != PaymentStatusPaid {
		return &ConfirmResult{Success: false, Message: "Payment not completed"}, nil
	}

	return s.ApplyConfirmedSession(sess)
}

// ApplyConfirmedSession activates the card referenced by a paid session.
func (s *LoyaltyService) ApplyConfirmedSession(sess *CheckoutSession) (*ConfirmResult, error) {
	if sess.PaymentStatus != PaymentStatusPaid {
		return &ConfirmResult{Success: false, Message: "Payment not completed"}, nil
	}
	if sess.Metadata["type"] != "loyalty_card" {
		return nil, errors.New("session does not reference a loyalty card")
	}
	cardID, err := strconv.ParseUint(sess.Metadata["loyalty_card_id"], 10, 64)
	if err != nil {
		return nil, errors.New("missing loyalty_card_id in session metadata")
	}

	if err := s.ActivateCard(uint(cardID), sess.PaymentIntentID); err != nil {
		return nil, err
	}

	if raw := sess.Metadata["invitation_id"]; raw != "" {
		if invitationID, err := strconv.ParseUint(raw, 10, 64); err == nil {
			s.db.Model(&models.CornerLoyaltyInvitation{}).Where("id = ?", invitationID).
				Update("status", models.InvitationPaid)
		}
	}

	return &ConfirmResult{Success: true}, nil
}

// ActivateCard moves a pending card to active, assigns the card number and
// validity window and charges the platform commission to the centro.
// Activating an already active card is a no-op.
func (s *LoyaltyService) ActivateCard(cardID uint, paymentIntentID string) error {
	var card models.LoyaltyCard
	if err := s.db.First(&card, cardID).Error; err != nil {
		return fmt.Errorf("loyalty card %d not found: %w", cardID, err)
	}

	if card.Status == models.LoyaltyCardActive {
		log.WithField("loyalty_card_id", cardID).Info("[CONFIRM-LOYALTY] Card already active")
		return nil
	}

	now := time.Now()
	expires := now.AddDate(1, 0, 0)
	cardNumber := newCardNumber()

	updates := map[string]interface{}{
		"status":                   models.LoyaltyCardActive,
		"card_number":              cardNumber,
		"activated_at":             now,
		"expires_at":               expires,
		"stripe_payment_intent_id": paymentIntentID,
	}

	// Activation and the commission debit commit together: if the charge
	// fails the card stays pending_payment, so the webhook retry replays
	// the whole step instead of finding a half-activated card.
	reference := fmt.Sprintf("loyalty_card:%d", card.ID)
	charged := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.LoyaltyCard{}).Where("id = ?", cardID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to activate card %d: %w", cardID, err)
		}

		var existing int64
		if err := tx.Model(&models.CreditTransaction{}).Where("payment_reference = ?", reference).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			// An earlier attempt already charged the commission.
			return nil
		}

		if _, err := s.credits.ChargeCommissionTx(
			tx,
			models.EntityCentro,
			card.CentroID,
			card.PlatformCommission,
			reference,
			fmt.Sprintf("Commissione 5%% tessera fedeltà #%d", card.ID),
		); err != nil {
			return err
		}
		charged = true
		return nil
	})
	if err != nil {
		return err
	}

	metrics.CardsActivated.Inc()
	if charged {
		metrics.CommissionsCharged.Inc()
	}
	if config.WSHub != nil {
		config.WSHub.BroadcastEvent(websocket.EventCardActivated, websocket.CardActivatedEvent{
			LoyaltyCardID: card.ID,
			CustomerID:    card.CustomerID,
			CentroID:      card.CentroID,
			CardNumber:    cardNumber,
		})
	}

	// Welcome email is delegated to the notification boundary; a failure
	// there must not roll back the activation.
	card.Status = models.LoyaltyCardActive
	card.CardNumber = cardNumber
	card.ActivatedAt = &now
	card.ExpiresAt = &expires
	if err := s.notifyActivation(&card); err != nil {
		log.WithError(err).Warn("[CONFIRM-LOYALTY] Failed to send welcome notification")
	}

	log.WithFields(log.Fields{"loyalty_card_id": cardID, "card_number": cardNumber}).
		Info("[CONFIRM-LOYALTY] Card activated")
	return nil
}

// ListCards returns the loyalty cards of one centro, newest first.
func (s *LoyaltyService) ListCards(centroID uint) ([]models.LoyaltyCard, error) {
	var cards []models.LoyaltyCard
	err := s.db.Preload("Customer").
		Where("centro_id = ?", centroID).
		Order("created_at DESC").
		Find(&cards).Error
	return cards, err
}

func (s *LoyaltyService) rejectIfActiveCard(customerID, centroID uint) error {
	var count int64
	err := s.db.Model(&models.LoyaltyCard{}).
		Where("customer_id = ? AND centro_id = ? AND status = ?", customerID, centroID, models.LoyaltyCardActive).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("Customer already has an active loyalty card for this centro")
	}
	return nil
}

func (s *LoyaltyService) createPendingCard(customerID, centroID uint, invitation *models.CornerLoyaltyInvitation) (*models.LoyaltyCard, error) {
	// Stale pending cards from abandoned checkouts are replaced
	if err := s.db.Where("customer_id = ? AND centro_id = ? AND status = ?",
		customerID, centroID, models.LoyaltyCardPendingPayment).
		Delete(&models.LoyaltyCard{}).Error; err != nil {
		return nil, err
	}

	platform, centroRevenue := CommissionSplit(loyaltyAnnualPrice)

	card := models.LoyaltyCard{
		CustomerID:         customerID,
		CentroID:           centroID,
		Status:             models.LoyaltyCardPendingPayment,
		PaymentMethod:      "stripe",
		AmountPaid:         loyaltyAnnualPrice,
		PlatformCommission: platform,
		CentroRevenue:      centroRevenue,
		MaxDevices:         loyaltyMaxDevices,
	}
	if invitation != nil {
		card.CornerCommission = cornerReferralCommission
		card.ReferredByCornerID = &invitation.CornerID
	}

	if err := s.db.Create(&card).Error; err != nil {
		return nil, fmt.Errorf("failed to create loyalty card record: %w", err)
	}
	return &card, nil
}

func (s *LoyaltyService) notifyActivation(card *models.LoyaltyCard) error {
	var customer models.Customer
	if err := s.db.First(&customer, card.CustomerID).Error; err != nil {
		return err
	}
	var centro models.Centro
	if err := s.db.First(&centro, card.CentroID).Error; err != nil {
		return err
	}
	return s.notifier.LoyaltyCardActivated(card, &customer, &centro)
}

func newCardNumber() string {
	return "LLR-" + strings.ToUpper(uuid.NewString()[:8])
}
