package services

import (
	log "github.com/sirupsen/logrus"

	"github.com/lablinkriparo/riparo-be/models"
)

// Notifier is the boundary to the email/push collaborators. Delivery
// happens outside this service; implementations only hand the payload off.
type Notifier interface {
	LoyaltyCardActivated(card *models.LoyaltyCard, customer *models.Customer, centro *models.Centro) error
	ForfeitureWarning(repair *models.Repair) error
}

// LogNotifier records notification intents in the log. The SMTP and push
// dispatchers consume the same events from their own queue.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) LoyaltyCardActivated(card *models.LoyaltyCard, customer *models.Customer, centro *models.Centro) error {
	log.WithFields(log.Fields{
		"loyalty_card_id": card.ID,
		"card_number":     card.CardNumber,
		"customer_email":  customer.Email,
		"centro":          centro.BusinessName,
	}).Info("[NOTIFY] Loyalty welcome email queued")
	return nil
}

func (n *LogNotifier) ForfeitureWarning(repair *models.Repair) error {
	log.WithField("repair_id", repair.ID).Info("[NOTIFY] Forfeiture warning queued")
	return nil
}
