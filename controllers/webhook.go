package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/lablinkriparo/riparo-be/config"
	"github.com/lablinkriparo/riparo-be/services"
)

type WebhookController struct {
	topupService   *services.TopupService
	loyaltyService *services.LoyaltyService
	dedup          eventDedup
}

// eventDedup remembers fully processed webhook events so redeliveries are
// acknowledged without touching the database. An event is recorded only
// after it was processed; a failed delivery leaves no trace, so the
// provider's retry is processed normally.
type eventDedup interface {
	Seen(ctx context.Context, eventID string) bool
	MarkProcessed(ctx context.Context, eventID string)
}

type redisDedup struct {
	client *redis.Client
}

func (d *redisDedup) Seen(ctx context.Context, eventID string) bool {
	n, err := d.client.Exists(ctx, "stripe:event:"+eventID).Result()
	if err != nil {
		log.WithError(err).Warn("[WEBHOOK] Redis dedup check failed, continuing")
		return false
	}
	return n > 0
}

func (d *redisDedup) MarkProcessed(ctx context.Context, eventID string) {
	if err := d.client.Set(ctx, "stripe:event:"+eventID, 1, 24*time.Hour).Err(); err != nil {
		log.WithError(err).Warn("[WEBHOOK] Failed to record processed event")
	}
}

func NewWebhookController() *WebhookController {
	credits := services.NewCreditService(config.DB)
	gateway := services.NewStripeGateway(config.C.StripeSecretKey)
	wc := &WebhookController{
		topupService:   services.NewTopupService(config.DB, gateway, credits),
		loyaltyService: services.NewLoyaltyService(config.DB, gateway, credits, services.NewLogNotifier()),
	}
	if config.RDB != nil {
		wc.dedup = &redisDedup{client: config.RDB}
	}
	return wc
}

// HandleStripe processes checkout.session.completed events for both topups
// and loyalty cards. Failures return 5xx so Stripe retries; everything else
// acknowledges with {"received": true}.
func (wc *WebhookController) HandleStripe(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read payload"})
		return
	}

	event, err := services.ParseWebhookEvent(payload, c.GetHeader("Stripe-Signature"), config.C.StripeWebhookSecret)
	if err != nil {
		log.WithError(err).Warn("[WEBHOOK] Rejected event")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log.WithFields(log.Fields{"event_id": event.ID, "type": event.Type}).Info("[WEBHOOK] Event received")

	if event.Type != "checkout.session.completed" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ctx := c.Request.Context()
	if wc.dedup != nil && event.ID != "" && wc.dedup.Seen(ctx, event.ID) {
		log.WithField("event_id", event.ID).Info("[WEBHOOK] Duplicate event, skipping")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	session := event.Session
	switch {
	case session.Metadata["type"] == "loyalty_card":
		_, err = wc.loyaltyService.ApplyConfirmedSession(&session)
	case session.Metadata["topup_request_id"] != "":
		_, err = wc.topupService.ApplyConfirmedSession(&session)
	default:
		log.WithField("event_id", event.ID).Warn("[WEBHOOK] Session without recognized metadata")
	}

	if err != nil {
		log.WithError(err).WithField("event_id", event.ID).Error("[WEBHOOK] Failed to process event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if wc.dedup != nil && event.ID != "" {
		wc.dedup.MarkProcessed(ctx, event.ID)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
