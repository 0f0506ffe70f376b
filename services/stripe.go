package services

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/webhook"
)

// CheckoutParams describes a hosted checkout session to open. Amounts are
// in minor units (cents).
type CheckoutParams struct {
	AmountCents        int64
	Currency           string
	ProductName        string
	ProductDescription string
	CustomerEmail      string
	SuccessURL         string
	CancelURL          string
	Metadata           map[string]string
}

// CheckoutSession is the provider-agnostic view of a hosted session.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentStatus   string
	PaymentIntentID string
	Metadata        map[string]string
}

const PaymentStatusPaid = "paid"

// WebhookEvent is a verified provider event.
type WebhookEvent struct {
	ID      string
	Type    string
	Session CheckoutSession
}

// PaymentGateway is the boundary to the hosted-payment provider. The
// Stripe implementation below is the only production one; tests substitute
// a mock.
type PaymentGateway interface {
	CreateCheckoutSession(params CheckoutParams) (*CheckoutSession, error)
	RetrieveSession(sessionID string) (*CheckoutSession, error)
}

type StripeGateway struct{}

func NewStripeGateway(secretKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{}
}

func (g *StripeGateway) CreateCheckoutSession(p CheckoutParams) (*CheckoutSession, error) {
	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency:   stripe.String(p.Currency),
		UnitAmount: stripe.Int64(p.AmountCents),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(p.ProductName),
		},
	}
	if p.ProductDescription != "" {
		priceData.ProductData.Description = stripe.String(p.ProductDescription)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: priceData,
				Quantity:  stripe.Int64(1),
			},
		},
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return fromStripeSession(sess), nil
}

func (g *StripeGateway) RetrieveSession(sessionID string) (*CheckoutSession, error) {
	sess, err := session.Get(sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("stripe session %s: %w", sessionID, err)
	}
	return fromStripeSession(sess), nil
}

// ParseWebhookEvent verifies and decodes a Stripe webhook payload. When no
// secret is configured the signature check is skipped, matching the
// behavior of the hosted deployment before the secret was provisioned.
func ParseWebhookEvent(payload []byte, signature, secret string) (*WebhookEvent, error) {
	var event stripe.Event
	if secret != "" && signature != "" {
		verified, err := webhook.ConstructEvent(payload, signature, secret)
		if err != nil {
			return nil, fmt.Errorf("webhook signature verification failed: %w", err)
		}
		event = verified
	} else if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}

	result := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if result.Type == "checkout.session.completed" {
		if event.Data == nil {
			return nil, fmt.Errorf("event %s carries no session object", event.ID)
		}
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("invalid checkout session payload: %w", err)
		}
		result.Session = *fromStripeSession(&sess)
	}

	return result, nil
}

func fromStripeSession(sess *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
		Metadata:      sess.Metadata,
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	return out
}
