package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionCompletedPayload = `{
	"id": "evt_test_1",
	"type": "checkout.session.completed",
	"data": {
		"object": {
			"id": "cs_test_1",
			"payment_status": "paid",
			"metadata": {
				"topup_request_id": "12",
				"entity_type": "centro",
				"entity_id": "3",
				"amount": "100.00"
			}
		}
	}
}`

func TestParseWebhookEventWithoutSecret(t *testing.T) {
	event, err := ParseWebhookEvent([]byte(sessionCompletedPayload), "", "")

	require.NoError(t, err)
	assert.Equal(t, "evt_test_1", event.ID)
	assert.Equal(t, "checkout.session.completed", event.Type)
	assert.Equal(t, "cs_test_1", event.Session.ID)
	assert.Equal(t, PaymentStatusPaid, event.Session.PaymentStatus)
	assert.Equal(t, "12", event.Session.Metadata["topup_request_id"])
}

func TestParseWebhookEventRejectsBadSignature(t *testing.T) {
	_, err := ParseWebhookEvent([]byte(sessionCompletedPayload), "t=1,v1=deadbeef", "whsec_test")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature")
}

func TestParseWebhookEventIgnoresOtherTypes(t *testing.T) {
	payload := `{"id": "evt_test_2", "type": "payment_intent.created", "data": {"object": {}}}`

	event, err := ParseWebhookEvent([]byte(payload), "", "")

	require.NoError(t, err)
	assert.Equal(t, "payment_intent.created", event.Type)
	assert.Empty(t, event.Session.ID)
}

func TestParseWebhookEventRejectsGarbage(t *testing.T) {
	_, err := ParseWebhookEvent([]byte("not json"), "", "")
	require.Error(t, err)
}
