package websocket

// Event types for WebSocket messages
const (
	// Credit events
	EventBalanceUpdated = "credit:balance_updated"
	EventTopupApproved  = "credit:topup_approved"

	// Loyalty events
	EventCardActivated = "loyalty:card_activated"

	// Forfeiture events
	EventForfeitureCompleted = "forfeiture:completed"
)

// BalanceEvent notifies dashboards that an entity's balance changed
type BalanceEvent struct {
	EntityType string `json:"entity_type"`
	EntityID   uint   `json:"entity_id"`
	NewBalance string `json:"new_balance"`
	Status     string `json:"status"`
}

// TopupApprovedEvent announces an admin-approved bank-transfer topup
type TopupApprovedEvent struct {
	TopupRequestID uint   `json:"topup_request_id"`
	NewBalance     string `json:"new_balance"`
}

// CardActivatedEvent announces a newly activated loyalty card
type CardActivatedEvent struct {
	LoyaltyCardID uint   `json:"loyalty_card_id"`
	CustomerID    uint   `json:"customer_id"`
	CentroID      uint   `json:"centro_id"`
	CardNumber    string `json:"card_number"`
}

// ForfeitureEvent summarizes a completed forfeiture sweep
type ForfeitureEvent struct {
	WarningsSent int `json:"warnings_sent"`
	Forfeited    int `json:"forfeited"`
}
