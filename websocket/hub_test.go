package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastEventReachesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastEvent(EventTopupApproved, TopupApprovedEvent{
		TopupRequestID: 9,
		NewBalance:     "150.00",
	})

	select {
	case raw := <-client.send:
		var envelope struct {
			Type string             `json:"type"`
			Data TopupApprovedEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &envelope))
		assert.Equal(t, EventTopupApproved, envelope.Type)
		assert.Equal(t, uint(9), envelope.Data.TopupRequestID)
		assert.Equal(t, "150.00", envelope.Data.NewBalance)
	case <-time.After(time.Second):
		t.Fatal("broadcast never reached the client")
	}
}
