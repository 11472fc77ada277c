package events

import (
	"encoding/json"
	"testing"
)

func TestHubPublishSubscribe(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	h.Publish(Make("listing_posted", map[string]string{"address": "123 Main St"}))

	select {
	case msg := <-ch:
		var evt Event
		if err := json.Unmarshal([]byte(msg), &evt); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if evt.Type != "listing_posted" {
			t.Errorf("Type = %q, want listing_posted", evt.Type)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestHubDropsWhenSlow(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	// Overfill the buffered channel; Publish must not block.
	for i := 0; i < 20; i++ {
		h.Publish(Make("ping", nil))
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered %d events, want %d", len(ch), cap(ch))
	}
}
