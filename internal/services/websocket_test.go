package services

import (
	"testing"
	"time"
)

func addTestClient(h *Hub, id string, userID uint) *Client {
	client := &Client{ID: id, UserID: userID, Send: make(chan Event, 8), Hub: h}
	h.register <- client
	return client
}

func waitForEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case event := <-c.Send:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_BroadcastToAll(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := addTestClient(h, "a", 1)
	b := addTestClient(h, "b", 2)

	h.Broadcast(Event{Type: "ticket_created", Data: map[string]interface{}{"ticket_id": 1}})

	for _, c := range []*Client{a, b} {
		event := waitForEvent(t, c)
		if event.Type != "ticket_created" {
			t.Errorf("expected ticket_created, got %q", event.Type)
		}
		if event.Timestamp.IsZero() {
			t.Error("expected timestamp to be stamped")
		}
	}
}

func TestHub_UserTargetedEvent(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := addTestClient(h, "a", 1)
	b := addTestClient(h, "b", 2)

	h.Broadcast(Event{Type: "ticket_assigned", UserID: 2})

	event := waitForEvent(t, b)
	if event.Type != "ticket_assigned" {
		t.Errorf("expected ticket_assigned, got %q", event.Type)
	}

	select {
	case event := <-a.Send:
		t.Errorf("client a should not receive targeted event, got %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_Unregister(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := addTestClient(h, "a", 1)

	deadline := time.After(time.Second)
	for h.ClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	h.unregister <- client
	deadline = time.After(time.Second)
	for h.ClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("client never unregistered")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
