package hub

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBroadcastJSON(t *testing.T) {
	h := New(nil)
	go h.Run()

	client := &Client{hub: h, send: make(chan []byte, 4)}
	h.register <- client

	deadline := time.After(time.Second)
	for h.ClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	ev := NewEvent("transcript", "/echobot/voice/:session_id", "s1", "hello")
	if err := h.BroadcastJSON(ev); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}

	select {
	case data := <-client.send:
		var got Event
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if got.Type != "transcript" || got.Detail != "hello" || got.SessionID != "s1" {
			t.Errorf("got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

func TestSlowClientDropped(t *testing.T) {
	h := New(nil)
	go h.Run()

	// Unbuffered send channel with no reader: the first broadcast
	// cannot be queued and the client must be dropped.
	client := &Client{hub: h, send: make(chan []byte)}
	h.register <- client

	deadline := time.After(time.Second)
	for h.ClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	h.Broadcast([]byte(`{}`))

	deadline = time.After(time.Second)
	for h.ClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("slow client never dropped")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
