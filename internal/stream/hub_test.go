package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mkarev/nftmarket/internal/events"
	"github.com/mkarev/nftmarket/internal/model"
)

func newTestHub(t *testing.T) (*Hub, *events.GrowableBuffer[model.Event], *httptest.Server) {
	t.Helper()

	input := events.NewGrowableBuffer[model.Event](16)
	hub := NewHub(DefaultConfig(), input, nil)

	if err := hub.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	server := httptest.NewServer(hub)

	t.Cleanup(func() {
		server.Close()
		input.Close()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hub.Stop(stopCtx)
	})
	return hub, input, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Clients() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Clients = %d, want %d", hub.Clients(), want)
}

func TestHub_BroadcastsEvents(t *testing.T) {
	hub, input, server := newTestHub(t)
	conn := dial(t, server)
	waitForClients(t, hub, 1)

	want := model.Event{
		ID:      uuid.New(),
		Type:    model.EventItemSold,
		TokenID: 3,
		Actor:   uuid.New(),
		Amount:  10,
	}
	input.Send(want)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	var got model.Event
	if err := json.Unmarshal(frame, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.ID != want.ID {
		t.Errorf("ID = %v, want %v", got.ID, want.ID)
	}
	if got.Type != model.EventItemSold {
		t.Errorf("Type = %s, want %s", got.Type, model.EventItemSold)
	}
	if got.Amount != 10 {
		t.Errorf("Amount = %d, want 10", got.Amount)
	}
}

func TestHub_MultipleSubscribers(t *testing.T) {
	hub, input, server := newTestHub(t)
	first := dial(t, server)
	second := dial(t, server)
	waitForClients(t, hub, 2)

	input.Send(model.Event{ID: uuid.New(), Type: model.EventBidPlaced, TokenID: 1})

	for i, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, frame, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("subscriber %d ReadMessage failed: %v", i, err)
		}
		var got model.Event
		if err := json.Unmarshal(frame, &got); err != nil {
			t.Fatalf("subscriber %d Unmarshal failed: %v", i, err)
		}
		if got.Type != model.EventBidPlaced {
			t.Errorf("subscriber %d Type = %s, want %s", i, got.Type, model.EventBidPlaced)
		}
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, _, server := newTestHub(t)
	conn := dial(t, server)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_StopClosesClients(t *testing.T) {
	input := events.NewGrowableBuffer[model.Event](16)
	hub := NewHub(DefaultConfig(), input, nil)

	if err := hub.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dial(t, server)
	waitForClients(t, hub, 1)

	input.Close()
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hub.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if got := hub.Clients(); got != 0 {
		t.Errorf("Clients = %d, want 0", got)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected read error after Stop")
	}
}
