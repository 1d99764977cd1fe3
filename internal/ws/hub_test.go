package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"adoption-service/internal/models"
)

func TestHubAddAndRemoveConversationClient(t *testing.T) {
	hub := NewHub()

	hub.AddConversationClient("conv-1", nil, ConnInfo{ConnID: "c1", UserID: "adopter-1"})
	if len(hub.conversationRooms) != 1 {
		t.Fatalf("expected conversation room to be created")
	}
	if len(hub.conversationConnInfo["conv-1"]) != 1 {
		t.Fatalf("expected conn info to be tracked")
	}

	hub.RemoveConversationClient("conv-1", nil)
	if len(hub.conversationRooms) != 0 {
		t.Fatalf("expected conversation room to be removed")
	}
	if len(hub.conversationConnInfo) != 0 {
		t.Fatalf("expected conn info to be cleared")
	}
}

func TestHubAddAndRemoveRequestClient(t *testing.T) {
	hub := NewHub()

	hub.AddRequestClient("req-1", nil, ConnInfo{ConnID: "c2", UserID: "rescuer-1"})
	if len(hub.requestRooms) != 1 {
		t.Fatalf("expected request room to be created")
	}

	hub.RemoveRequestClient("req-1", nil)
	if len(hub.requestRooms) != 0 {
		t.Fatalf("expected request room to be removed")
	}
}

func TestHubBroadcastWhileMembershipChanges(t *testing.T) {
	hub := NewHub()
	testUpgrader := websocket.Upgrader{}
	serverConns := make(chan *websocket.Conn, 32)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.AddConversationClient("conv-1", conn, ConnInfo{ConnID: "srv"})
		serverConns <- conn
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	keep, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer keep.Close()
	<-serverConns

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 30; i++ {
			hub.BroadcastMessage("conv-1", models.Message{ID: "msg", ConversationID: "conv-1", Content: "hola"})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				t.Errorf("dial: %v", err)
				return
			}
			conn := <-serverConns
			hub.RemoveConversationClient("conv-1", conn)
			conn.Close()
			client.Close()
		}
	}()
	wg.Wait()

	if _, _, err := keep.ReadMessage(); err != nil {
		t.Fatalf("expected a broadcast to reach the remaining client: %v", err)
	}
}

func TestHubRemoveUnknownClientIsNoop(t *testing.T) {
	hub := NewHub()

	hub.RemoveConversationClient("missing", nil)
	hub.RemoveRequestClient("missing", nil)
	if len(hub.conversationRooms) != 0 || len(hub.requestRooms) != 0 {
		t.Fatalf("expected hub to stay empty")
	}
}
