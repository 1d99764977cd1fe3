package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"adoption-service/internal/models"
	"adoption-service/internal/observability"
)

// Hub maintains active websocket rooms: one per conversation for chat
// messages and one per adoption request for status updates. Delivery is
// best effort; clients reconcile by re-fetching history on reconnect.
type Hub struct {
	conversationRooms    map[string]map[*websocket.Conn]bool
	requestRooms         map[string]map[*websocket.Conn]bool
	conversationConnInfo map[string]map[*websocket.Conn]ConnInfo
	requestConnInfo      map[string]map[*websocket.Conn]ConnInfo
	mu                   sync.RWMutex
	// writeMu serializes WriteMessage calls; gorilla/websocket allows
	// at most one concurrent writer per connection.
	writeMu sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		conversationRooms:    make(map[string]map[*websocket.Conn]bool),
		requestRooms:         make(map[string]map[*websocket.Conn]bool),
		conversationConnInfo: make(map[string]map[*websocket.Conn]ConnInfo),
		requestConnInfo:      make(map[string]map[*websocket.Conn]ConnInfo),
	}
}

// AddConversationClient registers a websocket connection to a conversation room.
func (h *Hub) AddConversationClient(conversationID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conversationRooms[conversationID]; !ok {
		h.conversationRooms[conversationID] = make(map[*websocket.Conn]bool)
	}
	h.conversationRooms[conversationID][conn] = true
	if _, ok := h.conversationConnInfo[conversationID]; !ok {
		h.conversationConnInfo[conversationID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.conversationConnInfo[conversationID][conn] = info
}

// RemoveConversationClient removes a conversation websocket connection.
func (h *Hub) RemoveConversationClient(conversationID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.conversationRooms[conversationID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.conversationRooms, conversationID)
		}
	}
	if infos, ok := h.conversationConnInfo[conversationID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.conversationConnInfo, conversationID)
		}
	}
}

// BroadcastMessage fans a new chat message out to the conversation's clients.
func (h *Hub) BroadcastMessage(conversationID string, msg models.Message) {
	event := models.ChatEvent{Type: "message", Message: &msg}
	payload, _ := json.Marshal(event)
	h.broadcast("conversation", conversationID, payload)
}

// AddRequestClient registers a websocket connection to a request room.
func (h *Hub) AddRequestClient(requestID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.requestRooms[requestID]; !ok {
		h.requestRooms[requestID] = make(map[*websocket.Conn]bool)
	}
	h.requestRooms[requestID][conn] = true
	if _, ok := h.requestConnInfo[requestID]; !ok {
		h.requestConnInfo[requestID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.requestConnInfo[requestID][conn] = info
}

// RemoveRequestClient removes a request websocket connection.
func (h *Hub) RemoveRequestClient(requestID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.requestRooms[requestID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.requestRooms, requestID)
		}
	}
	if infos, ok := h.requestConnInfo[requestID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.requestConnInfo, requestID)
		}
	}
}

// BroadcastRequestEvent notifies clients watching a request of a status
// or confirmation change, so the other party sees it without reloading.
func (h *Hub) BroadcastRequestEvent(requestID string, event models.RequestEvent) {
	payload, _ := json.Marshal(event)
	h.broadcast("request", requestID, payload)
}

// broadcast writes the payload to every connection in the room. The
// conn set is copied while the lock is held so membership changes never
// race the iteration; writes run under writeMu. Failed connections are
// dropped afterwards, outside both locks.
func (h *Hub) broadcast(kind string, resourceID string, payload []byte) {
	h.mu.RLock()
	rooms := h.conversationRooms
	if kind == "request" {
		rooms = h.requestRooms
	}
	conns := make([]*websocket.Conn, 0, len(rooms[resourceID]))
	for conn := range rooms[resourceID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	type writeFailure struct {
		conn *websocket.Conn
		err  error
	}
	var failed []writeFailure

	h.writeMu.Lock()
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			failed = append(failed, writeFailure{conn: conn, err: err})
		}
	}
	h.writeMu.Unlock()

	for _, f := range failed {
		f.conn.Close()
		h.publishWSError(kind, resourceID, f.conn, f.err)
		if kind == "request" {
			h.RemoveRequestClient(resourceID, f.conn)
		} else {
			h.RemoveConversationClient(resourceID, f.conn)
		}
	}
}

func (h *Hub) publishWSError(kind string, resourceID string, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(kind, resourceID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"resource_id": resourceID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id": info.UserID,
			"role":    info.Role,
			"ip":      info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsRoutingKey(kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent(kind, "ws_error")
}

func (h *Hub) getConnInfo(kind string, resourceID string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if kind == "conversation" {
		if infos, ok := h.conversationConnInfo[resourceID]; ok {
			info, exists := infos[conn]
			return info, exists
		}
		return ConnInfo{}, false
	}
	if infos, ok := h.requestConnInfo[resourceID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}

func wsRoutingKey(kind string) string {
	if kind == "request" {
		return "ws_events.requests"
	}
	return "ws_events.conversations"
}
