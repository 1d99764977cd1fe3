package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"adoption-service/internal/identity"
	"adoption-service/internal/observability"
	"adoption-service/internal/repositories"
)

// RequestWebSocketHandler pushes adoption request status and
// confirmation changes to the two involved parties.
type RequestWebSocketHandler struct {
	hub         *Hub
	requestRepo repositories.RequestRepository
	petRepo     repositories.PetRepository
	verifier    identity.SessionVerifier
}

// NewRequestWebSocketHandler constructs a RequestWebSocketHandler.
func NewRequestWebSocketHandler(hub *Hub, requestRepo repositories.RequestRepository, petRepo repositories.PetRepository, verifier identity.SessionVerifier) *RequestWebSocketHandler {
	return &RequestWebSocketHandler{hub: hub, requestRepo: requestRepo, petRepo: petRepo, verifier: verifier}
}

// Handle upgrades the connection and registers the client on the
// request's room. Only the adopter who filed the request and the
// rescuer owning its pet may subscribe.
func (h *RequestWebSocketHandler) Handle(c *gin.Context) {
	requestID := c.Param("request_id")

	ctx, span := otel.Tracer("adoption-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	session, err := sessionFromRequest(c, h.verifier)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	req, err := h.requestRepo.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRequestNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "request not found"})
		return
	}

	allowed := req.AdopterID == session.UserID
	if !allowed {
		pet, err := h.petRepo.GetPet(c.Request.Context(), req.PetID)
		if err == nil && pet.RescuerID == session.UserID {
			allowed = true
		}
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for request"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      session.UserID,
		Role:        session.Role,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddRequestClient(requestID, conn, info)

	observability.IncWSActive("request")
	observability.IncWSEvent("request", "ws_connect")
	publishWSLifecycle(ctx, "request", requestID, "ws_connect", info, "")

	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveRequestClient(requestID, conn)
			observability.DecWSActive("request")
			observability.IncWSEvent("request", "ws_disconnect")
			publishWSLifecycle(ctx, "request", requestID, "ws_disconnect", info, closeReason)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("request", "ws_error")
					publishWSLifecycle(ctx, "request", requestID, "ws_error", info, closeReason)
				}
				return
			}
		}
	}()
}
