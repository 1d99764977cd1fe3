package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"adoption-service/internal/domain"
	"adoption-service/internal/identity"
	"adoption-service/internal/models"
	"adoption-service/internal/observability"
	"adoption-service/internal/repositories"
	"adoption-service/internal/telemetry"
	"adoption-service/internal/ws"
)

// ConversationHandler manages the chat channel opened for each
// accepted request.
type ConversationHandler struct {
	convRepo    repositories.ConversationRepository
	messageRepo repositories.MessageRepository
	requestRepo repositories.RequestRepository
	profiles    identity.ProfileStore
	hub         *ws.Hub
	audit       *telemetry.AuditEmitter
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(convRepo repositories.ConversationRepository, messageRepo repositories.MessageRepository, requestRepo repositories.RequestRepository, profiles identity.ProfileStore, hub *ws.Hub, audit *telemetry.AuditEmitter) *ConversationHandler {
	return &ConversationHandler{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		requestRepo: requestRepo,
		profiles:    profiles,
		hub:         hub,
		audit:       audit,
	}
}

// ListConversations returns the conversations the caller participates
// in, with the counterpart's profile resolved for display.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID := sessionUserID(c)

	convs, err := h.convRepo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	counterpartIDs := make([]string, 0, len(convs))
	for _, conv := range convs {
		counterpartIDs = append(counterpartIDs, conv.Counterpart(userID))
	}

	profileByID, err := h.profiles.BulkProfiles(c.Request.Context(), counterpartIDs)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load profiles"})
		return
	}

	type conversationResponse struct {
		models.Conversation
		Counterpart *models.Profile `json:"counterpart,omitempty"`
	}

	responses := make([]conversationResponse, 0, len(convs))
	for _, conv := range convs {
		resp := conversationResponse{Conversation: conv}
		if profile, ok := profileByID[conv.Counterpart(userID)]; ok {
			resp.Counterpart = &profile
		}
		responses = append(responses, resp)
	}

	c.JSON(http.StatusOK, gin.H{"conversations": responses})
}

// GetRequestConversation resolves the conversation opened for a
// request, so a party can jump from an accepted request to its chat.
func (h *ConversationHandler) GetRequestConversation(c *gin.Context) {
	requestID := c.Param("request_id")
	userID := sessionUserID(c)

	conv, err := h.convRepo.GetByRequest(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			respondError(c, domain.NotFoundf("no conversation for this request"))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}
	if !conv.HasParticipant(userID) {
		respondError(c, domain.Authorizationf("not a conversation participant"))
		return
	}

	c.JSON(http.StatusOK, conv)
}

// GetMessages returns the full ordered history for a conversation.
// Clients call this after every websocket (re)connect to reconcile
// anything missed while the subscription was down.
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	userID := sessionUserID(c)

	member, err := h.convRepo.IsParticipant(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		respondError(c, domain.Authorizationf("not a conversation participant"))
		return
	}

	msgs, err := h.messageRepo.ListMessages(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	senderIDs := make([]string, 0, len(msgs))
	seen := map[string]struct{}{}
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			senderIDs = append(senderIDs, m.SenderID)
		}
	}

	profileByID, err := h.profiles.BulkProfiles(c.Request.Context(), senderIDs)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load senders"})
		return
	}

	type messageResponse struct {
		models.Message
		SenderName string `json:"sender_name,omitempty"`
	}

	responses := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp := messageResponse{Message: m}
		if profile, ok := profileByID[m.SenderID]; ok {
			resp.SenderName = profile.FullName
		}
		responses = append(responses, resp)
	}

	c.JSON(http.StatusOK, gin.H{"messages": responses})
}

// PostMessage appends a chat message and fans it out to the
// conversation's live subscribers. The channel freezes once the parent
// request completes.
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	userID := sessionUserID(c)

	conv, err := h.convRepo.GetConversation(c.Request.Context(), conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			respondError(c, domain.NotFoundf("conversation not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}
	if !conv.HasParticipant(userID) {
		respondError(c, domain.Authorizationf("not a conversation participant"))
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.Validationf("%s", err.Error()))
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(c, domain.Validationf("message content is empty"))
		return
	}

	parent, err := h.requestRepo.GetRequest(c.Request.Context(), conv.RequestID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load request"})
		return
	}
	if parent.Status == models.RequestCompleted {
		respondError(c, domain.Statef("conversation is read-only after completion"))
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), conversationID, userID, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.hub.BroadcastMessage(conversationID, msg)
	_ = observability.PublishEvent(c.Request.Context(), "adoption_events.messages", observability.EventEnvelope{
		EventType: "adoption_events",
		EventName: observability.EventMessagePosted,
		Payload: map[string]interface{}{
			"conversation_id": conversationID,
			"message_id":      msg.ID,
			"sender_id":       msg.SenderID,
		},
	}, observability.BuildHeaders(requestIDFromContext(c), ""))
	emitAudit(c, h.audit, "INFO", "message posted")

	c.JSON(http.StatusCreated, msg)
}
