package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"adoption-service/internal/middleware"
	"adoption-service/internal/mocks"
	"adoption-service/internal/models"
	"adoption-service/internal/repositories"
	"adoption-service/internal/ws"
)

func setupConversationRouter(handler *ConversationHandler, userID string, role models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.RoleKey, role)
		c.Next()
	})
	r.GET("/conversations", handler.ListConversations)
	r.GET("/requests/:request_id/conversation", handler.GetRequestConversation)
	r.GET("/conversations/:conversation_id/messages", handler.GetMessages)
	r.POST("/conversations/:conversation_id/messages", handler.PostMessage)
	return r
}

func TestListConversationsResolvesCounterparts(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	profiles := new(mocks.ProfileStoreMock)
	handler := NewConversationHandler(convRepo, new(mocks.MessageRepositoryMock), new(mocks.RequestRepositoryMock), profiles, ws.NewHub(), nil)
	router := setupConversationRouter(handler, "adopter-1", models.RoleAdopter)

	convRepo.On("ListForUser", mock.Anything, "adopter-1").
		Return([]models.Conversation{{ID: "conv-1", RequestID: "req-1", RescuerID: "rescuer-1", AdopterID: "adopter-1"}}, nil).Once()
	profiles.On("BulkProfiles", mock.Anything, []string{"rescuer-1"}).
		Return(map[string]models.Profile{"rescuer-1": {ID: "rescuer-1", FullName: "Refugio Sur"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Conversations []struct {
			ID          string `json:"id"`
			Counterpart *struct {
				FullName string `json:"full_name"`
			} `json:"counterpart"`
		} `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Conversations, 1)
	require.NotNil(t, resp.Conversations[0].Counterpart)
	assert.Equal(t, "Refugio Sur", resp.Conversations[0].Counterpart.FullName)

	convRepo.AssertExpectations(t)
	profiles.AssertExpectations(t)
}

func TestGetMessagesNotParticipant(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewConversationHandler(convRepo, messageRepo, new(mocks.RequestRepositoryMock), new(mocks.ProfileStoreMock), ws.NewHub(), nil)
	router := setupConversationRouter(handler, "stranger-1", models.RoleAdopter)

	convRepo.On("IsParticipant", mock.Anything, "conv-1", "stranger-1").Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/conv-1/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messageRepo.AssertNotCalled(t, "ListMessages", mock.Anything, mock.Anything)
}

func TestGetMessagesOrderedHistory(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	profiles := new(mocks.ProfileStoreMock)
	handler := NewConversationHandler(convRepo, messageRepo, new(mocks.RequestRepositoryMock), profiles, ws.NewHub(), nil)
	router := setupConversationRouter(handler, "adopter-1", models.RoleAdopter)

	convRepo.On("IsParticipant", mock.Anything, "conv-1", "adopter-1").Return(true, nil).Once()
	messageRepo.On("ListMessages", mock.Anything, "conv-1").
		Return([]models.Message{
			{ID: "msg-1", ConversationID: "conv-1", SenderID: "rescuer-1", Content: "hola", Seq: 1},
			{ID: "msg-2", ConversationID: "conv-1", SenderID: "adopter-1", Content: "hola!", Seq: 2},
		}, nil).Once()
	profiles.On("BulkProfiles", mock.Anything, []string{"rescuer-1", "adopter-1"}).
		Return(map[string]models.Profile{
			"rescuer-1": {ID: "rescuer-1", FullName: "Refugio Sur"},
			"adopter-1": {ID: "adopter-1", FullName: "Ana"},
		}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/conv-1/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []struct {
			ID         string `json:"id"`
			SenderName string `json:"sender_name"`
		} `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "msg-1", resp.Messages[0].ID)
	assert.Equal(t, "Refugio Sur", resp.Messages[0].SenderName)

	convRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
	profiles.AssertExpectations(t)
}

func TestPostMessageSuccess(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	requestRepo := new(mocks.RequestRepositoryMock)
	handler := NewConversationHandler(convRepo, messageRepo, requestRepo, new(mocks.ProfileStoreMock), ws.NewHub(), nil)
	router := setupConversationRouter(handler, "adopter-1", models.RoleAdopter)

	convRepo.On("GetConversation", mock.Anything, "conv-1").
		Return(models.Conversation{ID: "conv-1", RequestID: "req-1", RescuerID: "rescuer-1", AdopterID: "adopter-1"}, nil).Once()
	requestRepo.On("GetRequest", mock.Anything, "req-1").
		Return(models.AdoptionRequest{ID: "req-1", Status: models.RequestAccepted}, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, "conv-1", "adopter-1", "hola").
		Return(models.Message{ID: "msg-1", ConversationID: "conv-1", SenderID: "adopter-1", Content: "hola", Seq: 1}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/conv-1/messages", bytes.NewBufferString(`{"content":"hola"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	convRepo.AssertExpectations(t)
	requestRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestPostMessageEmptyContent(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewConversationHandler(convRepo, messageRepo, new(mocks.RequestRepositoryMock), new(mocks.ProfileStoreMock), ws.NewHub(), nil)
	router := setupConversationRouter(handler, "adopter-1", models.RoleAdopter)

	convRepo.On("GetConversation", mock.Anything, "conv-1").
		Return(models.Conversation{ID: "conv-1", RequestID: "req-1", RescuerID: "rescuer-1", AdopterID: "adopter-1"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/conv-1/messages", bytes.NewBufferString(`{"content":"   "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messageRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostMessageNotParticipant(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.MessageRepositoryMock), new(mocks.RequestRepositoryMock), new(mocks.ProfileStoreMock), ws.NewHub(), nil)
	router := setupConversationRouter(handler, "stranger-1", models.RoleAdopter)

	convRepo.On("GetConversation", mock.Anything, "conv-1").
		Return(models.Conversation{ID: "conv-1", RequestID: "req-1", RescuerID: "rescuer-1", AdopterID: "adopter-1"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/conv-1/messages", bytes.NewBufferString(`{"content":"hola"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPostMessageFrozenAfterCompletion(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	requestRepo := new(mocks.RequestRepositoryMock)
	handler := NewConversationHandler(convRepo, messageRepo, requestRepo, new(mocks.ProfileStoreMock), ws.NewHub(), nil)
	router := setupConversationRouter(handler, "adopter-1", models.RoleAdopter)

	convRepo.On("GetConversation", mock.Anything, "conv-1").
		Return(models.Conversation{ID: "conv-1", RequestID: "req-1", RescuerID: "rescuer-1", AdopterID: "adopter-1"}, nil).Once()
	requestRepo.On("GetRequest", mock.Anything, "req-1").
		Return(models.AdoptionRequest{ID: "req-1", Status: models.RequestCompleted}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/conv-1/messages", bytes.NewBufferString(`{"content":"hola"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	messageRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetRequestConversation(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.MessageRepositoryMock), new(mocks.RequestRepositoryMock), new(mocks.ProfileStoreMock), ws.NewHub(), nil)
	router := setupConversationRouter(handler, "adopter-1", models.RoleAdopter)

	convRepo.On("GetByRequest", mock.Anything, "req-1").
		Return(models.Conversation{ID: "conv-1", RequestID: "req-1", RescuerID: "rescuer-1", AdopterID: "adopter-1"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/requests/req-1/conversation", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var conv models.Conversation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&conv))
	assert.Equal(t, "conv-1", conv.ID)
	convRepo.AssertExpectations(t)
}

func TestGetRequestConversationNotParticipant(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.MessageRepositoryMock), new(mocks.RequestRepositoryMock), new(mocks.ProfileStoreMock), ws.NewHub(), nil)
	router := setupConversationRouter(handler, "stranger-1", models.RoleAdopter)

	convRepo.On("GetByRequest", mock.Anything, "req-1").
		Return(models.Conversation{ID: "conv-1", RequestID: "req-1", RescuerID: "rescuer-1", AdopterID: "adopter-1"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/requests/req-1/conversation", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetRequestConversationNotFound(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.MessageRepositoryMock), new(mocks.RequestRepositoryMock), new(mocks.ProfileStoreMock), ws.NewHub(), nil)
	router := setupConversationRouter(handler, "adopter-1", models.RoleAdopter)

	convRepo.On("GetByRequest", mock.Anything, "req-9").
		Return(models.Conversation{}, repositories.ErrConversationNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/requests/req-9/conversation", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
