package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"adoption-service/internal/identity"
	"adoption-service/internal/models"
	"adoption-service/internal/repositories"
)

type PetRepositoryMock struct {
	mock.Mock
}

func (m *PetRepositoryMock) CreatePet(ctx context.Context, pet models.Pet) (models.Pet, error) {
	args := m.Called(ctx, pet)
	var created models.Pet
	if val := args.Get(0); val != nil {
		created = val.(models.Pet)
	}
	return created, args.Error(1)
}

func (m *PetRepositoryMock) GetPet(ctx context.Context, petID string) (models.Pet, error) {
	args := m.Called(ctx, petID)
	var pet models.Pet
	if val := args.Get(0); val != nil {
		pet = val.(models.Pet)
	}
	return pet, args.Error(1)
}

func (m *PetRepositoryMock) GetPetsByIDs(ctx context.Context, petIDs []string) ([]models.Pet, error) {
	args := m.Called(ctx, petIDs)
	var pets []models.Pet
	if val := args.Get(0); val != nil {
		pets = val.([]models.Pet)
	}
	return pets, args.Error(1)
}

func (m *PetRepositoryMock) ListPets(ctx context.Context, filter models.PetFilter) ([]models.Pet, error) {
	args := m.Called(ctx, filter)
	var pets []models.Pet
	if val := args.Get(0); val != nil {
		pets = val.([]models.Pet)
	}
	return pets, args.Error(1)
}

func (m *PetRepositoryMock) ListPetsByRescuer(ctx context.Context, rescuerID string) ([]models.Pet, error) {
	args := m.Called(ctx, rescuerID)
	var pets []models.Pet
	if val := args.Get(0); val != nil {
		pets = val.([]models.Pet)
	}
	return pets, args.Error(1)
}

func (m *PetRepositoryMock) UpdatePetFields(ctx context.Context, petID string, rescuerID string, patch repositories.PetPatch) (models.Pet, error) {
	args := m.Called(ctx, petID, rescuerID, patch)
	var pet models.Pet
	if val := args.Get(0); val != nil {
		pet = val.(models.Pet)
	}
	return pet, args.Error(1)
}

func (m *PetRepositoryMock) DeletePet(ctx context.Context, petID string, rescuerID string) error {
	args := m.Called(ctx, petID, rescuerID)
	return args.Error(0)
}

type RequestRepositoryMock struct {
	mock.Mock
}

func (m *RequestRepositoryMock) CreateRequest(ctx context.Context, adopterID string, petID string, message string) (models.AdoptionRequest, error) {
	args := m.Called(ctx, adopterID, petID, message)
	var req models.AdoptionRequest
	if val := args.Get(0); val != nil {
		req = val.(models.AdoptionRequest)
	}
	return req, args.Error(1)
}

func (m *RequestRepositoryMock) GetRequest(ctx context.Context, requestID string) (models.AdoptionRequest, error) {
	args := m.Called(ctx, requestID)
	var req models.AdoptionRequest
	if val := args.Get(0); val != nil {
		req = val.(models.AdoptionRequest)
	}
	return req, args.Error(1)
}

func (m *RequestRepositoryMock) ListByAdopter(ctx context.Context, adopterID string) ([]models.AdoptionRequest, error) {
	args := m.Called(ctx, adopterID)
	var reqs []models.AdoptionRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.AdoptionRequest)
	}
	return reqs, args.Error(1)
}

func (m *RequestRepositoryMock) ListByRescuer(ctx context.Context, rescuerID string) ([]models.AdoptionRequest, error) {
	args := m.Called(ctx, rescuerID)
	var reqs []models.AdoptionRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.AdoptionRequest)
	}
	return reqs, args.Error(1)
}

func (m *RequestRepositoryMock) HasActiveRequest(ctx context.Context, adopterID string, petID string) (bool, error) {
	args := m.Called(ctx, adopterID, petID)
	return args.Bool(0), args.Error(1)
}

func (m *RequestRepositoryMock) AcceptRequest(ctx context.Context, requestID string, rescuerID string) (models.AdoptionRequest, models.Conversation, error) {
	args := m.Called(ctx, requestID, rescuerID)
	var req models.AdoptionRequest
	if val := args.Get(0); val != nil {
		req = val.(models.AdoptionRequest)
	}
	var conv models.Conversation
	if val := args.Get(1); val != nil {
		conv = val.(models.Conversation)
	}
	return req, conv, args.Error(2)
}

func (m *RequestRepositoryMock) RejectRequest(ctx context.Context, requestID string) (models.AdoptionRequest, error) {
	args := m.Called(ctx, requestID)
	var req models.AdoptionRequest
	if val := args.Get(0); val != nil {
		req = val.(models.AdoptionRequest)
	}
	return req, args.Error(1)
}

func (m *RequestRepositoryMock) Confirm(ctx context.Context, requestID string, role models.Role, evidenceURL string) (models.AdoptionRequest, bool, error) {
	args := m.Called(ctx, requestID, role, evidenceURL)
	var req models.AdoptionRequest
	if val := args.Get(0); val != nil {
		req = val.(models.AdoptionRequest)
	}
	return req, args.Bool(1), args.Error(2)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) GetByRequest(ctx context.Context, requestID string) (models.Conversation, error) {
	args := m.Called(ctx, requestID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var convs []models.Conversation
	if val := args.Get(0); val != nil {
		convs = val.([]models.Conversation)
	}
	return convs, args.Error(1)
}

func (m *ConversationRepositoryMock) IsParticipant(ctx context.Context, conversationID string, userID string) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, conversationID string, senderID string, content string) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type SessionVerifierMock struct {
	mock.Mock
}

func (m *SessionVerifierMock) VerifySession(ctx context.Context, token string) (identity.Session, error) {
	args := m.Called(ctx, token)
	var session identity.Session
	if val := args.Get(0); val != nil {
		session = val.(identity.Session)
	}
	return session, args.Error(1)
}

type ProfileStoreMock struct {
	mock.Mock
}

func (m *ProfileStoreMock) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	args := m.Called(ctx, userID)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileStoreMock) BulkProfiles(ctx context.Context, userIDs []string) (map[string]models.Profile, error) {
	args := m.Called(ctx, userIDs)
	var profiles map[string]models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.(map[string]models.Profile)
	}
	return profiles, args.Error(1)
}

type PhotoStoreMock struct {
	mock.Mock
}

func (m *PhotoStoreMock) Upload(ctx context.Context, key string, contentType string, body io.Reader) (string, error) {
	args := m.Called(ctx, key, contentType, body)
	return args.String(0), args.Error(1)
}
