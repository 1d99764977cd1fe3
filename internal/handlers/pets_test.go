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
)

func setupPetRouter(handler *PetHandler, userID string, role models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.RoleKey, role)
		c.Next()
	})
	r.POST("/pets", handler.CreatePet)
	r.GET("/pets", handler.ListPets)
	r.GET("/my/pets", handler.ListMyPets)
	r.GET("/pets/:pet_id", handler.GetPet)
	r.PATCH("/pets/:pet_id", handler.UpdatePet)
	r.DELETE("/pets/:pet_id", handler.DeletePet)
	return r
}

func TestCreatePetSuccess(t *testing.T) {
	petRepo := new(mocks.PetRepositoryMock)
	handler := NewPetHandler(petRepo)
	router := setupPetRouter(handler, "rescuer-1", models.RoleRescuer)

	petRepo.On("CreatePet", mock.Anything, mock.MatchedBy(func(pet models.Pet) bool {
		return pet.RescuerID == "rescuer-1" && pet.Name == "Luna"
	})).Return(models.Pet{ID: "pet-1", RescuerID: "rescuer-1", Name: "Luna", Status: models.PetAvailable}, nil).Once()

	body := bytes.NewBufferString(`{"name":"Luna","species":"dog","age_months":8,"sex":"female","size":"medium","city":"Lima"}`)
	req := httptest.NewRequest(http.MethodPost, "/pets", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	petRepo.AssertExpectations(t)
}

func TestCreatePetAdopterForbidden(t *testing.T) {
	handler := NewPetHandler(new(mocks.PetRepositoryMock))
	router := setupPetRouter(handler, "adopter-1", models.RoleAdopter)

	body := bytes.NewBufferString(`{"name":"Luna","species":"dog","age_months":8,"sex":"female","size":"medium","city":"Lima"}`)
	req := httptest.NewRequest(http.MethodPost, "/pets", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreatePetTooManyPhotos(t *testing.T) {
	handler := NewPetHandler(new(mocks.PetRepositoryMock))
	router := setupPetRouter(handler, "rescuer-1", models.RoleRescuer)

	body := bytes.NewBufferString(`{"name":"Luna","species":"dog","age_months":8,"sex":"female","size":"medium","city":"Lima","photos":["a","b","c","d","e"]}`)
	req := httptest.NewRequest(http.MethodPost, "/pets", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPetsWithFilters(t *testing.T) {
	petRepo := new(mocks.PetRepositoryMock)
	handler := NewPetHandler(petRepo)
	router := setupPetRouter(handler, "", "")

	petRepo.On("ListPets", mock.Anything, models.PetFilter{Species: "cat", City: "Lima", MaxAgeMonths: 24}).
		Return([]models.Pet{{ID: "pet-1", Species: "cat"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/pets?species=cat&city=Lima&max_age_months=24", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	petRepo.AssertExpectations(t)
}

func TestListPetsInvalidMaxAge(t *testing.T) {
	handler := NewPetHandler(new(mocks.PetRepositoryMock))
	router := setupPetRouter(handler, "", "")

	req := httptest.NewRequest(http.MethodGet, "/pets?max_age_months=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMyPetsEmpty(t *testing.T) {
	petRepo := new(mocks.PetRepositoryMock)
	handler := NewPetHandler(petRepo)
	router := setupPetRouter(handler, "rescuer-1", models.RoleRescuer)

	petRepo.On("ListPetsByRescuer", mock.Anything, "rescuer-1").Return(([]models.Pet)(nil), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/my/pets", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Pets []models.Pet `json:"pets"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotNil(t, resp.Pets)
	assert.Empty(t, resp.Pets)
}

func TestGetPetNotFound(t *testing.T) {
	petRepo := new(mocks.PetRepositoryMock)
	handler := NewPetHandler(petRepo)
	router := setupPetRouter(handler, "", "")

	petRepo.On("GetPet", mock.Anything, "missing").Return(models.Pet{}, repositories.ErrPetNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/pets/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdatePetNotOwner(t *testing.T) {
	petRepo := new(mocks.PetRepositoryMock)
	handler := NewPetHandler(petRepo)
	router := setupPetRouter(handler, "rescuer-2", models.RoleRescuer)

	petRepo.On("GetPet", mock.Anything, "pet-1").Return(models.Pet{ID: "pet-1", RescuerID: "rescuer-1"}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/pets/pet-1", bytes.NewBufferString(`{"city":"Cusco"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	petRepo.AssertNotCalled(t, "UpdatePetFields", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePetSuccess(t *testing.T) {
	petRepo := new(mocks.PetRepositoryMock)
	handler := NewPetHandler(petRepo)
	router := setupPetRouter(handler, "rescuer-1", models.RoleRescuer)

	petRepo.On("GetPet", mock.Anything, "pet-1").Return(models.Pet{ID: "pet-1", RescuerID: "rescuer-1"}, nil).Once()
	petRepo.On("UpdatePetFields", mock.Anything, "pet-1", "rescuer-1", mock.MatchedBy(func(patch repositories.PetPatch) bool {
		return patch.City != nil && *patch.City == "Cusco"
	})).Return(models.Pet{ID: "pet-1", RescuerID: "rescuer-1", City: "Cusco"}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/pets/pet-1", bytes.NewBufferString(`{"city":"Cusco"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	petRepo.AssertExpectations(t)
}

func TestDeletePetBlockedByActiveRequests(t *testing.T) {
	petRepo := new(mocks.PetRepositoryMock)
	handler := NewPetHandler(petRepo)
	router := setupPetRouter(handler, "rescuer-1", models.RoleRescuer)

	petRepo.On("GetPet", mock.Anything, "pet-1").Return(models.Pet{ID: "pet-1", RescuerID: "rescuer-1"}, nil).Once()
	petRepo.On("DeletePet", mock.Anything, "pet-1", "rescuer-1").Return(repositories.ErrPetHasActiveRequests).Once()

	req := httptest.NewRequest(http.MethodDelete, "/pets/pet-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	petRepo.AssertExpectations(t)
}

func TestDeletePetSuccess(t *testing.T) {
	petRepo := new(mocks.PetRepositoryMock)
	handler := NewPetHandler(petRepo)
	router := setupPetRouter(handler, "rescuer-1", models.RoleRescuer)

	petRepo.On("GetPet", mock.Anything, "pet-1").Return(models.Pet{ID: "pet-1", RescuerID: "rescuer-1"}, nil).Once()
	petRepo.On("DeletePet", mock.Anything, "pet-1", "rescuer-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/pets/pet-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	petRepo.AssertExpectations(t)
}
