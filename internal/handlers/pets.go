package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"adoption-service/internal/domain"
	"adoption-service/internal/models"
	"adoption-service/internal/repositories"
)

// PetHandler manages pet listing endpoints.
type PetHandler struct {
	petRepo repositories.PetRepository
}

// NewPetHandler builds a PetHandler.
func NewPetHandler(petRepo repositories.PetRepository) *PetHandler {
	return &PetHandler{petRepo: petRepo}
}

// CreatePet publishes a new listing. Rescuers only.
func (h *PetHandler) CreatePet(c *gin.Context) {
	if sessionRole(c) != models.RoleRescuer {
		respondError(c, domain.Authorizationf("only rescuers can publish listings"))
		return
	}

	var req struct {
		Name        string   `json:"name" binding:"required"`
		Species     string   `json:"species" binding:"required"`
		Breed       string   `json:"breed"`
		AgeMonths   int      `json:"age_months" binding:"required"`
		Sex         string   `json:"sex" binding:"required"`
		Size        string   `json:"size" binding:"required"`
		Description string   `json:"description"`
		City        string   `json:"city" binding:"required"`
		Photos      []string `json:"photos"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.Validationf("%s", err.Error()))
		return
	}
	if len(req.Photos) > models.MaxPetPhotos {
		respondError(c, domain.Validationf("at most %d photos per listing", models.MaxPetPhotos))
		return
	}

	pet, err := h.petRepo.CreatePet(c.Request.Context(), models.Pet{
		RescuerID:   sessionUserID(c),
		Name:        req.Name,
		Species:     req.Species,
		Breed:       req.Breed,
		AgeMonths:   req.AgeMonths,
		Sex:         req.Sex,
		Size:        req.Size,
		Description: req.Description,
		City:        req.City,
		Photos:      pq.StringArray(req.Photos),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create listing"})
		return
	}

	c.JSON(http.StatusCreated, pet)
}

// ListPets serves the public catalog with optional filters.
func (h *PetHandler) ListPets(c *gin.Context) {
	filter := models.PetFilter{
		Species: c.Query("species"),
		Size:    c.Query("size"),
		Sex:     c.Query("sex"),
		City:    c.Query("city"),
	}
	if raw := c.Query("max_age_months"); raw != "" {
		maxAge, err := strconv.Atoi(raw)
		if err != nil || maxAge <= 0 {
			respondError(c, domain.Validationf("invalid max_age_months"))
			return
		}
		filter.MaxAgeMonths = maxAge
	}

	pets, err := h.petRepo.ListPets(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load listings"})
		return
	}
	if pets == nil {
		pets = []models.Pet{}
	}
	c.JSON(http.StatusOK, gin.H{"pets": pets})
}

// ListMyPets returns the authenticated rescuer's listings in any status.
func (h *PetHandler) ListMyPets(c *gin.Context) {
	if sessionRole(c) != models.RoleRescuer {
		respondError(c, domain.Authorizationf("only rescuers have listings"))
		return
	}

	pets, err := h.petRepo.ListPetsByRescuer(c.Request.Context(), sessionUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load listings"})
		return
	}
	if pets == nil {
		pets = []models.Pet{}
	}
	c.JSON(http.StatusOK, gin.H{"pets": pets})
}

// GetPet returns one listing.
func (h *PetHandler) GetPet(c *gin.Context) {
	pet, err := h.petRepo.GetPet(c.Request.Context(), c.Param("pet_id"))
	if err != nil {
		if errors.Is(err, repositories.ErrPetNotFound) {
			respondError(c, domain.NotFoundf("pet not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pet"})
		return
	}
	c.JSON(http.StatusOK, pet)
}

// UpdatePet applies an attribute patch. Owner only; status is not an
// attribute and never changes here.
func (h *PetHandler) UpdatePet(c *gin.Context) {
	petID := c.Param("pet_id")

	pet, err := h.petRepo.GetPet(c.Request.Context(), petID)
	if err != nil {
		if errors.Is(err, repositories.ErrPetNotFound) {
			respondError(c, domain.NotFoundf("pet not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pet"})
		return
	}
	if pet.RescuerID != sessionUserID(c) {
		respondError(c, domain.Authorizationf("only the owning rescuer can edit a listing"))
		return
	}

	var req struct {
		Name        *string  `json:"name"`
		Breed       *string  `json:"breed"`
		AgeMonths   *int     `json:"age_months"`
		Description *string  `json:"description"`
		City        *string  `json:"city"`
		Photos      []string `json:"photos"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.Validationf("%s", err.Error()))
		return
	}
	if len(req.Photos) > models.MaxPetPhotos {
		respondError(c, domain.Validationf("at most %d photos per listing", models.MaxPetPhotos))
		return
	}

	updated, err := h.petRepo.UpdatePetFields(c.Request.Context(), petID, sessionUserID(c), repositories.PetPatch{
		Name:        req.Name,
		Breed:       req.Breed,
		AgeMonths:   req.AgeMonths,
		Description: req.Description,
		City:        req.City,
		Photos:      req.Photos,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrPetNotFound) {
			respondError(c, domain.NotFoundf("pet not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update listing"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeletePet removes a listing. Owner only; deletion is refused while a
// pending or accepted request still references the pet, so in-flight
// adoptions are never orphaned.
func (h *PetHandler) DeletePet(c *gin.Context) {
	petID := c.Param("pet_id")

	pet, err := h.petRepo.GetPet(c.Request.Context(), petID)
	if err != nil {
		if errors.Is(err, repositories.ErrPetNotFound) {
			respondError(c, domain.NotFoundf("pet not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pet"})
		return
	}
	if pet.RescuerID != sessionUserID(c) {
		respondError(c, domain.Authorizationf("only the owning rescuer can delete a listing"))
		return
	}

	if err := h.petRepo.DeletePet(c.Request.Context(), petID, sessionUserID(c)); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPetHasActiveRequests):
			respondError(c, domain.Statef("listing has active adoption requests"))
		case errors.Is(err, repositories.ErrPetNotFound):
			respondError(c, domain.NotFoundf("pet not found"))
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete listing"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
