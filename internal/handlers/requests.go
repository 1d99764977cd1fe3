package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"adoption-service/internal/domain"
	"adoption-service/internal/identity"
	"adoption-service/internal/models"
	"adoption-service/internal/observability"
	"adoption-service/internal/repositories"
	"adoption-service/internal/telemetry"
	"adoption-service/internal/ws"
)

const adoptionEventsRoutingKey = "adoption_events.requests"

// RequestHandler manages the adoption request lifecycle: submission,
// accept/reject and the two-party delivery confirmation.
type RequestHandler struct {
	requestRepo repositories.RequestRepository
	petRepo     repositories.PetRepository
	profiles    identity.ProfileStore
	hub         *ws.Hub
	audit       *telemetry.AuditEmitter
}

// NewRequestHandler builds a RequestHandler.
func NewRequestHandler(requestRepo repositories.RequestRepository, petRepo repositories.PetRepository, profiles identity.ProfileStore, hub *ws.Hub, audit *telemetry.AuditEmitter) *RequestHandler {
	return &RequestHandler{
		requestRepo: requestRepo,
		petRepo:     petRepo,
		profiles:    profiles,
		hub:         hub,
		audit:       audit,
	}
}

// SubmitRequest files a new adoption request for a pet. Adopters only;
// the questionnaire must answer every required field and the pet must
// still be available.
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	if sessionRole(c) != models.RoleAdopter {
		respondError(c, domain.Authorizationf("only adopters can request adoptions"))
		return
	}
	adopterID := sessionUserID(c)
	petID := c.Param("pet_id")

	var req struct {
		Answers models.QuestionnaireAnswers `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.Validationf("%s", err.Error()))
		return
	}
	if missing := req.Answers.Validate(); len(missing) > 0 {
		respondError(c, domain.Validationf("missing answers: %v", missing))
		return
	}

	pet, err := h.petRepo.GetPet(c.Request.Context(), petID)
	if err != nil {
		if errors.Is(err, repositories.ErrPetNotFound) {
			respondError(c, domain.NotFoundf("pet not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pet"})
		return
	}
	if pet.Status != models.PetAvailable {
		respondError(c, domain.Validationf("pet is not available for adoption"))
		return
	}

	if exists, err := h.requestRepo.HasActiveRequest(c.Request.Context(), adopterID, petID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check existing requests"})
		return
	} else if exists {
		respondError(c, domain.Validationf("an active request for this pet already exists"))
		return
	}

	message, err := req.Answers.Serialize()
	if err != nil {
		respondError(c, domain.Validationf("invalid questionnaire"))
		return
	}

	created, err := h.requestRepo.CreateRequest(c.Request.Context(), adopterID, petID, message)
	if err != nil {
		// The partial unique index closes the check/insert race.
		if errors.Is(err, repositories.ErrDuplicateActiveRequest) {
			respondError(c, domain.Validationf("an active request for this pet already exists"))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create request"})
		return
	}

	observability.IncTransition("submitted")
	h.publishLifecycleEvent(c, observability.EventRequestSubmitted, created)
	emitAudit(c, h.audit, "INFO", "adoption request submitted")
	c.JSON(http.StatusCreated, created)
}

// ListRequests returns the caller's view of the request queue: an
// adopter sees their own submissions with the pet attached, a rescuer
// sees incoming requests for their pets with the adopter's profile.
func (h *RequestHandler) ListRequests(c *gin.Context) {
	userID := sessionUserID(c)

	var (
		requests []models.AdoptionRequest
		err      error
	)
	if sessionRole(c) == models.RoleRescuer {
		requests, err = h.requestRepo.ListByRescuer(c.Request.Context(), userID)
	} else {
		requests, err = h.requestRepo.ListByAdopter(c.Request.Context(), userID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load requests"})
		return
	}

	petIDs := make([]string, 0, len(requests))
	adopterIDs := make([]string, 0, len(requests))
	seenPets := map[string]struct{}{}
	seenAdopters := map[string]struct{}{}
	for _, req := range requests {
		if _, ok := seenPets[req.PetID]; !ok {
			seenPets[req.PetID] = struct{}{}
			petIDs = append(petIDs, req.PetID)
		}
		if _, ok := seenAdopters[req.AdopterID]; !ok {
			seenAdopters[req.AdopterID] = struct{}{}
			adopterIDs = append(adopterIDs, req.AdopterID)
		}
	}

	pets, err := h.petRepo.GetPetsByIDs(c.Request.Context(), petIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pets"})
		return
	}
	petByID := make(map[string]models.Pet, len(pets))
	for _, pet := range pets {
		petByID[pet.ID] = pet
	}

	var adopterByID map[string]models.Profile
	if sessionRole(c) == models.RoleRescuer {
		adopterByID, err = h.profiles.BulkProfiles(c.Request.Context(), adopterIDs)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load adopter profiles"})
			return
		}
	}

	type requestResponse struct {
		models.AdoptionRequest
		Pet     *models.Pet     `json:"pet,omitempty"`
		Adopter *models.Profile `json:"adopter,omitempty"`
	}

	responses := make([]requestResponse, 0, len(requests))
	for _, req := range requests {
		resp := requestResponse{AdoptionRequest: req}
		if pet, ok := petByID[req.PetID]; ok {
			resp.Pet = &pet
		}
		if profile, ok := adopterByID[req.AdopterID]; ok {
			resp.Adopter = &profile
		}
		responses = append(responses, resp)
	}

	c.JSON(http.StatusOK, gin.H{"requests": responses})
}

// AcceptRequest moves a pending request to accepted, flips the pet to
// in_progress and opens the conversation, all in one transaction.
func (h *RequestHandler) AcceptRequest(c *gin.Context) {
	req, ok := h.loadOwnedRequest(c)
	if !ok {
		return
	}

	accepted, conv, err := h.requestRepo.AcceptRequest(c.Request.Context(), req.ID, sessionUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrRequestNotPending):
			respondError(c, domain.Statef("request is no longer pending"))
		case errors.Is(err, repositories.ErrPetNotAdoptable):
			respondError(c, domain.Statef("pet is no longer adoptable"))
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not accept request"})
		}
		return
	}

	observability.IncTransition("accepted")
	h.publishLifecycleEvent(c, observability.EventRequestAccepted, accepted)
	h.hub.BroadcastRequestEvent(accepted.ID, models.RequestEvent{Type: "accepted", Request: &accepted})
	emitAudit(c, h.audit, "INFO", "adoption request accepted")

	c.JSON(http.StatusOK, gin.H{"request": accepted, "conversation": conv})
}

// RejectRequest moves a pending request to rejected. The pet is untouched.
func (h *RequestHandler) RejectRequest(c *gin.Context) {
	req, ok := h.loadOwnedRequest(c)
	if !ok {
		return
	}

	rejected, err := h.requestRepo.RejectRequest(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotPending) {
			respondError(c, domain.Statef("request is no longer pending"))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reject request"})
		return
	}

	observability.IncTransition("rejected")
	h.publishLifecycleEvent(c, observability.EventRequestRejected, rejected)
	h.hub.BroadcastRequestEvent(rejected.ID, models.RequestEvent{Type: "rejected", Request: &rejected})
	emitAudit(c, h.audit, "INFO", "adoption request rejected")

	c.JSON(http.StatusOK, gin.H{"request": rejected})
}

// ConfirmDelivery records the caller's half of the handoff
// confirmation. The rescuer must attach an evidence photo URL; the
// adopter confirms bare. Once both flags hold the request completes and
// the pet becomes adopted. Re-confirming, or confirming an already
// completed request, is a no-op.
func (h *RequestHandler) ConfirmDelivery(c *gin.Context) {
	requestID := c.Param("request_id")
	userID := sessionUserID(c)

	req, err := h.requestRepo.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			respondError(c, domain.NotFoundf("request not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load request"})
		return
	}

	var actorRole models.Role
	switch {
	case req.AdopterID == userID:
		actorRole = models.RoleAdopter
	default:
		pet, err := h.petRepo.GetPet(c.Request.Context(), req.PetID)
		if err != nil || pet.RescuerID != userID {
			respondError(c, domain.Authorizationf("not a party to this request"))
			return
		}
		actorRole = models.RoleRescuer
	}

	if req.Status == models.RequestCompleted {
		c.JSON(http.StatusOK, gin.H{"request": req, "completed": true})
		return
	}
	if req.Status != models.RequestAccepted {
		respondError(c, domain.Statef("request must be accepted before confirming delivery"))
		return
	}

	var body struct {
		EvidenceURL string `json:"evidence_url"`
	}
	// The adopter confirms with an empty body; a decode failure only
	// matters when the rescuer's evidence reference is required below.
	_ = c.ShouldBindJSON(&body)

	alreadyConfirmed := (actorRole == models.RoleRescuer && req.ConfirmedByRescuer) ||
		(actorRole == models.RoleAdopter && req.ConfirmedByAdopter)
	if alreadyConfirmed {
		c.JSON(http.StatusOK, gin.H{"request": req, "completed": false})
		return
	}

	if actorRole == models.RoleRescuer && body.EvidenceURL == "" {
		respondError(c, domain.Validationf("an evidence photo is required to confirm delivery"))
		return
	}

	confirmed, completedNow, err := h.requestRepo.Confirm(c.Request.Context(), req.ID, actorRole, body.EvidenceURL)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotAccepted) {
			// Lost a race against completion: re-read and report the
			// terminal state instead of failing the no-op.
			if current, getErr := h.requestRepo.GetRequest(c.Request.Context(), req.ID); getErr == nil && current.Status == models.RequestCompleted {
				c.JSON(http.StatusOK, gin.H{"request": current, "completed": true})
				return
			}
			respondError(c, domain.Statef("request is not accepted"))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record confirmation"})
		return
	}

	observability.IncTransition("confirmed")
	h.publishLifecycleEvent(c, observability.EventDeliveryConfirmed, confirmed)
	h.hub.BroadcastRequestEvent(confirmed.ID, models.RequestEvent{Type: "confirmation", Request: &confirmed})
	emitAudit(c, h.audit, "INFO", "delivery confirmed")

	if completedNow {
		observability.IncTransition("completed")
		h.publishLifecycleEvent(c, observability.EventAdoptionCompleted, confirmed)
		h.hub.BroadcastRequestEvent(confirmed.ID, models.RequestEvent{Type: "completed", Request: &confirmed})
		emitAudit(c, h.audit, "INFO", "adoption completed")
	}

	c.JSON(http.StatusOK, gin.H{"request": confirmed, "completed": completedNow})
}

// loadOwnedRequest fetches the request and verifies the caller is the
// rescuer owning its pet. Accept and reject share this guard.
func (h *RequestHandler) loadOwnedRequest(c *gin.Context) (models.AdoptionRequest, bool) {
	requestID := c.Param("request_id")

	req, err := h.requestRepo.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			respondError(c, domain.NotFoundf("request not found"))
			return models.AdoptionRequest{}, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load request"})
		return models.AdoptionRequest{}, false
	}

	pet, err := h.petRepo.GetPet(c.Request.Context(), req.PetID)
	if err != nil {
		if errors.Is(err, repositories.ErrPetNotFound) {
			respondError(c, domain.NotFoundf("pet not found"))
			return models.AdoptionRequest{}, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pet"})
		return models.AdoptionRequest{}, false
	}
	if pet.RescuerID != sessionUserID(c) {
		respondError(c, domain.Authorizationf("only the rescuer owning the pet can manage this request"))
		return models.AdoptionRequest{}, false
	}

	return req, true
}

func (h *RequestHandler) publishLifecycleEvent(c *gin.Context, eventName string, req models.AdoptionRequest) {
	_ = observability.PublishEvent(c.Request.Context(), adoptionEventsRoutingKey, observability.EventEnvelope{
		EventType: "adoption_events",
		EventName: eventName,
		Payload: map[string]interface{}{
			"request_id":           req.ID,
			"pet_id":               req.PetID,
			"adopter_id":           req.AdopterID,
			"status":               req.Status,
			"confirmed_by_rescuer": req.ConfirmedByRescuer,
			"confirmed_by_adopter": req.ConfirmedByAdopter,
		},
	}, observability.BuildHeaders(requestIDFromContext(c), ""))
}
