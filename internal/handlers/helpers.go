package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"adoption-service/internal/domain"
	"adoption-service/internal/middleware"
	"adoption-service/internal/models"
	"adoption-service/internal/telemetry"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func sessionUserID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

func sessionRole(c *gin.Context) models.Role {
	if val, ok := c.Get(middleware.RoleKey); ok {
		if role, ok := val.(models.Role); ok {
			return role
		}
	}
	return ""
}

func userIDFromContext(c *gin.Context) *string {
	if id := sessionUserID(c); id != "" {
		return &id
	}
	return nil
}

func emitAudit(c *gin.Context, emitter *telemetry.AuditEmitter, level, text string) {
	if emitter == nil {
		return
	}
	emitter.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

// respondError maps the error taxonomy onto HTTP statuses. Anything
// unclassified is a plain internal error.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthorization):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrState):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrTransient):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
