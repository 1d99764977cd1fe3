package ws

import (
	"time"

	"adoption-service/internal/models"
)

type ConnInfo struct {
	ConnID      string
	UserID      string
	Role        models.Role
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
