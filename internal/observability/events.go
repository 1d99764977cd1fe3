package observability

// Domain event names published to the audit exchange.
const (
	EventRequestSubmitted  = "request_submitted"
	EventRequestAccepted   = "request_accepted"
	EventRequestRejected   = "request_rejected"
	EventDeliveryConfirmed = "delivery_confirmed"
	EventAdoptionCompleted = "adoption_completed"
	EventMessagePosted     = "message_posted"
)

type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
