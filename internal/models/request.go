package models

import (
	"encoding/json"
	"time"
)

// RequestStatus is an adoption request lifecycle state.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
)

// Active reports whether the status still blocks a new request for the
// same (adopter, pet) pair.
func (s RequestStatus) Active() bool {
	return s == RequestPending || s == RequestAccepted
}

// AdoptionRequest tracks one adopter's interest in one pet from
// submission through the two-party delivery confirmation. The
// confirmation flags are monotonic: once set they never reset.
// CompletedAt is a pointer so the struct stays free of custom marshal
// methods; a promoted MarshalJSON would swallow the sibling fields of
// any response struct embedding it.
type AdoptionRequest struct {
	ID                 string        `db:"id" json:"id"`
	AdopterID          string        `db:"adopter_id" json:"adopter_id"`
	PetID              string        `db:"pet_id" json:"pet_id"`
	Message            string        `db:"message" json:"message"`
	Status             RequestStatus `db:"status" json:"status"`
	ConfirmedByRescuer bool          `db:"confirmed_by_rescuer" json:"confirmed_by_rescuer"`
	ConfirmedByAdopter bool          `db:"confirmed_by_adopter" json:"confirmed_by_adopter"`
	EvidenceURL        string        `db:"evidence_url" json:"evidence_url,omitempty"`
	CompletedAt        *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
}

// Answers parses the stored questionnaire. Legacy rows hold a plain
// string instead of the structured mapping; for those ok is false and
// the caller renders Message verbatim.
func (r AdoptionRequest) Answers() (QuestionnaireAnswers, bool) {
	var answers QuestionnaireAnswers
	if err := json.Unmarshal([]byte(r.Message), &answers); err != nil || len(answers) == 0 {
		return nil, false
	}
	return answers, true
}

// RequestEvent is broadcast on a request's websocket room whenever its
// status or confirmation flags change.
type RequestEvent struct {
	Type    string           `json:"type"`
	Request *AdoptionRequest `json:"request,omitempty"`
}
