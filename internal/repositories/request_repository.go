package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"adoption-service/internal/models"
)

var (
	ErrRequestNotFound = errors.New("request not found")
	// ErrDuplicateActiveRequest fires when the adopter already has a
	// pending or accepted request for the same pet.
	ErrDuplicateActiveRequest = errors.New("active request already exists")
	// ErrRequestNotPending is returned when accept/reject loses a race
	// or targets a request past the pending state.
	ErrRequestNotPending = errors.New("request is not pending")
	// ErrRequestNotAccepted is returned when a confirmation targets a
	// request outside the accepted state.
	ErrRequestNotAccepted = errors.New("request is not accepted")
	// ErrPetNotAdoptable guards the pet status ladder during accept.
	ErrPetNotAdoptable = errors.New("pet is not adoptable")
)

const requestColumns = `id, adopter_id, pet_id, message, status, confirmed_by_rescuer, confirmed_by_adopter, evidence_url, completed_at, created_at`

const uniqueViolation = "23505"

// RequestRepository owns every adoption request state transition. All
// status and confirmation flag writes go through conditional updates
// here; nothing else mutates those columns.
type RequestRepository interface {
	CreateRequest(ctx context.Context, adopterID string, petID string, message string) (models.AdoptionRequest, error)
	GetRequest(ctx context.Context, requestID string) (models.AdoptionRequest, error)
	ListByAdopter(ctx context.Context, adopterID string) ([]models.AdoptionRequest, error)
	ListByRescuer(ctx context.Context, rescuerID string) ([]models.AdoptionRequest, error)
	HasActiveRequest(ctx context.Context, adopterID string, petID string) (bool, error)
	AcceptRequest(ctx context.Context, requestID string, rescuerID string) (models.AdoptionRequest, models.Conversation, error)
	RejectRequest(ctx context.Context, requestID string) (models.AdoptionRequest, error)
	Confirm(ctx context.Context, requestID string, role models.Role, evidenceURL string) (models.AdoptionRequest, bool, error)
}

// RequestRepo is a sqlx implementation of RequestRepository.
type RequestRepo struct {
	db *sqlx.DB
}

// NewRequestRepo constructs a RequestRepo.
func NewRequestRepo(db *sqlx.DB) *RequestRepo {
	return &RequestRepo{db: db}
}

// CreateRequest inserts a pending request. The partial unique index on
// active (adopter, pet) pairs turns a duplicate submission race into
// ErrDuplicateActiveRequest instead of a second row.
func (r *RequestRepo) CreateRequest(ctx context.Context, adopterID string, petID string, message string) (models.AdoptionRequest, error) {
	var req models.AdoptionRequest
	err := r.db.QueryRowxContext(ctx, `INSERT INTO adoption_requests (id, adopter_id, pet_id, message)
        VALUES ($1, $2, $3, $4)
        RETURNING `+requestColumns,
		uuid.NewString(), adopterID, petID, message).
		StructScan(&req)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.AdoptionRequest{}, ErrDuplicateActiveRequest
		}
		return models.AdoptionRequest{}, err
	}
	return req, nil
}

// GetRequest fetches a request by id.
func (r *RequestRepo) GetRequest(ctx context.Context, requestID string) (models.AdoptionRequest, error) {
	var req models.AdoptionRequest
	err := r.db.GetContext(ctx, &req, `SELECT `+requestColumns+` FROM adoption_requests WHERE id=$1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AdoptionRequest{}, ErrRequestNotFound
	}
	return req, err
}

// ListByAdopter returns the adopter's requests, newest first.
func (r *RequestRepo) ListByAdopter(ctx context.Context, adopterID string) ([]models.AdoptionRequest, error) {
	var reqs []models.AdoptionRequest
	err := r.db.SelectContext(ctx, &reqs, `SELECT `+requestColumns+` FROM adoption_requests WHERE adopter_id=$1 ORDER BY created_at DESC`, adopterID)
	return reqs, err
}

// ListByRescuer returns requests targeting any pet the rescuer owns.
func (r *RequestRepo) ListByRescuer(ctx context.Context, rescuerID string) ([]models.AdoptionRequest, error) {
	query := `SELECT ar.id, ar.adopter_id, ar.pet_id, ar.message, ar.status, ar.confirmed_by_rescuer, ar.confirmed_by_adopter, ar.evidence_url, ar.completed_at, ar.created_at
        FROM adoption_requests ar
        JOIN pets p ON p.id = ar.pet_id
        WHERE p.rescuer_id=$1
        ORDER BY ar.created_at DESC`
	var reqs []models.AdoptionRequest
	err := r.db.SelectContext(ctx, &reqs, query, rescuerID)
	return reqs, err
}

// HasActiveRequest reports whether a pending or accepted request exists
// for the pair. The unique index remains the authoritative guard; this
// is the cheap pre-check.
func (r *RequestRepo) HasActiveRequest(ctx context.Context, adopterID string, petID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM adoption_requests WHERE adopter_id=$1 AND pet_id=$2 AND status IN ('pending', 'accepted'))`, adopterID, petID)
	return exists, err
}

// AcceptRequest flips pending->accepted, moves the pet to in_progress
// and opens the conversation, all in one transaction. Exactly one of
// two racing accepts wins; the loser sees ErrRequestNotPending from the
// conditional update.
func (r *RequestRepo) AcceptRequest(ctx context.Context, requestID string, rescuerID string) (models.AdoptionRequest, models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.AdoptionRequest{}, models.Conversation{}, err
	}
	defer tx.Rollback()

	var req models.AdoptionRequest
	err = tx.QueryRowxContext(ctx, `UPDATE adoption_requests SET status='accepted'
        WHERE id=$1 AND status='pending'
        RETURNING `+requestColumns, requestID).
		StructScan(&req)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AdoptionRequest{}, models.Conversation{}, ErrRequestNotPending
	}
	if err != nil {
		return models.AdoptionRequest{}, models.Conversation{}, err
	}

	// The pet must not already be adopted; in_progress is tolerated so a
	// second accepted request for the same pet does not move it backward.
	res, err := tx.ExecContext(ctx, `UPDATE pets SET status='in_progress' WHERE id=$1 AND status IN ('available', 'in_progress')`, req.PetID)
	if err != nil {
		return models.AdoptionRequest{}, models.Conversation{}, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return models.AdoptionRequest{}, models.Conversation{}, err
	}
	if count == 0 {
		return models.AdoptionRequest{}, models.Conversation{}, ErrPetNotAdoptable
	}

	var conv models.Conversation
	err = tx.QueryRowxContext(ctx, `INSERT INTO conversations (id, request_id, rescuer_id, adopter_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, request_id, rescuer_id, adopter_id, created_at`,
		uuid.NewString(), req.ID, rescuerID, req.AdopterID).
		StructScan(&conv)
	if err != nil {
		return models.AdoptionRequest{}, models.Conversation{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.AdoptionRequest{}, models.Conversation{}, err
	}
	return req, conv, nil
}

// RejectRequest flips pending->rejected with no pet side effects.
func (r *RequestRepo) RejectRequest(ctx context.Context, requestID string) (models.AdoptionRequest, error) {
	var req models.AdoptionRequest
	err := r.db.QueryRowxContext(ctx, `UPDATE adoption_requests SET status='rejected'
        WHERE id=$1 AND status='pending'
        RETURNING `+requestColumns, requestID).
		StructScan(&req)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AdoptionRequest{}, ErrRequestNotPending
	}
	return req, err
}

// Confirm records one party's delivery confirmation and completes the
// request once both flags hold. The flag write and the completion check
// run in one transaction keyed on the request row, so near-simultaneous
// confirmations serialize on the row lock and completion fires exactly
// once. A rescuer confirmation carries the evidence reference in the
// same write as the flag, so neither can land without the other.
func (r *RequestRepo) Confirm(ctx context.Context, requestID string, role models.Role, evidenceURL string) (models.AdoptionRequest, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.AdoptionRequest{}, false, err
	}
	defer tx.Rollback()

	var req models.AdoptionRequest
	if role == models.RoleRescuer {
		err = tx.QueryRowxContext(ctx, `UPDATE adoption_requests SET confirmed_by_rescuer=TRUE, evidence_url=$2
            WHERE id=$1 AND status='accepted'
            RETURNING `+requestColumns, requestID, evidenceURL).
			StructScan(&req)
	} else {
		err = tx.QueryRowxContext(ctx, `UPDATE adoption_requests SET confirmed_by_adopter=TRUE
            WHERE id=$1 AND status='accepted'
            RETURNING `+requestColumns, requestID).
			StructScan(&req)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return models.AdoptionRequest{}, false, ErrRequestNotAccepted
	}
	if err != nil {
		return models.AdoptionRequest{}, false, err
	}

	completed := false
	if req.ConfirmedByRescuer && req.ConfirmedByAdopter {
		err = tx.QueryRowxContext(ctx, `UPDATE adoption_requests SET status='completed', completed_at=NOW()
            WHERE id=$1 AND status='accepted' AND confirmed_by_rescuer AND confirmed_by_adopter
            RETURNING `+requestColumns, requestID).
			StructScan(&req)
		if err != nil {
			return models.AdoptionRequest{}, false, err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE pets SET status='adopted' WHERE id=$1`, req.PetID); err != nil {
			return models.AdoptionRequest{}, false, err
		}
		completed = true
	}

	if err := tx.Commit(); err != nil {
		return models.AdoptionRequest{}, false, err
	}
	return req, completed, nil
}
