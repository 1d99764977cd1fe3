package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"adoption-service/internal/models"
)

var (
	ErrPetNotFound = errors.New("pet not found")
	// ErrPetHasActiveRequests blocks deletion while a pending or
	// accepted request still references the pet.
	ErrPetHasActiveRequests = errors.New("pet has active requests")
)

const petColumns = `id, rescuer_id, name, species, breed, age_months, sex, size, description, city, photos, status, created_at`

// PetPatch holds owner-editable listing attributes. Nil fields are left
// untouched. Status is deliberately absent: it only moves through the
// request lifecycle.
type PetPatch struct {
	Name        *string
	Breed       *string
	AgeMonths   *int
	Description *string
	City        *string
	Photos      []string
}

// PetRepository abstracts pet listing persistence.
type PetRepository interface {
	CreatePet(ctx context.Context, pet models.Pet) (models.Pet, error)
	GetPet(ctx context.Context, petID string) (models.Pet, error)
	GetPetsByIDs(ctx context.Context, petIDs []string) ([]models.Pet, error)
	ListPets(ctx context.Context, filter models.PetFilter) ([]models.Pet, error)
	ListPetsByRescuer(ctx context.Context, rescuerID string) ([]models.Pet, error)
	UpdatePetFields(ctx context.Context, petID string, rescuerID string, patch PetPatch) (models.Pet, error)
	DeletePet(ctx context.Context, petID string, rescuerID string) error
}

// PetRepo is a sqlx implementation of PetRepository.
type PetRepo struct {
	db *sqlx.DB
}

// NewPetRepo constructs a PetRepo.
func NewPetRepo(db *sqlx.DB) *PetRepo {
	return &PetRepo{db: db}
}

// CreatePet stores a new listing in available status.
func (r *PetRepo) CreatePet(ctx context.Context, pet models.Pet) (models.Pet, error) {
	pet.ID = uuid.NewString()
	pet.Status = models.PetAvailable

	var created models.Pet
	err := r.db.QueryRowxContext(ctx, `INSERT INTO pets (id, rescuer_id, name, species, breed, age_months, sex, size, description, city, photos)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING `+petColumns,
		pet.ID, pet.RescuerID, pet.Name, pet.Species, pet.Breed, pet.AgeMonths, pet.Sex, pet.Size, pet.Description, pet.City, pq.Array([]string(pet.Photos))).
		StructScan(&created)
	return created, err
}

// GetPet fetches a pet by id.
func (r *PetRepo) GetPet(ctx context.Context, petID string) (models.Pet, error) {
	var pet models.Pet
	err := r.db.GetContext(ctx, &pet, `SELECT `+petColumns+` FROM pets WHERE id=$1`, petID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Pet{}, ErrPetNotFound
	}
	return pet, err
}

// GetPetsByIDs fetches several pets in one query. Missing ids are
// simply absent from the result.
func (r *PetRepo) GetPetsByIDs(ctx context.Context, petIDs []string) ([]models.Pet, error) {
	if len(petIDs) == 0 {
		return []models.Pet{}, nil
	}
	var pets []models.Pet
	err := r.db.SelectContext(ctx, &pets, `SELECT `+petColumns+` FROM pets WHERE id = ANY($1)`, pq.Array(petIDs))
	return pets, err
}

// ListPets returns catalog listings matching the filter, newest first.
func (r *PetRepo) ListPets(ctx context.Context, filter models.PetFilter) ([]models.Pet, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if !filter.IncludeAll {
		args = append(args, models.PetAvailable)
		conditions = append(conditions, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Species != "" {
		args = append(args, filter.Species)
		conditions = append(conditions, fmt.Sprintf("species=$%d", len(args)))
	}
	if filter.Size != "" {
		args = append(args, filter.Size)
		conditions = append(conditions, fmt.Sprintf("size=$%d", len(args)))
	}
	if filter.Sex != "" {
		args = append(args, filter.Sex)
		conditions = append(conditions, fmt.Sprintf("sex=$%d", len(args)))
	}
	if filter.City != "" {
		args = append(args, filter.City)
		conditions = append(conditions, fmt.Sprintf("city=$%d", len(args)))
	}
	if filter.MaxAgeMonths > 0 {
		args = append(args, filter.MaxAgeMonths)
		conditions = append(conditions, fmt.Sprintf("age_months<=$%d", len(args)))
	}

	query := `SELECT ` + petColumns + ` FROM pets WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY created_at DESC`
	var pets []models.Pet
	err := r.db.SelectContext(ctx, &pets, query, args...)
	return pets, err
}

// ListPetsByRescuer returns every listing owned by the rescuer.
func (r *PetRepo) ListPetsByRescuer(ctx context.Context, rescuerID string) ([]models.Pet, error) {
	var pets []models.Pet
	err := r.db.SelectContext(ctx, &pets, `SELECT `+petColumns+` FROM pets WHERE rescuer_id=$1 ORDER BY created_at DESC`, rescuerID)
	return pets, err
}

// UpdatePetFields applies an attribute patch scoped to the owning rescuer.
func (r *PetRepo) UpdatePetFields(ctx context.Context, petID string, rescuerID string, patch PetPatch) (models.Pet, error) {
	sets := []string{}
	args := []interface{}{petID, rescuerID}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Breed != nil {
		add("breed", *patch.Breed)
	}
	if patch.AgeMonths != nil {
		add("age_months", *patch.AgeMonths)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.City != nil {
		add("city", *patch.City)
	}
	if patch.Photos != nil {
		add("photos", pq.Array(patch.Photos))
	}
	if len(sets) == 0 {
		return r.GetPet(ctx, petID)
	}

	query := `UPDATE pets SET ` + strings.Join(sets, ", ") + ` WHERE id=$1 AND rescuer_id=$2 RETURNING ` + petColumns
	var pet models.Pet
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&pet)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Pet{}, ErrPetNotFound
	}
	return pet, err
}

// DeletePet removes a listing unless a live request still references it.
func (r *PetRepo) DeletePet(ctx context.Context, petID string, rescuerID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets
        WHERE id=$1 AND rescuer_id=$2
        AND NOT EXISTS (
            SELECT 1 FROM adoption_requests
            WHERE pet_id=$1 AND status IN ('pending', 'accepted')
        )`, petID, rescuerID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		var active bool
		if err := r.db.GetContext(ctx, &active, `SELECT EXISTS(SELECT 1 FROM adoption_requests WHERE pet_id=$1 AND status IN ('pending', 'accepted'))`, petID); err != nil {
			return err
		}
		if active {
			return ErrPetHasActiveRequests
		}
		return ErrPetNotFound
	}
	return nil
}
