package models

import (
	"time"

	"github.com/lib/pq"
)

// PetStatus is a pet listing lifecycle state.
type PetStatus string

const (
	PetAvailable  PetStatus = "available"
	PetInProgress PetStatus = "in_progress"
	PetAdopted    PetStatus = "adopted"
)

// MaxPetPhotos caps the photo list per listing.
const MaxPetPhotos = 4

// Pet is a published listing owned by a rescuer. Status moves only
// forward: available -> in_progress -> adopted, driven by the request
// lifecycle, never by direct edits.
type Pet struct {
	ID          string         `db:"id" json:"id"`
	RescuerID   string         `db:"rescuer_id" json:"rescuer_id"`
	Name        string         `db:"name" json:"name"`
	Species     string         `db:"species" json:"species"`
	Breed       string         `db:"breed" json:"breed,omitempty"`
	AgeMonths   int            `db:"age_months" json:"age_months"`
	Sex         string         `db:"sex" json:"sex"`
	Size        string         `db:"size" json:"size"`
	Description string         `db:"description" json:"description"`
	City        string         `db:"city" json:"city"`
	Photos      pq.StringArray `db:"photos" json:"photos"`
	Status      PetStatus      `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// PetFilter narrows the public catalog query. Zero values mean "no filter".
type PetFilter struct {
	Species      string
	Size         string
	Sex          string
	City         string
	MaxAgeMonths int
	// IncludeAll lists pets in every status, not just available ones.
	IncludeAll bool
}
