package model

import (
	"time"

	"github.com/google/uuid"
)

// MedicationSKU is unique by medication_name alone and, independently, by the
// (medication_name, presentation, dose, unit) tuple.
type MedicationSKU struct {
	ID             uuid.UUID `db:"id"`
	UserID         uuid.UUID `db:"user_id"`
	MedicationName string    `db:"medication_name"`
	Presentation   string    `db:"presentation"`
	Dose           int       `db:"dose"`
	Unit           string    `db:"unit"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`

	Tags []Tag `db:"-"`
}

func (m *MedicationSKU) String() string {
	return m.MedicationName
}
