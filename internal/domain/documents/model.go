package documents

import (
	"time"

	"github.com/google/uuid"
)

// Consent categories.
const (
	CategoryPatient   = "Patient"
	CategoryCaregiver = "Caregiver"
)

// Consent statuses.
const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
)

// Consent maps to the consent table. It records the terms accepted when a
// lead was enrolled.
type Consent struct {
	ID        uuid.UUID `db:"id" json:"id"`
	LeadID    uuid.UUID `db:"lead_id" json:"lead_id"`
	Category  string    `db:"category" json:"category"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ValidCategory reports whether c is a known consent category.
func ValidCategory(c string) bool {
	return c == CategoryPatient || c == CategoryCaregiver
}
