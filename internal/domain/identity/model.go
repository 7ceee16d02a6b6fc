package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Practitioner sources.
const (
	SourceDirectory  = "directory"
	SourceEnrollment = "enrollment"
)

// Practitioner maps to the practitioner table.
type Practitioner struct {
	ID          uuid.UUID `db:"id" json:"id"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	Email       *string   `db:"email" json:"email,omitempty"`
	AddressLine *string   `db:"address_line" json:"address_line,omitempty"`
	Specialty   *string   `db:"specialty" json:"specialty,omitempty"`
	City        *string   `db:"city" json:"city,omitempty"`
	Active      bool      `db:"active" json:"active"`
	Source      string    `db:"source" json:"source"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName is the name shown in the practitioner search.
func (p *Practitioner) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// AccessCode maps to the access_code table.
type AccessCode struct {
	Code           string     `db:"code" json:"code"`
	PractitionerID uuid.UUID  `db:"practitioner_id" json:"practitioner_id"`
	Active         bool       `db:"active" json:"active"`
	ExpiresAt      *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Usable reports whether the code may still be redeemed at now.
func (a *AccessCode) Usable(now time.Time) bool {
	if !a.Active {
		return false
	}
	return a.ExpiresAt == nil || now.Before(*a.ExpiresAt)
}

// PatientAccount maps to the patient_account table.
type PatientAccount struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	BirthDate time.Time `db:"birth_date" json:"birth_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Lead statuses.
const (
	LeadStatusNew = "new"
)

// Lead maps to the lead table. A lead is the enrollment record of a patient
// before an account exists.
type Lead struct {
	ID                     uuid.UUID `db:"id" json:"id"`
	PractitionerID         uuid.UUID `db:"practitioner_id" json:"practitioner_id"`
	FirstName              string    `db:"first_name" json:"first_name"`
	LastName               string    `db:"last_name" json:"last_name"`
	BirthDate              time.Time `db:"birth_date" json:"birth_date"`
	Gender                 string    `db:"gender" json:"gender"`
	Email                  string    `db:"email" json:"email"`
	Phone                  *string   `db:"phone" json:"phone,omitempty"`
	PreferredContactMethod *string   `db:"preferred_contact_method" json:"preferred_contact_method,omitempty"`
	Country                *string   `db:"country" json:"country,omitempty"`
	State                  *string   `db:"state" json:"state,omitempty"`
	City                   *string   `db:"city" json:"city,omitempty"`
	Street                 *string   `db:"street" json:"street,omitempty"`
	PostalCode             *string   `db:"postal_code" json:"postal_code,omitempty"`
	Registrant             string    `db:"registrant" json:"registrant"`
	Minor                  bool      `db:"minor" json:"minor"`
	Status                 string    `db:"status" json:"status"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}

// OptionalString returns nil for an empty value.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to value or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
