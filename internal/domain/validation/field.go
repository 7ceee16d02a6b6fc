// Package validation holds the field-level rules of the enrollment wizard.
// Every rule is a pure function of the entered value and a small Context;
// nothing here performs I/O or touches wizard state.
package validation

import (
	"strings"
	"time"
)

// Key is the logical name of a wizard field.
type Key string

const (
	FirstName Key = "firstName"
	LastName  Key = "lastName"
	DOB       Key = "dob"
	Gender    Key = "gender"
	Email     Key = "email"

	AccessCode      Key = "accessCode"
	PhysicianSearch Key = "physicianSearch"
	HCPFirstName    Key = "hcpFirstName"
	HCPLastName     Key = "hcpLastName"
	HCPPhone        Key = "hcpPhone"
	HCPEmail        Key = "hcpEmail"
	AddressLine     Key = "addressLine"

	PreferredContactMethod Key = "preferredContactMethod"
	Phone                  Key = "phone"
	Country                Key = "country"
	State                  Key = "state"
	City                   Key = "city"
	Street                 Key = "street"
	Zip                    Key = "zip"
	ConsentCheckbox        Key = "consentCheckbox"
)

// ErrorKind classifies why a field is invalid. The zero value means valid.
type ErrorKind string

const (
	None           ErrorKind = ""
	Required       ErrorKind = "required"
	FormatInvalid  ErrorKind = "format_invalid"
	TooYoung       ErrorKind = "age_too_young"
	FutureDate     ErrorKind = "age_future_date"
	TooOld         ErrorKind = "age_too_old"
	DuplicateValue ErrorKind = "duplicate_value"
)

// IsAge reports whether the error is one of the date-of-birth age errors.
func (k ErrorKind) IsAge() bool {
	return k == TooYoung || k == FutureDate || k == TooOld
}

// FieldState is the per-field record kept by the wizard.
type FieldState struct {
	RawValue  string    `json:"value"`
	ErrorKind ErrorKind `json:"error,omitempty"`
	Touched   bool      `json:"touched"`
}

// Valid reports whether the field may be included in a submission.
func (f FieldState) Valid() bool {
	return f.ErrorKind == None
}

// Registrant identifies who is filling in the form.
type Registrant string

const (
	RegistrantPatient   Registrant = "patient"
	RegistrantCaregiver Registrant = "caregiver"
)

// Contact methods that make the contact phone number mandatory.
const (
	ContactByPhone = "Phone"
	ContactBySMS   = "SMS"
)

// Context carries the values a rule may depend on besides the field itself.
type Context struct {
	Now        time.Time
	Registrant Registrant
	// ContactMethod is the currently selected preferred contact method.
	ContactMethod string
	// Counterpart is the current value of the paired field for rules of the
	// unless_counterpart kind (hcpPhone <-> hcpEmail).
	Counterpart string
}

func (c Context) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

func (c Context) phoneRequired() bool {
	return strings.EqualFold(c.ContactMethod, ContactByPhone) || strings.EqualFold(c.ContactMethod, ContactBySMS)
}

// Result is the outcome of validating a single field.
type Result struct {
	State FieldState
	// Minor is set for a well-formed date of birth younger than MinorAge.
	Minor bool
}
