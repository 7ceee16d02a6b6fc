package enrollment

import (
	"context"
	"fmt"
	"strings"

	"github.com/ehr/enrollment/internal/domain/validation"
)

// Candidate is the identity entered on the patient step.
type Candidate struct {
	Email       string
	FirstName   string
	LastName    string
	DateOfBirth string
}

// DedupOutcome is the classification of the existing accounts sharing the
// candidate's email.
type DedupOutcome struct {
	IdentityMatch bool
	EmailMatch    bool
}

// Result maps the outcome onto the wizard's dedup state.
func (o DedupOutcome) Result() DedupResult {
	switch {
	case o.IdentityMatch:
		return DedupIdentityMatch
	case o.EmailMatch:
		return DedupEmailOnly
	default:
		return DedupNoMatch
	}
}

// DedupChecker looks up existing accounts by email.
type DedupChecker struct {
	backend Backend
}

func NewDedupChecker(backend Backend) *DedupChecker {
	return &DedupChecker{backend: backend}
}

// Check fetches the accounts for the candidate's email and classifies them.
func (d *DedupChecker) Check(ctx context.Context, c Candidate) (DedupOutcome, error) {
	records, err := d.backend.LookupExistingAccounts(ctx, strings.TrimSpace(c.Email))
	if err != nil {
		return DedupOutcome{}, fmt.Errorf("lookup existing accounts: %w", err)
	}
	return classifyAccounts(records, c), nil
}

// classifyAccounts reports an identity match when one record carries all four
// candidate values, and an email match when any record shares the email.
// Emails and names compare case-insensitively; dates compare as calendar days.
func classifyAccounts(records []ExistingAccount, c Candidate) DedupOutcome {
	var out DedupOutcome
	for _, r := range records {
		if !strings.EqualFold(strings.TrimSpace(r.Email), strings.TrimSpace(c.Email)) {
			continue
		}
		out.EmailMatch = true
		if sameText(r.FirstName, c.FirstName) && sameText(r.LastName, c.LastName) && sameDate(r.DateOfBirth, c.DateOfBirth) {
			out.IdentityMatch = true
		}
	}
	return out
}

func sameText(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func sameDate(a, b string) bool {
	da, errA := validation.ParseBirthDate(firstN(a, len(validation.DateLayout)))
	db, errB := validation.ParseBirthDate(firstN(b, len(validation.DateLayout)))
	if errA != nil || errB != nil {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return da.Equal(db)
}

// firstN trims timestamps such as "1990-01-01T00:00:00Z" to the date part.
func firstN(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[:n]
	}
	return s
}
