package enrollment

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ehr/enrollment/internal/domain/validation"
)

// PractitionerDirectory is the practitioner list preloaded at session start,
// sorted case-insensitively by name with ties kept in load order.
type PractitionerDirectory struct {
	entries []PractitionerEntry
	byID    map[string]int
}

func NewPractitionerDirectory(entries []PractitionerEntry) *PractitionerDirectory {
	sorted := append([]PractitionerEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	byID := make(map[string]int, len(sorted))
	for i, e := range sorted {
		byID[e.ID] = i
	}
	return &PractitionerDirectory{entries: sorted, byID: byID}
}

// All returns the sorted list.
func (d *PractitionerDirectory) All() []PractitionerEntry {
	return append([]PractitionerEntry(nil), d.entries...)
}

// Search returns the entries whose name contains query, ignoring case. An
// empty query matches nothing.
func (d *PractitionerDirectory) Search(query string) []PractitionerEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []PractitionerEntry
	for _, e := range d.entries {
		if strings.Contains(strings.ToLower(e.Name), q) {
			out = append(out, e)
		}
	}
	return out
}

func (d *PractitionerDirectory) Lookup(id string) (PractitionerEntry, bool) {
	i, ok := d.byID[id]
	if !ok {
		return PractitionerEntry{}, false
	}
	return d.entries[i], true
}

// AccessCodeResolver turns an access code into the id of the issuing
// practitioner.
type AccessCodeResolver struct {
	backend Backend
}

func NewAccessCodeResolver(backend Backend) *AccessCodeResolver {
	return &AccessCodeResolver{backend: backend}
}

func (r *AccessCodeResolver) Resolve(ctx context.Context, code string) (string, error) {
	id, err := r.backend.ResolveAccessCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("resolve access code: %w", err)
	}
	if id == "" {
		return "", fmt.Errorf("resolve access code: %w", ErrNotFound)
	}
	return id, nil
}

// counterpartValue returns the paired field's value for keys validated with
// the phone-or-email rule.
func counterpartValue(fields map[validation.Key]validation.FieldState, key validation.Key) string {
	spec, ok := validation.Lookup(key)
	if !ok || spec.Counterpart == "" {
		return ""
	}
	return fields[spec.Counterpart].RawValue
}

func newPractitionerData(fields map[validation.Key]validation.FieldState) (HCPData, HCPDetail) {
	return HCPData{
			FirstName: fields[validation.HCPFirstName].RawValue,
			LastName:  fields[validation.HCPLastName].RawValue,
			Phone:     fields[validation.HCPPhone].RawValue,
			Email:     fields[validation.HCPEmail].RawValue,
		}, HCPDetail{
			AddressLine: fields[validation.AddressLine].RawValue,
		}
}
