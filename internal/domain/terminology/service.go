package terminology

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	locations LocationRepository
}

func NewService(locations LocationRepository) *Service {
	return &Service{locations: locations}
}

// ListCountries returns every country in display order.
func (s *Service) ListCountries(ctx context.Context) ([]*Country, error) {
	return s.locations.ListCountries(ctx)
}

// ListRegions returns the regions of a country. An unknown country yields
// ErrNotFound; a known country without regions yields an empty list.
func (s *Service) ListRegions(ctx context.Context, countryCode string) ([]*Region, error) {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if countryCode == "" {
		return nil, fmt.Errorf("country code is required")
	}
	if _, err := s.locations.GetCountry(ctx, countryCode); err != nil {
		return nil, err
	}
	return s.locations.ListRegions(ctx, countryCode)
}
