package terminology

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// LocationRepository provides the country and region picklists.
type LocationRepository interface {
	ListCountries(ctx context.Context) ([]*Country, error)
	GetCountry(ctx context.Context, code string) (*Country, error)
	ListRegions(ctx context.Context, countryCode string) ([]*Region, error)
}
