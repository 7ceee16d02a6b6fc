package terminology

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/enrollment/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type locationRepoPG struct{ pool *pgxpool.Pool }

func NewLocationRepoPG(pool *pgxpool.Pool) LocationRepository { return &locationRepoPG{pool: pool} }

func (r *locationRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *locationRepoPG) ListCountries(ctx context.Context) ([]*Country, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT code, name, sort_order FROM country ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	var results []*Country
	for rows.Next() {
		var c Country
		if err := rows.Scan(&c.Code, &c.Name, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		results = append(results, &c)
	}
	return results, rows.Err()
}

func (r *locationRepoPG) GetCountry(ctx context.Context, code string) (*Country, error) {
	var c Country
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT code, name, sort_order FROM country WHERE code = $1`, code,
	).Scan(&c.Code, &c.Name, &c.SortOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get country: %w", err)
	}
	return &c, nil
}

func (r *locationRepoPG) ListRegions(ctx context.Context, countryCode string) ([]*Region, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT country_code, code, name FROM region WHERE country_code = $1 ORDER BY name`, countryCode)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	var results []*Region
	for rows.Next() {
		var rg Region
		if err := rows.Scan(&rg.CountryCode, &rg.Code, &rg.Name); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		results = append(results, &rg)
	}
	return results, rows.Err()
}
