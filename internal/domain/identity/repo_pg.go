package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/enrollment/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// -- Practitioner Repository --

type practRepoPG struct {
	pool *pgxpool.Pool
}

func NewPractitionerRepo(pool *pgxpool.Pool) PractitionerRepository {
	return &practRepoPG{pool: pool}
}

const practCols = `id, first_name, last_name, phone, email, address_line, specialty, city,
	active, source, created_at, updated_at`

func (r *practRepoPG) Create(ctx context.Context, p *Practitioner) error {
	p.ID = uuid.New()
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO practitioner (id, first_name, last_name, phone, email, address_line, specialty, city, active, source)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		p.ID, p.FirstName, p.LastName, p.Phone, p.Email, p.AddressLine, p.Specialty, p.City, p.Active, p.Source,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("practitioner create: %w", err)
	}
	return nil
}

func (r *practRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	p, err := scanPractitioner(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+practCols+` FROM practitioner WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *practRepoPG) List(ctx context.Context, limit, offset int) ([]*Practitioner, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM practitioner`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+practCols+` FROM practitioner ORDER BY last_name, first_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	practs, err := collectPractitioners(rows)
	if err != nil {
		return nil, 0, err
	}
	return practs, total, nil
}

func (r *practRepoPG) ListActive(ctx context.Context) ([]*Practitioner, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+practCols+` FROM practitioner WHERE active ORDER BY lower(first_name), lower(last_name)`)
	if err != nil {
		return nil, err
	}
	return collectPractitioners(rows)
}

func collectPractitioners(rows pgx.Rows) ([]*Practitioner, error) {
	defer rows.Close()
	var practs []*Practitioner
	for rows.Next() {
		p, err := scanPractitioner(rows)
		if err != nil {
			return nil, err
		}
		practs = append(practs, p)
	}
	return practs, rows.Err()
}

func scanPractitioner(row pgx.Row) (*Practitioner, error) {
	var p Practitioner
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Phone, &p.Email, &p.AddressLine, &p.Specialty, &p.City,
		&p.Active, &p.Source, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// -- Access Code Repository --

type accessCodeRepoPG struct {
	pool *pgxpool.Pool
}

func NewAccessCodeRepo(pool *pgxpool.Pool) AccessCodeRepository {
	return &accessCodeRepoPG{pool: pool}
}

func (r *accessCodeRepoPG) GetByCode(ctx context.Context, code string) (*AccessCode, error) {
	var a AccessCode
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT code, practitioner_id, active, expires_at, created_at
		FROM access_code WHERE code = $1`, code,
	).Scan(&a.Code, &a.PractitionerID, &a.Active, &a.ExpiresAt, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// -- Account Repository --

type accountRepoPG struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) AccountRepository {
	return &accountRepoPG{pool: pool}
}

func (r *accountRepoPG) FindByEmail(ctx context.Context, email string) ([]*PatientAccount, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, email, first_name, last_name, birth_date, created_at
		FROM patient_account WHERE lower(email) = lower($1)
		ORDER BY created_at`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*PatientAccount
	for rows.Next() {
		var a PatientAccount
		if err := rows.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.BirthDate, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, &a)
	}
	return accounts, rows.Err()
}

// -- Lead Repository --

type leadRepoPG struct {
	pool *pgxpool.Pool
}

func NewLeadRepo(pool *pgxpool.Pool) LeadRepository {
	return &leadRepoPG{pool: pool}
}

const leadCols = `id, practitioner_id, first_name, last_name, birth_date, gender, email, phone,
	preferred_contact_method, country, state, city, street, postal_code,
	registrant, minor, status, created_at`

func (r *leadRepoPG) Create(ctx context.Context, l *Lead) error {
	l.ID = uuid.New()
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO lead (
			id, practitioner_id, first_name, last_name, birth_date, gender, email, phone,
			preferred_contact_method, country, state, city, street, postal_code,
			registrant, minor, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING created_at`,
		l.ID, l.PractitionerID, l.FirstName, l.LastName, l.BirthDate, l.Gender, l.Email, l.Phone,
		l.PreferredContactMethod, l.Country, l.State, l.City, l.Street, l.PostalCode,
		l.Registrant, l.Minor, l.Status,
	).Scan(&l.CreatedAt)
	if err != nil {
		return fmt.Errorf("lead create: %w", err)
	}
	return nil
}

func (r *leadRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	var l Lead
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+leadCols+` FROM lead WHERE id = $1`, id).Scan(
		&l.ID, &l.PractitionerID, &l.FirstName, &l.LastName, &l.BirthDate, &l.Gender, &l.Email, &l.Phone,
		&l.PreferredContactMethod, &l.Country, &l.State, &l.City, &l.Street, &l.PostalCode,
		&l.Registrant, &l.Minor, &l.Status, &l.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}
