package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepo stores the catalog in Postgres.
//
// Schema:
//
//	CREATE TABLE departments (
//	    id          BIGSERIAL PRIMARY KEY,
//	    name        TEXT NOT NULL UNIQUE,
//	    description TEXT NOT NULL DEFAULT '',
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
//	CREATE TABLE services (
//	    id            BIGSERIAL PRIMARY KEY,
//	    department_id BIGINT NOT NULL REFERENCES departments(id),
//	    name          TEXT NOT NULL,
//	    description   TEXT NOT NULL DEFAULT '',
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    UNIQUE (department_id, name)
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) CreateDepartment(ctx context.Context, d *Department) error {
	const q = `
		INSERT INTO departments (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, q, d.Name, d.Description).Scan(&d.ID, &d.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("department %q: %w", d.Name, ErrDuplicateName)
	}
	if err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetDepartment(ctx context.Context, id int64) (Department, error) {
	const q = `
		SELECT id, name, description, created_at
		FROM departments
		WHERE id = $1`
	var d Department
	err := r.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Department{}, ErrNotFound
	}
	if err != nil {
		return Department{}, fmt.Errorf("select department: %w", err)
	}
	return d, nil
}

func (r *PostgresRepo) ListDepartments(ctx context.Context) ([]Department, error) {
	const q = `
		SELECT id, name, description, created_at
		FROM departments
		ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select departments: %w", err)
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CreateService(ctx context.Context, s *Service) error {
	const q = `
		INSERT INTO services (department_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, q, s.DepartmentID, s.Name, s.Description).Scan(&s.ID, &s.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("service %q: %w", s.Name, ErrDuplicateName)
	}
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetService(ctx context.Context, id int64) (Service, error) {
	const q = `
		SELECT id, department_id, name, description, created_at
		FROM services
		WHERE id = $1`
	var s Service
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.DepartmentID, &s.Name, &s.Description, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Service{}, ErrNotFound
	}
	if err != nil {
		return Service{}, fmt.Errorf("select service: %w", err)
	}
	return s, nil
}

func (r *PostgresRepo) ListServices(ctx context.Context, departmentID int64) ([]Service, error) {
	const q = `
		SELECT id, department_id, name, description, created_at
		FROM services
		WHERE department_id = $1
		ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, departmentID)
	if err != nil {
		return nil, fmt.Errorf("select services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.DepartmentID, &s.Name, &s.Description, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
