package account

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepo assumes the following table:
//
//	CREATE TABLE users (
//	    id            BIGSERIAL PRIMARY KEY,
//	    username      TEXT NOT NULL UNIQUE,
//	    email         TEXT NOT NULL DEFAULT '',
//	    password_hash TEXT NOT NULL,
//	    role          TEXT NOT NULL DEFAULT 'officer',
//	    department_id BIGINT REFERENCES departments(id),
//	    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    last_login    TIMESTAMPTZ
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const userColumns = `id, username, email, password_hash, role, COALESCE(department_id, 0), is_active, created_at, last_login`

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, username))
}

func (r *PostgresRepo) Create(ctx context.Context, u User) (User, error) {
	const q = `
INSERT INTO users (username, email, password_hash, role, department_id, is_active, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, 0), $6, $7)
RETURNING id
`
	err := r.db.QueryRowContext(ctx, q,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.DepartmentID,
		u.IsActive,
		u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) SetActive(ctx context.Context, id int64, active bool) error {
	const q = `UPDATE users SET is_active = $2 WHERE id = $1`
	return execExpectingRow(ctx, r.db, q, id, active)
}

func (r *PostgresRepo) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	const q = `UPDATE users SET password_hash = $2 WHERE id = $1`
	return execExpectingRow(ctx, r.db, q, id, hash)
}

func (r *PostgresRepo) SetLastLogin(ctx context.Context, id int64, at time.Time) error {
	const q = `UPDATE users SET last_login = $2 WHERE id = $1`
	return execExpectingRow(ctx, r.db, q, id, at)
}

func (r *PostgresRepo) ListOfficers(ctx context.Context) ([]User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE role = 'officer' ORDER BY username`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Stats(ctx context.Context) (Stats, error) {
	const q = `
SELECT
    COUNT(*),
    COUNT(*) FILTER (WHERE role = 'officer'),
    COUNT(*) FILTER (WHERE role = 'admin'),
    COUNT(*) FILTER (WHERE is_active)
FROM users
`
	var s Stats
	if err := r.db.QueryRowContext(ctx, q).Scan(&s.TotalUsers, &s.Officers, &s.Admins, &s.ActiveUsers); err != nil {
		return Stats{}, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	var lastLogin sql.NullTime
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.DepartmentID,
		&u.IsActive,
		&u.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if lastLogin.Valid {
		u.LastLogin = lastLogin.Time
	}
	return u, nil
}

func execExpectingRow(ctx context.Context, db *sql.DB, q string, args ...any) error {
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
