package complaint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PostgresRepo stores complaints in Postgres.
//
// Schema:
//
//	CREATE TABLE complaints (
//	    id            BIGSERIAL PRIMARY KEY,
//	    tracking_id   VARCHAR(16) NOT NULL UNIQUE,
//	    department_id BIGINT NOT NULL REFERENCES departments(id),
//	    service_id    BIGINT NOT NULL REFERENCES services(id),
//	    description   TEXT NOT NULL,
//	    location      TEXT NOT NULL DEFAULT '',
//	    citizen_name  TEXT NOT NULL,
//	    citizen_email TEXT NOT NULL DEFAULT '',
//	    citizen_phone TEXT NOT NULL DEFAULT '',
//	    evidence_path TEXT NOT NULL DEFAULT '',
//	    status        VARCHAR(20) NOT NULL DEFAULT 'Pending',
//	    assigned_to   BIGINT REFERENCES users(id),
//	    notes         TEXT NOT NULL DEFAULT '',
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    resolved_at   TIMESTAMPTZ
//	);
//	CREATE INDEX complaints_status_idx ON complaints (status);
//	CREATE INDEX complaints_department_idx ON complaints (department_id);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const complaintColumns = `
	id, tracking_id, department_id, service_id,
	description, location, citizen_name, citizen_email, citizen_phone,
	evidence_path, status, COALESCE(assigned_to, 0), notes,
	created_at, updated_at, resolved_at`

func (r *PostgresRepo) Create(ctx context.Context, c *Complaint) error {
	const q = `
		INSERT INTO complaints (
			tracking_id, department_id, service_id,
			description, location, citizen_name, citizen_email, citizen_phone,
			evidence_path, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, q,
		c.TrackingID, c.DepartmentID, c.ServiceID,
		c.Description, c.Location, c.CitizenName, c.CitizenEmail, c.CitizenPhone,
		c.EvidencePath, c.Status, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Complaint, error) {
	q := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) GetByTrackingID(ctx context.Context, trackingID string) (Complaint, error) {
	q := `SELECT ` + complaintColumns + ` FROM complaints WHERE tracking_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, trackingID))
}

func (r *PostgresRepo) Update(ctx context.Context, c *Complaint) error {
	const q = `
		UPDATE complaints
		SET status = $2,
		    assigned_to = NULLIF($3, 0),
		    notes = $4,
		    evidence_path = $5,
		    updated_at = $6,
		    resolved_at = $7
		WHERE id = $1`
	var resolvedAt any
	if !c.ResolvedAt.IsZero() {
		resolvedAt = c.ResolvedAt
	}
	res, err := r.db.ExecContext(ctx, q,
		c.ID, c.Status, c.AssignedTo, c.Notes, c.EvidencePath, c.UpdatedAt, resolvedAt)
	if err != nil {
		return fmt.Errorf("update complaint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update complaint: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, f ListFilter, limit, offset int) ([]Complaint, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}
	if f.DepartmentID != 0 {
		where = append(where, "department_id = "+arg(f.DepartmentID))
	}
	if f.AssignedTo != 0 {
		where = append(where, "assigned_to = "+arg(f.AssignedTo))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf(
			"(tracking_id ILIKE %s OR citizen_name ILIKE %s OR description ILIKE %s)", p, p, p))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT count(*) FROM complaints"+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}

	q := `SELECT ` + complaintColumns + ` FROM complaints` + cond +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %s OFFSET %s", arg(limit), arg(offset))
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select complaints: %w", err)
	}
	defer rows.Close()

	var out []Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepo) scanOne(row *sql.Row) (Complaint, error) {
	c, err := scanComplaint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Complaint{}, ErrNotFound
	}
	return c, err
}

func scanComplaint(row rowScanner) (Complaint, error) {
	var (
		c          Complaint
		resolvedAt sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.TrackingID, &c.DepartmentID, &c.ServiceID,
		&c.Description, &c.Location, &c.CitizenName, &c.CitizenEmail, &c.CitizenPhone,
		&c.EvidencePath, &c.Status, &c.AssignedTo, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt, &resolvedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Complaint{}, err
		}
		return Complaint{}, fmt.Errorf("scan complaint: %w", err)
	}
	if resolvedAt.Valid {
		c.ResolvedAt = resolvedAt.Time.UTC()
	} else {
		c.ResolvedAt = time.Time{}
	}
	return c, nil
}
