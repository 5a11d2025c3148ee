package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"integrity-portal/internal/complaint"
)

// PostgresRepo runs aggregate queries against the complaints schema
// owned by the complaint package.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Overview(ctx context.Context) (Overview, error) {
	const q = `
		SELECT count(*),
		       count(*) FILTER (WHERE status = $1),
		       count(*) FILTER (WHERE status = $2),
		       count(*) FILTER (WHERE status = $3),
		       count(*) FILTER (WHERE status = $4)
		FROM complaints`
	var o Overview
	err := r.db.QueryRowContext(ctx, q,
		complaint.StatusPending, complaint.StatusUnderReview,
		complaint.StatusActionTaken, complaint.StatusClosed,
	).Scan(&o.Total, &o.Pending, &o.UnderReview, &o.ActionTaken, &o.Closed)
	if err != nil {
		return Overview{}, fmt.Errorf("overview counts: %w", err)
	}
	return o, nil
}

func (r *PostgresRepo) DepartmentPerformance(ctx context.Context) ([]DepartmentPerformance, error) {
	const q = `
		SELECT d.id, d.name,
		       count(c.id),
		       count(c.id) FILTER (WHERE c.status = $1),
		       COALESCE(avg(EXTRACT(EPOCH FROM (c.resolved_at - c.created_at)) / 3600.0)
		                FILTER (WHERE c.resolved_at IS NOT NULL), 0)
		FROM departments d
		LEFT JOIN complaints c ON c.department_id = d.id
		GROUP BY d.id, d.name
		ORDER BY d.name`
	rows, err := r.db.QueryContext(ctx, q, complaint.StatusClosed)
	if err != nil {
		return nil, fmt.Errorf("department performance: %w", err)
	}
	defer rows.Close()

	var out []DepartmentPerformance
	for rows.Next() {
		var p DepartmentPerformance
		if err := rows.Scan(&p.DepartmentID, &p.Name, &p.Total, &p.Closed, &p.AvgResolutionHours); err != nil {
			return nil, fmt.Errorf("scan department performance: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) MonthlyCounts(ctx context.Context, from time.Time) ([]MonthlyCount, error) {
	const q = `
		SELECT to_char(date_trunc('month', created_at), 'YYYY-MM'), count(*)
		FROM complaints
		WHERE created_at >= $1
		GROUP BY 1
		ORDER BY 1`
	rows, err := r.db.QueryContext(ctx, q, from)
	if err != nil {
		return nil, fmt.Errorf("monthly counts: %w", err)
	}
	defer rows.Close()

	var out []MonthlyCount
	for rows.Next() {
		var m MonthlyCount
		if err := rows.Scan(&m.Month, &m.Count); err != nil {
			return nil, fmt.Errorf("scan monthly count: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) StatusBreakdown(ctx context.Context) ([]StatusCount, error) {
	const q = `
		SELECT status, count(*)
		FROM complaints
		GROUP BY status
		ORDER BY status`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}
	defer rows.Close()

	var out []StatusCount
	for rows.Next() {
		var s StatusCount
		if err := rows.Scan(&s.Status, &s.Count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) DepartmentCounts(ctx context.Context) ([]DepartmentCount, error) {
	const q = `
		SELECT d.id, d.name, count(c.id)
		FROM departments d
		LEFT JOIN complaints c ON c.department_id = d.id
		GROUP BY d.id, d.name
		ORDER BY d.name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("department counts: %w", err)
	}
	defer rows.Close()

	var out []DepartmentCount
	for rows.Next() {
		var d DepartmentCount
		if err := rows.Scan(&d.DepartmentID, &d.Name, &d.Count); err != nil {
			return nil, fmt.Errorf("scan department count: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) OfficerStats(ctx context.Context, officerID int64) (OfficerStats, error) {
	const q = `
		SELECT count(*),
		       count(*) FILTER (WHERE status <> $2),
		       count(*) FILTER (WHERE status = $2)
		FROM complaints
		WHERE assigned_to = $1`
	var s OfficerStats
	err := r.db.QueryRowContext(ctx, q, officerID, complaint.StatusClosed).
		Scan(&s.Assigned, &s.Open, &s.Closed)
	if err != nil {
		return OfficerStats{}, fmt.Errorf("officer stats: %w", err)
	}
	return s, nil
}

func (r *PostgresRepo) CountComplaintsSince(ctx context.Context, since time.Time) (int, error) {
	const q = `SELECT count(*) FROM complaints WHERE created_at >= $1`
	var n int
	if err := r.db.QueryRowContext(ctx, q, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count complaints since: %w", err)
	}
	return n, nil
}

func (r *PostgresRepo) CountResolvedSince(ctx context.Context, since time.Time) (int, error) {
	const q = `SELECT count(*) FROM complaints WHERE resolved_at >= $1`
	var n int
	if err := r.db.QueryRowContext(ctx, q, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count resolved since: %w", err)
	}
	return n, nil
}
