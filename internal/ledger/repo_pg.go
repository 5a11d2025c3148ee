package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepo persists the ledger in an insert-only audit_entries table:
//
//	CREATE TABLE audit_entries (
//	    sequence_id    BIGSERIAL PRIMARY KEY,
//	    actor_user_id  TEXT        NOT NULL DEFAULT '',
//	    actor_name     TEXT        NOT NULL,
//	    actor_role     TEXT        NOT NULL,
//	    action         TEXT        NOT NULL,
//	    details        TEXT        NOT NULL DEFAULT '',
//	    source_address TEXT        NOT NULL DEFAULT '',
//	    recorded_at    TIMESTAMPTZ NOT NULL,
//	    previous_hash  TEXT        NOT NULL UNIQUE,
//	    entry_hash     CHAR(64)    NOT NULL UNIQUE
//	);
//
// The UNIQUE constraint on previous_hash is the cross-process race detector:
// two appends claiming the same predecessor cannot both commit, and since
// the first entry stores the empty sentinel, only one genesis entry can
// ever exist. Sequence ids may carry serial gaps after lost races; chain
// verification relies on hash linkage, not contiguity.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const entryColumns = `sequence_id, actor_user_id, actor_name, actor_role, action, details, source_address, recorded_at, previous_hash, entry_hash`

func (r *PostgresRepo) Tail(ctx context.Context) (Entry, bool, error) {
	const q = `
SELECT ` + entryColumns + `
FROM audit_entries
ORDER BY sequence_id DESC
LIMIT 1
`
	e, err := scanEntry(r.db.QueryRowContext(ctx, q))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	return e, true, nil
}

func (r *PostgresRepo) Insert(ctx context.Context, e Entry) (Entry, error) {
	const q = `
INSERT INTO audit_entries
    (actor_user_id, actor_name, actor_role, action, details, source_address, recorded_at, previous_hash, entry_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING sequence_id
`
	err := r.db.QueryRowContext(ctx, q,
		e.ActorUserID,
		e.ActorName,
		e.ActorRole,
		e.Action,
		e.Details,
		e.SourceAddress,
		e.RecordedAt,
		e.PreviousHash,
		e.EntryHash,
	).Scan(&e.SequenceID)
	if err != nil {
		if isUniqueViolation(err) {
			return Entry{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return Entry{}, err
	}
	return e, nil
}

func (r *PostgresRepo) Range(ctx context.Context, from, to int64) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if from > 0 {
		args = append(args, from)
		where = append(where, "sequence_id >= $"+strconv.Itoa(len(args)))
	}
	if to > 0 {
		args = append(args, to)
		where = append(where, "sequence_id <= $"+strconv.Itoa(len(args)))
	}
	q := `SELECT ` + entryColumns + ` FROM audit_entries`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY sequence_id ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *PostgresRepo) Search(ctx context.Context, f SearchFilter, p Page) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Action != "" {
		args = append(args, f.Action)
		where = append(where, "action = $"+strconv.Itoa(len(args)))
	}
	if f.ActorName != "" {
		args = append(args, "%"+f.ActorName+"%")
		where = append(where, "actor_name ILIKE $"+strconv.Itoa(len(args)))
	}
	if f.DetailsLike != "" {
		args = append(args, "%"+f.DetailsLike+"%")
		where = append(where, "details ILIKE $"+strconv.Itoa(len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where = append(where, "recorded_at >= $"+strconv.Itoa(len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where = append(where, "recorded_at <= $"+strconv.Itoa(len(args)))
	}

	q := `SELECT ` + entryColumns + ` FROM audit_entries`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, p.Limit)
	q += " ORDER BY recorded_at DESC, sequence_id DESC LIMIT $" + strconv.Itoa(len(args))
	args = append(args, p.Offset)
	q += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *PostgresRepo) Actions(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT action FROM audit_entries ORDER BY action`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountByRoleSince(ctx context.Context, role string, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM audit_entries WHERE actor_role = $1 AND recorded_at >= $2`
	var n int
	if err := r.db.QueryRowContext(ctx, q, role, since).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.SequenceID,
		&e.ActorUserID,
		&e.ActorName,
		&e.ActorRole,
		&e.Action,
		&e.Details,
		&e.SourceAddress,
		&e.RecordedAt,
		&e.PreviousHash,
		&e.EntryHash,
	)
	if err != nil {
		return Entry{}, err
	}
	// CHAR(64) columns may round-trip padded on exotic collations.
	e.EntryHash = strings.TrimSpace(e.EntryHash)
	return e, nil
}

func collectEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// isUniqueViolation reports Postgres error class 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
