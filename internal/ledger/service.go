package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidAction = errors.New("ledger: action code required")

	// ErrConflict reports a lost append race at the storage layer
	// (another writer claimed the same previous_hash). The service retries
	// internally; callers only see it wrapped after retries are exhausted.
	ErrConflict = errors.New("ledger: concurrent append conflict")
)

// Repository is the persistence contract for the audit ledger.
//
// It MUST be append-only. No Update/Delete methods are provided by design.
type Repository interface {
	// Tail returns the entry with the highest sequence id, if any.
	Tail(ctx context.Context) (Entry, bool, error)

	// Insert persists e, assigns its sequence id, and returns the stored
	// entry. Implementations must reject a second entry claiming an
	// already-used previous_hash with ErrConflict.
	Insert(ctx context.Context, e Entry) (Entry, error)

	// Range returns entries in ascending sequence order. Zero bounds mean
	// unbounded on that side.
	Range(ctx context.Context, from, to int64) ([]Entry, error)

	// Search returns entries matching f, ordered by recorded_at descending.
	Search(ctx context.Context, f SearchFilter, p Page) ([]Entry, error)

	// Actions returns the distinct action codes present in the ledger.
	Actions(ctx context.Context) ([]string, error)

	// CountByRoleSince counts entries recorded by the given actor role at or
	// after the given instant. Used by activity reporting.
	CountByRoleSince(ctx context.Context, role string, since time.Time) (int, error)
}

// Service owns the chain tail. All appends funnel through one mutex, making
// the read-tail-then-insert sequence atomic with respect to other appends in
// this process; the storage uniqueness constraint on previous_hash catches
// races across processes, and the append is retried against the new tail.
type Service struct {
	repo Repository

	mu sync.Mutex
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// maxAppendAttempts bounds cross-process conflict retries before the append
// is surfaced as a durability failure.
const maxAppendAttempts = 3

// Append records an audited action as the new chain tail.
//
// The returned entry's entry_hash is unique in the ledger and its
// previous_hash references the prior tail as of its insertion point. On
// failure nothing is persisted; the audited action itself is not rolled
// back by this component.
func (s *Service) Append(ctx context.Context, actor Actor, action, details, sourceAddr string) (Entry, error) {
	if s.repo == nil {
		return Entry{}, errors.New("ledger: repository not configured")
	}
	if strings.TrimSpace(action) == "" {
		return Entry{}, ErrInvalidAction
	}
	if actor.Name == "" {
		actor.Name = AnonymousName
	}
	if actor.Role == "" {
		actor.Role = GuestRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		prevHash := ""
		tail, ok, err := s.repo.Tail(ctx)
		if err != nil {
			return Entry{}, fmt.Errorf("ledger: tail lookup failed: %w", err)
		}
		if ok {
			prevHash = tail.EntryHash
		}

		e := Entry{
			ActorUserID:   actor.UserID,
			ActorName:     actor.Name,
			ActorRole:     actor.Role,
			Action:        action,
			Details:       details,
			SourceAddress: sourceAddr,
			RecordedAt:    s.clock().UTC().Truncate(time.Microsecond),
			PreviousHash:  prevHash,
		}
		e.EntryHash, err = ComputeHash(e)
		if err != nil {
			return Entry{}, fmt.Errorf("ledger: hash computation failed: %w", err)
		}

		stored, err := s.repo.Insert(ctx, e)
		if err == nil {
			return stored, nil
		}
		if !errors.Is(err, ErrConflict) {
			return Entry{}, fmt.Errorf("ledger: append failed: %w", err)
		}
		// Lost a race against another process; re-read the tail and retry.
		lastErr = err
	}
	return Entry{}, fmt.Errorf("ledger: append retries exhausted: %w", lastErr)
}

// MismatchKind names which verification check failed.
type MismatchKind string

const (
	// MismatchEntry means the stored entry no longer hashes to its stored
	// entry_hash: the entry was altered in place.
	MismatchEntry MismatchKind = "entry_hash"
	// MismatchLink means previous_hash does not reference the prior entry's
	// entry_hash: a gap, reorder, or deleted entry.
	MismatchLink MismatchKind = "previous_hash"
)

// VerifyResult reports the outcome of a chain scan. A failure always carries
// the offending sequence id and mismatch kind for operator investigation.
type VerifyResult struct {
	OK          bool         `json:"ok"`
	Checked     int          `json:"checked"`
	BadSequence int64        `json:"bad_sequence,omitempty"`
	Kind        MismatchKind `json:"kind,omitempty"`
}

// VerifyChain recomputes each entry's digest over [from, to] in ascending
// sequence order and checks every previous_hash link. Zero bounds scan the
// whole ledger. Read-only and side-effect-free; it may run concurrently
// with appends (a tail appended mid-scan is simply outside the scanned
// range).
//
// The link of the first scanned entry is checked against the empty sentinel
// when the range starts at the chain head (from <= 1); for mid-chain ranges
// the head link has no in-range predecessor and is accepted as the anchor.
func (s *Service) VerifyChain(ctx context.Context, from, to int64) (VerifyResult, error) {
	if s.repo == nil {
		return VerifyResult{}, errors.New("ledger: repository not configured")
	}
	entries, err := s.repo.Range(ctx, from, to)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("ledger: range read failed: %w", err)
	}

	prevHash := ""
	haveAnchor := from > 1
	res := VerifyResult{OK: true}
	for i, e := range entries {
		expected, err := ComputeHash(e)
		if err != nil {
			return VerifyResult{}, fmt.Errorf("ledger: hash recomputation failed: %w", err)
		}
		if expected != e.EntryHash {
			return VerifyResult{Checked: res.Checked, BadSequence: e.SequenceID, Kind: MismatchEntry}, nil
		}
		if i == 0 && haveAnchor {
			// Mid-chain range: trust the head's stored link.
		} else if e.PreviousHash != prevHash {
			return VerifyResult{Checked: res.Checked, BadSequence: e.SequenceID, Kind: MismatchLink}, nil
		}
		prevHash = e.EntryHash
		res.Checked++
	}
	return res, nil
}

// Filter narrows an audit query. Date bounds are calendar days; a bound
// that fails to parse is dropped rather than rejected.
type Filter struct {
	Action    string
	ActorName string
	DateFrom  string // "2006-01-02"
	DateTo    string // "2006-01-02", inclusive
	// Reference matches against the details payload; complaint pages
	// use it with a tracking ID to pull their own trail.
	Reference string
}

// SearchFilter is the resolved form handed to repositories.
type SearchFilter struct {
	Action      string
	ActorName   string
	DetailsLike string
	From        time.Time
	To          time.Time
}

type Page struct {
	Limit  int
	Offset int
}

const defaultQueryLimit = 50

// Query returns matching entries ordered by recorded_at descending (most
// recent first). This display ordering is independent of the sequence order
// used for verification.
func (s *Service) Query(ctx context.Context, f Filter, p Page) ([]Entry, error) {
	if s.repo == nil {
		return nil, errors.New("ledger: repository not configured")
	}
	if p.Limit <= 0 {
		p.Limit = defaultQueryLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return s.repo.Search(ctx, resolveFilter(f), p)
}

// ListActions returns the distinct action codes for filter dropdowns.
func (s *Service) ListActions(ctx context.Context) ([]string, error) {
	if s.repo == nil {
		return nil, errors.New("ledger: repository not configured")
	}
	return s.repo.Actions(ctx)
}

// CountByRoleSince exposes the activity counter used by reporting.
func (s *Service) CountByRoleSince(ctx context.Context, role string, since time.Time) (int, error) {
	if s.repo == nil {
		return 0, errors.New("ledger: repository not configured")
	}
	return s.repo.CountByRoleSince(ctx, role, since)
}

const dateLayout = "2006-01-02"

func resolveFilter(f Filter) SearchFilter {
	out := SearchFilter{
		Action:      strings.TrimSpace(f.Action),
		ActorName:   strings.TrimSpace(f.ActorName),
		DetailsLike: strings.TrimSpace(f.Reference),
	}
	if d, err := time.Parse(dateLayout, strings.TrimSpace(f.DateFrom)); err == nil {
		out.From = d
	}
	if d, err := time.Parse(dateLayout, strings.TrimSpace(f.DateTo)); err == nil {
		// Inclusive calendar day: extend to its last second.
		out.To = d.Add(24*time.Hour - time.Second)
	}
	return out
}
