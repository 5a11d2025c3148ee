package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestService(repo Repository) *Service {
	svc := NewService(repo)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	svc.clock = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return svc
}

func TestAppend_FirstEntryHasEmptyPreviousHash(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)

	e, err := svc.Append(context.Background(), Anonymous(), ActionComplaintSubmitted, "tracking_id=MIB3A9F2K1", "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if e.SequenceID != 1 {
		t.Fatalf("expected sequence 1, got %d", e.SequenceID)
	}
	if e.PreviousHash != "" {
		t.Fatalf("expected empty previous hash, got %q", e.PreviousHash)
	}
	if e.ActorName != AnonymousName || e.ActorRole != GuestRole {
		t.Fatalf("expected anonymous sentinels, got %q/%q", e.ActorName, e.ActorRole)
	}

	res, err := svc.VerifyChain(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !res.OK || res.Checked != 1 {
		t.Fatalf("expected single-entry chain to verify, got %+v", res)
	}
}

func TestAppend_ChainsToPriorTail(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.Append(ctx, Anonymous(), ActionComplaintSubmitted, "tracking_id=MIB3A9F2K1", "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	second, err := svc.Append(ctx, Actor{UserID: "7", Name: "officer_water", Role: "officer"}, ActionStatusUpdate, "old=Pending,new=Under Review", "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if second.PreviousHash != first.EntryHash {
		t.Fatalf("expected entry #2 to reference entry #1's hash")
	}
	res, err := svc.VerifyChain(ctx, 1, 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !res.OK || res.Checked != 2 {
		t.Fatalf("expected VerifyChain(1,2) success, got %+v", res)
	}
}

func TestAppend_RejectsEmptyAction(t *testing.T) {
	svc := newTestService(NewMemoryRepo())
	if _, err := svc.Append(context.Background(), Anonymous(), "  ", "", ""); err != ErrInvalidAction {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestAppend_ConcurrentChainIntegrity(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Append(ctx, Anonymous(), ActionComplaintSubmitted, fmt.Sprintf("i=%d", i), "")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected append err: %v", err)
		}
	}

	res, err := svc.VerifyChain(ctx, 0, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !res.OK || res.Checked != n {
		t.Fatalf("expected %d verified entries, got %+v", n, res)
	}

	entries, err := repo.Range(ctx, 0, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	seen := map[string]int64{}
	for _, e := range entries {
		if prior, dup := seen[e.PreviousHash]; dup {
			t.Fatalf("entries %d and %d share previous_hash %q", prior, e.SequenceID, e.PreviousHash)
		}
		seen[e.PreviousHash] = e.SequenceID
	}
}

func TestAppend_RetriesOnConflict(t *testing.T) {
	repo := &flakyRepo{MemoryRepo: NewMemoryRepo(), failures: 2}
	svc := newTestService(repo)

	e, err := svc.Append(context.Background(), Anonymous(), ActionComplaintSubmitted, "", "")
	if err != nil {
		t.Fatalf("expected bounded retry to recover, got %v", err)
	}
	if e.SequenceID != 1 {
		t.Fatalf("expected sequence 1, got %d", e.SequenceID)
	}
}

func TestAppend_SurfacesExhaustedRetries(t *testing.T) {
	repo := &flakyRepo{MemoryRepo: NewMemoryRepo(), failures: maxAppendAttempts}
	svc := newTestService(repo)

	if _, err := svc.Append(context.Background(), Anonymous(), ActionComplaintSubmitted, "", ""); err == nil {
		t.Fatalf("expected failure after retries exhausted")
	}
	if repo.Len() != 0 {
		t.Fatalf("no entry may persist after a failed append")
	}
}

// flakyRepo rejects the first `failures` inserts with ErrConflict.
type flakyRepo struct {
	*MemoryRepo
	failures int
}

func (r *flakyRepo) Insert(ctx context.Context, e Entry) (Entry, error) {
	if r.failures > 0 {
		r.failures--
		return Entry{}, ErrConflict
	}
	return r.MemoryRepo.Insert(ctx, e)
}

func TestVerifyChain_DetectsInPlaceTampering(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Append(ctx, Anonymous(), ActionComplaintSubmitted, fmt.Sprintf("i=%d", i), ""); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	repo.Corrupt(2, func(e *Entry) { e.Details = "i=999" })

	res, err := svc.VerifyChain(ctx, 0, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.OK {
		t.Fatalf("expected verification failure")
	}
	if res.BadSequence != 2 || res.Kind != MismatchEntry {
		t.Fatalf("expected entry-hash mismatch at sequence 2, got %+v", res)
	}
}

func TestVerifyChain_DetectsDeletion(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Append(ctx, Anonymous(), ActionComplaintSubmitted, fmt.Sprintf("i=%d", i), ""); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	repo.Remove(2)

	res, err := svc.VerifyChain(ctx, 0, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.OK {
		t.Fatalf("expected verification failure")
	}
	if res.BadSequence != 3 || res.Kind != MismatchLink {
		t.Fatalf("expected link mismatch at sequence 3, got %+v", res)
	}
}

func TestVerifyChain_Idempotent(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := svc.Append(ctx, Anonymous(), ActionComplaintSubmitted, fmt.Sprintf("i=%d", i), ""); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	repo.Corrupt(3, func(e *Entry) { e.ActorName = "intruder" })

	first, err := svc.VerifyChain(ctx, 0, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	second, err := svc.VerifyChain(ctx, 0, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical results, got %+v then %+v", first, second)
	}
}

func TestVerifyChain_MidChainRangeAnchorsOnRangeHead(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Append(ctx, Anonymous(), ActionComplaintSubmitted, fmt.Sprintf("i=%d", i), ""); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	res, err := svc.VerifyChain(ctx, 3, 5)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !res.OK || res.Checked != 3 {
		t.Fatalf("expected mid-chain range to verify, got %+v", res)
	}
}

func TestQuery_OrdersByRecordedAtDescending(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Append(ctx, Anonymous(), ActionComplaintSubmitted, fmt.Sprintf("i=%d", i), ""); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	out, err := svc.Query(ctx, Filter{}, Page{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].RecordedAt.After(out[i-1].RecordedAt) {
			t.Fatalf("entries not in recorded_at descending order")
		}
	}
	if out[0].Details != "i=2" || out[2].Details != "i=0" {
		t.Fatalf("expected most recent first, got %q .. %q", out[0].Details, out[2].Details)
	}
}

func TestQuery_Filters(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.Append(ctx, Anonymous(), ActionComplaintSubmitted, "", ""); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.Append(ctx, Actor{UserID: "7", Name: "officer_water", Role: "officer"}, ActionStatusUpdate, "", ""); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.Append(ctx, Actor{UserID: "1", Name: "admin", Role: "admin"}, ActionOfficerCreated, "", ""); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	byAction, err := svc.Query(ctx, Filter{Action: ActionStatusUpdate}, Page{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(byAction) != 1 || byAction[0].ActorName != "officer_water" {
		t.Fatalf("expected the one status update, got %d entries", len(byAction))
	}

	byName, err := svc.Query(ctx, Filter{ActorName: "WATER"}, Page{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(byName) != 1 {
		t.Fatalf("expected substring match to be case-insensitive, got %d", len(byName))
	}

	// Entries are recorded in 2025; a 2030 window matches nothing.
	none, err := svc.Query(ctx, Filter{DateFrom: "2030-01-01", DateTo: "2030-01-02"}, Page{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected empty result, got %d", len(none))
	}

	// Malformed dates are dropped, not errors.
	all, err := svc.Query(ctx, Filter{DateFrom: "not-a-date", DateTo: "also-bad"}, Page{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected malformed dates ignored, got %d entries", len(all))
	}
}

func TestQuery_InclusiveDateWindow(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time {
		return time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	}
	if _, err := svc.Append(context.Background(), Anonymous(), ActionComplaintSubmitted, "", ""); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	out, err := svc.Query(context.Background(), Filter{DateFrom: "2025-06-01", DateTo: "2025-06-01"}, Page{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected a 23:30 entry inside the inclusive day window, got %d", len(out))
	}
}

func TestListActions_Distinct(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Append(ctx, Anonymous(), ActionComplaintSubmitted, "", ""); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if _, err := svc.Append(ctx, Anonymous(), ActionComplaintTracked, "", ""); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	actions, err := svc.ListActions(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected 2 distinct actions, got %v", actions)
	}
}

func TestQuery_ReferenceMatchesDetails(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	details := EncodeDetails(map[string]string{"tracking_id": "MIBAB12CD34"})
	if _, err := svc.Append(ctx, Anonymous(), ActionComplaintSubmitted, details, ""); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.Append(ctx, Anonymous(), ActionComplaintTracked, "", ""); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	out, err := svc.Query(ctx, Filter{Reference: "mibab12cd34"}, Page{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(out) != 1 || out[0].Action != ActionComplaintSubmitted {
		t.Fatalf("reference filter returned %v", out)
	}
}
