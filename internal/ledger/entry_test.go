package ledger

import (
	"testing"
	"time"
)

func baseEntry() Entry {
	return Entry{
		ActorName:    "officer_water",
		ActorRole:    "officer",
		Action:       ActionStatusUpdate,
		Details:      "old=Pending,new=Under Review",
		RecordedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		PreviousHash: "",
	}
}

func TestComputeHash_Deterministic(t *testing.T) {
	e := baseEntry()
	h1, err := ComputeHash(e)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	h2, err := ComputeHash(e)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected identical digests, got %s and %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h1))
	}
}

func TestComputeHash_EveryFieldChangesDigest(t *testing.T) {
	base := baseEntry()
	baseHash, err := ComputeHash(base)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	mutations := map[string]func(*Entry){
		"actor_name":    func(e *Entry) { e.ActorName = "officer_roads" },
		"actor_role":    func(e *Entry) { e.ActorRole = "admin" },
		"action":        func(e *Entry) { e.Action = ActionNotesAdded },
		"details":       func(e *Entry) { e.Details = "old=Pending,new=Closed" },
		"recorded_at":   func(e *Entry) { e.RecordedAt = e.RecordedAt.Add(time.Microsecond) },
		"previous_hash": func(e *Entry) { e.PreviousHash = "deadbeef" },
	}
	for field, mutate := range mutations {
		e := baseEntry()
		mutate(&e)
		h, err := ComputeHash(e)
		if err != nil {
			t.Fatalf("%s: unexpected err: %v", field, err)
		}
		if h == baseHash {
			t.Fatalf("changing %s did not change the digest", field)
		}
	}
}

func TestComputeHash_IgnoresSequenceAndStoredHash(t *testing.T) {
	a := baseEntry()
	b := baseEntry()
	b.SequenceID = 42
	b.EntryHash = "ffffffff"
	b.SourceAddress = "10.0.0.1"
	ha, _ := ComputeHash(a)
	hb, _ := ComputeHash(b)
	if ha != hb {
		t.Fatalf("digest must depend only on the canonical payload fields")
	}
}

func TestEncodeDetails(t *testing.T) {
	if got := EncodeDetails(nil); got != "" {
		t.Fatalf("expected empty for nil, got %q", got)
	}
	if got := EncodeDetails("tracking_id=MIB3A9F2K1"); got != "tracking_id=MIB3A9F2K1" {
		t.Fatalf("expected passthrough, got %q", got)
	}
	got := EncodeDetails(map[string]string{"tracking_id": "MIB3A9F2K1"})
	if got != `{"tracking_id":"MIB3A9F2K1"}` {
		t.Fatalf("unexpected encoding: %q", got)
	}
}
