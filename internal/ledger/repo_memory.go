package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory append-only repository useful for tests.
// It is not intended for production use.
//
// The Corrupt and Remove hooks mutate storage directly, bypassing Append,
// so tamper- and deletion-detection behavior can be exercised.
type MemoryRepo struct {
	mu      sync.Mutex
	nextSeq int64
	entries []Entry
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{nextSeq: 1} }

func (r *MemoryRepo) Tail(ctx context.Context) (Entry, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}, false, nil
	}
	return r.entries[len(r.entries)-1], true, nil
}

func (r *MemoryRepo) Insert(ctx context.Context, e Entry) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, have := range r.entries {
		if have.PreviousHash == e.PreviousHash {
			return Entry{}, ErrConflict
		}
		if have.EntryHash == e.EntryHash {
			return Entry{}, ErrConflict
		}
	}
	e.SequenceID = r.nextSeq
	r.nextSeq++
	r.entries = append(r.entries, e)
	return e, nil
}

func (r *MemoryRepo) Range(ctx context.Context, from, to int64) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if from > 0 && e.SequenceID < from {
			continue
		}
		if to > 0 && e.SequenceID > to {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceID < out[j].SequenceID })
	return out, nil
}

func (r *MemoryRepo) Search(ctx context.Context, f SearchFilter, p Page) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.ActorName != "" && !strings.Contains(strings.ToLower(e.ActorName), strings.ToLower(f.ActorName)) {
			continue
		}
		if f.DetailsLike != "" && !strings.Contains(strings.ToLower(e.Details), strings.ToLower(f.DetailsLike)) {
			continue
		}
		if !f.From.IsZero() && e.RecordedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.RecordedAt.After(f.To) {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].RecordedAt.Equal(matched[j].RecordedAt) {
			return matched[i].SequenceID > matched[j].SequenceID
		}
		return matched[i].RecordedAt.After(matched[j].RecordedAt)
	})
	if p.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[p.Offset:]
	if p.Limit > 0 && len(matched) > p.Limit {
		matched = matched[:p.Limit]
	}
	out := make([]Entry, len(matched))
	copy(out, matched)
	return out, nil
}

func (r *MemoryRepo) Actions(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, e := range r.entries {
		if _, ok := seen[e.Action]; ok {
			continue
		}
		seen[e.Action] = struct{}{}
		out = append(out, e.Action)
	}
	sort.Strings(out)
	return out, nil
}

func (r *MemoryRepo) CountByRoleSince(ctx context.Context, role string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.ActorRole == role && !e.RecordedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored entries.
func (r *MemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Corrupt mutates the stored entry with the given sequence id in place,
// bypassing Append. Test hook only.
func (r *MemoryRepo) Corrupt(seq int64, fn func(*Entry)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].SequenceID == seq {
			fn(&r.entries[i])
			return
		}
	}
}

// Remove deletes the stored entry with the given sequence id, bypassing the
// append-only contract. Test hook only.
func (r *MemoryRepo) Remove(seq int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].SequenceID == seq {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}
