package complaint

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]Complaint
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{nextID: 1, rows: make(map[int64]Complaint)}
}

func (r *MemoryRepo) Create(_ context.Context, c *Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID
	r.nextID++
	r.rows[c.ID] = *c
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id int64) (Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.rows[id]
	if !ok {
		return Complaint{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) GetByTrackingID(_ context.Context, trackingID string) (Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.rows {
		if c.TrackingID == trackingID {
			return c, nil
		}
	}
	return Complaint{}, ErrNotFound
}

func (r *MemoryRepo) Update(_ context.Context, c *Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[c.ID]; !ok {
		return ErrNotFound
	}
	r.rows[c.ID] = *c
	return nil
}

func matches(c Complaint, f ListFilter) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.DepartmentID != 0 && c.DepartmentID != f.DepartmentID {
		return false
	}
	if f.AssignedTo != 0 && c.AssignedTo != f.AssignedTo {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(c.TrackingID), needle) &&
			!strings.Contains(strings.ToLower(c.CitizenName), needle) &&
			!strings.Contains(strings.ToLower(c.Description), needle) {
			return false
		}
	}
	return true
}

func (r *MemoryRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]Complaint, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []Complaint
	for _, c := range r.rows {
		if matches(c, f) {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}
