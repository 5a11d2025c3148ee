package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu       sync.RWMutex
	nextDep  int64
	nextSvc  int64
	deps     map[int64]Department
	services map[int64]Service
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		nextDep:  1,
		nextSvc:  1,
		deps:     make(map[int64]Department),
		services: make(map[int64]Service),
	}
}

func (r *MemoryRepo) CreateDepartment(_ context.Context, d *Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.deps {
		if strings.EqualFold(existing.Name, d.Name) {
			return ErrDuplicateName
		}
	}
	d.ID = r.nextDep
	r.nextDep++
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	r.deps[d.ID] = *d
	return nil
}

func (r *MemoryRepo) GetDepartment(_ context.Context, id int64) (Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.deps[id]
	if !ok {
		return Department{}, ErrNotFound
	}
	return d, nil
}

func (r *MemoryRepo) ListDepartments(_ context.Context) ([]Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Department, 0, len(r.deps))
	for _, d := range r.deps {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) CreateService(_ context.Context, s *Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.services {
		if existing.DepartmentID == s.DepartmentID && strings.EqualFold(existing.Name, s.Name) {
			return ErrDuplicateName
		}
	}
	s.ID = r.nextSvc
	r.nextSvc++
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.services[s.ID] = *s
	return nil
}

func (r *MemoryRepo) GetService(_ context.Context, id int64) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.services[id]
	if !ok {
		return Service{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) ListServices(_ context.Context, departmentID int64) ([]Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Service, 0)
	for _, s := range r.services {
		if s.DepartmentID == departmentID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
