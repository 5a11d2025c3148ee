package account

import (
	"context"
	"sync"
	"time"

	"integrity-portal/internal/rbac"
)

// MemoryRepo is an in-memory account repository useful for tests.
// It is not intended for production use.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{nextID: 1, users: map[int64]User{}}
}

func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) Create(ctx context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, have := range r.users {
		if have.Username == u.Username {
			return User{}, ErrUsernameTaken
		}
	}
	u.ID = r.nextID
	r.nextID++
	r.users[u.ID] = u
	return u, nil
}

func (r *MemoryRepo) SetActive(ctx context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	r.users[id] = u
	return nil
}

func (r *MemoryRepo) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	r.users[id] = u
	return nil
}

func (r *MemoryRepo) SetLastLogin(ctx context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLogin = at
	r.users[id] = u
	return nil
}

func (r *MemoryRepo) ListOfficers(ctx context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []User
	for _, u := range r.users {
		if u.Role == rbac.RoleOfficer {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *MemoryRepo) Stats(ctx context.Context) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s Stats
	for _, u := range r.users {
		s.TotalUsers++
		switch u.Role {
		case rbac.RoleOfficer:
			s.Officers++
		case rbac.RoleAdmin:
			s.Admins++
		}
		if u.IsActive {
			s.ActiveUsers++
		}
	}
	return s, nil
}
