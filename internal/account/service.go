package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"integrity-portal/internal/rbac"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("account: not found")
	ErrInvalidArgument    = errors.New("account: invalid argument")
	ErrInvalidCredentials = errors.New("account: invalid credentials")
	ErrInactive           = errors.New("account: account deactivated")
	ErrUsernameTaken      = errors.New("account: username already exists")
)

// Repository is the persistence contract for staff accounts.
type Repository interface {
	GetByID(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, u User) (User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetPasswordHash(ctx context.Context, id int64, hash string) error
	SetLastLogin(ctx context.Context, id int64, at time.Time) error
	ListOfficers(ctx context.Context) ([]User, error)
	Stats(ctx context.Context) (Stats, error)
}

type Service struct {
	repo Repository
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

const (
	minUsernameLen = 3
	minPasswordLen = 8
)

// Authenticate verifies credentials and records the login time.
// An inactive account fails after the password check so the caller can
// audit the distinct failure reason.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, ErrInvalidArgument
	}
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return u, ErrInactive
	}

	now := s.clock().UTC()
	if err := s.repo.SetLastLogin(ctx, u.ID, now); err != nil {
		return User{}, err
	}
	u.LastLogin = now
	return u, nil
}

type CreateOfficerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	Password     string `json:"password"`
	DepartmentID int64  `json:"department_id"`
}

func (s *Service) CreateOfficer(ctx context.Context, req CreateOfficerRequest) (User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < minUsernameLen {
		return User{}, ErrInvalidArgument
	}
	if len(req.Password) < minPasswordLen {
		return User{}, ErrInvalidArgument
	}
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return User{}, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, User{
		Username:     req.Username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Role:         rbac.RoleOfficer,
		DepartmentID: req.DepartmentID,
		IsActive:     true,
		CreatedAt:    s.clock().UTC(),
	})
}

// ToggleActive flips the active flag and returns the updated user.
func (s *Service) ToggleActive(ctx context.Context, officerID int64) (User, error) {
	u, err := s.repo.GetByID(ctx, officerID)
	if err != nil {
		return User{}, err
	}
	if u.Role != rbac.RoleOfficer {
		return User{}, ErrInvalidArgument
	}
	if err := s.repo.SetActive(ctx, u.ID, !u.IsActive); err != nil {
		return User{}, err
	}
	u.IsActive = !u.IsActive
	return u, nil
}

func (s *Service) ResetPassword(ctx context.Context, officerID int64, newPassword string) (User, error) {
	if len(newPassword) < minPasswordLen {
		return User{}, ErrInvalidArgument
	}
	u, err := s.repo.GetByID(ctx, officerID)
	if err != nil {
		return User{}, err
	}
	if u.Role != rbac.RoleOfficer {
		return User{}, ErrInvalidArgument
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return User{}, err
	}
	if err := s.repo.SetPasswordHash(ctx, u.ID, hash); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListOfficers(ctx context.Context) ([]User, error) {
	return s.repo.ListOfficers(ctx)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

func hashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
