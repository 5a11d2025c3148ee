package account

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedOfficer(t *testing.T, svc *Service) User {
	t.Helper()
	u, err := svc.CreateOfficer(context.Background(), CreateOfficerRequest{
		Username:     "officer_water",
		Password:     "correct-horse",
		DepartmentID: 3,
	})
	if err != nil {
		t.Fatalf("seed officer: %v", err)
	}
	return u
}

func TestCreateOfficer_Validation(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	if _, err := svc.CreateOfficer(ctx, CreateOfficerRequest{Username: "ab", Password: "longenough"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid username, got %v", err)
	}
	if _, err := svc.CreateOfficer(ctx, CreateOfficerRequest{Username: "valid", Password: "short"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid password, got %v", err)
	}

	seedOfficer(t, svc)
	if _, err := svc.CreateOfficer(ctx, CreateOfficerRequest{Username: "officer_water", Password: "longenough"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	loginAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return loginAt }
	u := seedOfficer(t, svc)
	ctx := context.Background()

	got, err := svc.Authenticate(ctx, "officer_water", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("expected user %d, got %d", u.ID, got.ID)
	}
	if !got.LastLogin.Equal(loginAt) {
		t.Fatalf("expected last login recorded, got %v", got.LastLogin)
	}

	if _, err := svc.Authenticate(ctx, "officer_water", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestAuthenticate_InactiveDistinctFailure(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	u := seedOfficer(t, svc)
	ctx := context.Background()

	if _, err := svc.ToggleActive(ctx, u.ID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, err := svc.Authenticate(ctx, "officer_water", "correct-horse")
	if !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
	// Caller still gets the user so the failure can be audited per account.
	if got.ID != u.ID {
		t.Fatalf("expected user returned with ErrInactive")
	}
}

func TestResetPassword(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	u := seedOfficer(t, svc)
	ctx := context.Background()

	if _, err := svc.ResetPassword(ctx, u.ID, "short"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid password, got %v", err)
	}
	if _, err := svc.ResetPassword(ctx, u.ID, "new-password-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "officer_water", "new-password-1"); err != nil {
		t.Fatalf("expected new password to authenticate, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "officer_water", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
}

func TestStats(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	seedOfficer(t, svc)
	if _, err := repo.Create(context.Background(), User{Username: "admin", Role: "admin", IsActive: true, PasswordHash: "x"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	s, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.TotalUsers != 2 || s.Officers != 1 || s.Admins != 1 || s.ActiveUsers != 2 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}
