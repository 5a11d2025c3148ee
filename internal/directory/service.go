package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDuplicateName   = errors.New("name already exists")
	// ErrMismatch is returned when a service does not belong to the
	// department it was submitted under.
	ErrMismatch = errors.New("service does not belong to department")
)

// Repository is the persistence boundary for the department/service catalog.
type Repository interface {
	CreateDepartment(ctx context.Context, d *Department) error
	GetDepartment(ctx context.Context, id int64) (Department, error)
	ListDepartments(ctx context.Context) ([]Department, error)

	CreateService(ctx context.Context, s *Service) error
	GetService(ctx context.Context, id int64) (Service, error)
	ListServices(ctx context.Context, departmentID int64) ([]Service, error)
}

// Directory exposes the department and service catalog.
type Directory struct {
	repo Repository
}

func New(repo Repository) *Directory {
	return &Directory{repo: repo}
}

func (d *Directory) CreateDepartment(ctx context.Context, name, description string) (Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Department{}, fmt.Errorf("%w: department name is required", ErrInvalidArgument)
	}
	dep := Department{Name: name, Description: strings.TrimSpace(description)}
	if err := d.repo.CreateDepartment(ctx, &dep); err != nil {
		return Department{}, fmt.Errorf("create department: %w", err)
	}
	return dep, nil
}

func (d *Directory) GetDepartment(ctx context.Context, id int64) (Department, error) {
	return d.repo.GetDepartment(ctx, id)
}

func (d *Directory) ListDepartments(ctx context.Context) ([]Department, error) {
	return d.repo.ListDepartments(ctx)
}

func (d *Directory) CreateService(ctx context.Context, departmentID int64, name, description string) (Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Service{}, fmt.Errorf("%w: service name is required", ErrInvalidArgument)
	}
	if _, err := d.repo.GetDepartment(ctx, departmentID); err != nil {
		return Service{}, fmt.Errorf("lookup department %d: %w", departmentID, err)
	}
	svc := Service{DepartmentID: departmentID, Name: name, Description: strings.TrimSpace(description)}
	if err := d.repo.CreateService(ctx, &svc); err != nil {
		return Service{}, fmt.Errorf("create service: %w", err)
	}
	return svc, nil
}

func (d *Directory) GetService(ctx context.Context, id int64) (Service, error) {
	return d.repo.GetService(ctx, id)
}

// ListServices returns the services of one department, for the
// dependent dropdown on the intake form.
func (d *Directory) ListServices(ctx context.Context, departmentID int64) ([]Service, error) {
	return d.repo.ListServices(ctx, departmentID)
}

// ValidateSelection checks that the submitted service belongs to the
// submitted department. Intake must not trust the client-side pairing.
func (d *Directory) ValidateSelection(ctx context.Context, departmentID, serviceID int64) (Department, Service, error) {
	dep, err := d.repo.GetDepartment(ctx, departmentID)
	if err != nil {
		return Department{}, Service{}, fmt.Errorf("lookup department %d: %w", departmentID, err)
	}
	svc, err := d.repo.GetService(ctx, serviceID)
	if err != nil {
		return Department{}, Service{}, fmt.Errorf("lookup service %d: %w", serviceID, err)
	}
	if svc.DepartmentID != dep.ID {
		return Department{}, Service{}, ErrMismatch
	}
	return dep, svc, nil
}
