package complaint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"integrity-portal/internal/auth"
	"integrity-portal/internal/rbac"
)

var (
	ErrNotFound          = errors.New("complaint not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("complaint not accessible to this officer")
)

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Status       string
	DepartmentID int64
	AssignedTo   int64
	// Search matches tracking ID, citizen name or description,
	// case-insensitively.
	Search string
}

// Repository is the persistence boundary for complaints.
type Repository interface {
	Create(ctx context.Context, c *Complaint) error
	GetByID(ctx context.Context, id int64) (Complaint, error)
	GetByTrackingID(ctx context.Context, trackingID string) (Complaint, error)
	Update(ctx context.Context, c *Complaint) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]Complaint, int, error)
}

const (
	defaultListLimit  = 20
	minDescriptionLen = 50
	maxDescriptionLen = 5000
)

// Service owns complaint lifecycle rules: intake, the status flow,
// assignment and note-taking. Audit recording is the caller's job so
// that one HTTP request appends exactly one ledger entry.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// SubmitRequest carries a citizen's intake form.
type SubmitRequest struct {
	DepartmentID int64
	ServiceID    int64
	Description  string
	Location     string
	CitizenName  string
	CitizenEmail string
	CitizenPhone string
	EvidencePath string
}

func (r SubmitRequest) validate() error {
	var problems []string
	if r.DepartmentID == 0 {
		problems = append(problems, "department is required")
	}
	if r.ServiceID == 0 {
		problems = append(problems, "service is required")
	}
	switch n := len(strings.TrimSpace(r.Description)); {
	case n == 0:
		problems = append(problems, "description is required")
	case n < minDescriptionLen:
		problems = append(problems, fmt.Sprintf("description must be at least %d characters", minDescriptionLen))
	case n > maxDescriptionLen:
		problems = append(problems, fmt.Sprintf("description must be at most %d characters", maxDescriptionLen))
	}
	if strings.TrimSpace(r.CitizenName) == "" {
		problems = append(problems, "citizen name is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, strings.Join(problems, "; "))
	}
	return nil
}

// Submit files a new complaint and returns it with its tracking ID.
// The caller must have validated the department/service pairing.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (Complaint, error) {
	if err := req.validate(); err != nil {
		return Complaint{}, err
	}
	now := s.clock().UTC()
	trackingID, err := newTrackingID(ctx, s.repo, now)
	if err != nil {
		return Complaint{}, err
	}
	c := Complaint{
		TrackingID:   trackingID,
		DepartmentID: req.DepartmentID,
		ServiceID:    req.ServiceID,
		Description:  strings.TrimSpace(req.Description),
		Location:     strings.TrimSpace(req.Location),
		CitizenName:  strings.TrimSpace(req.CitizenName),
		CitizenEmail: strings.TrimSpace(req.CitizenEmail),
		CitizenPhone: strings.TrimSpace(req.CitizenPhone),
		EvidencePath: req.EvidencePath,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		return Complaint{}, fmt.Errorf("create complaint: %w", err)
	}
	return c, nil
}

// AttachEvidence records the stored path of an uploaded file on the
// complaint. Called right after intake once the upload lands on disk.
func (s *Service) AttachEvidence(ctx context.Context, id int64, path string) (Complaint, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Complaint{}, err
	}
	c.EvidencePath = path
	c.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, &c); err != nil {
		return Complaint{}, fmt.Errorf("attach evidence to complaint %d: %w", id, err)
	}
	return c, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (Complaint, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByTrackingID is the public status-check path. Malformed IDs are
// rejected without touching the store.
func (s *Service) GetByTrackingID(ctx context.Context, trackingID string) (Complaint, error) {
	trackingID = strings.ToUpper(strings.TrimSpace(trackingID))
	if !ValidTrackingID(trackingID) {
		return Complaint{}, fmt.Errorf("%w: malformed tracking id", ErrNotFound)
	}
	return s.repo.GetByTrackingID(ctx, trackingID)
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]Complaint, int, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, f.Status)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, f, limit, offset)
}

// CanAccess reports whether the authenticated identity may view or act
// on the complaint. Admins see everything; officers see complaints in
// their department or assigned to them.
func CanAccess(id auth.Identity, c Complaint) bool {
	if rbac.IsAdmin(id.Role) {
		return true
	}
	if !rbac.IsOfficer(id.Role) {
		return false
	}
	return c.DepartmentID == id.DepartmentID || (c.AssignedTo != 0 && c.AssignedTo == id.UserID)
}

// UpdateStatus moves a complaint along the status flow. Closing stamps
// ResolvedAt; any other transition clears it.
func (s *Service) UpdateStatus(ctx context.Context, id int64, newStatus string, actor auth.Identity) (Complaint, error) {
	if !ValidStatus(newStatus) {
		return Complaint{}, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, newStatus)
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Complaint{}, err
	}
	if !CanAccess(actor, c) {
		return Complaint{}, ErrForbidden
	}
	if !CanTransition(c.Status, newStatus) {
		return Complaint{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, newStatus)
	}
	now := s.clock().UTC()
	c.Status = newStatus
	c.UpdatedAt = now
	if newStatus == StatusClosed {
		c.ResolvedAt = now
	}
	if err := s.repo.Update(ctx, &c); err != nil {
		return Complaint{}, fmt.Errorf("update complaint %d: %w", id, err)
	}
	return c, nil
}

// Assign hands a complaint to an officer. Admin-only; the HTTP layer
// enforces the role, this just records it.
func (s *Service) Assign(ctx context.Context, id, officerID int64) (Complaint, error) {
	if officerID == 0 {
		return Complaint{}, fmt.Errorf("%w: officer is required", ErrInvalidArgument)
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Complaint{}, err
	}
	c.AssignedTo = officerID
	c.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, &c); err != nil {
		return Complaint{}, fmt.Errorf("assign complaint %d: %w", id, err)
	}
	return c, nil
}

// SelfAssign lets an officer claim an unassigned complaint in their
// department. A Pending complaint moves to Under Review at the same
// time, since someone is now looking at it.
func (s *Service) SelfAssign(ctx context.Context, id int64, actor auth.Identity) (Complaint, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Complaint{}, err
	}
	if !CanAccess(actor, c) {
		return Complaint{}, ErrForbidden
	}
	if c.AssignedTo != 0 && c.AssignedTo != actor.UserID {
		return Complaint{}, fmt.Errorf("%w: already assigned", ErrInvalidArgument)
	}
	c.AssignedTo = actor.UserID
	if c.Status == StatusPending {
		c.Status = StatusUnderReview
	}
	c.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, &c); err != nil {
		return Complaint{}, fmt.Errorf("self-assign complaint %d: %w", id, err)
	}
	return c, nil
}

// AddNote appends a timestamped, attributed line to the complaint's
// notes. Notes are append-only; there is no edit or delete.
func (s *Service) AddNote(ctx context.Context, id int64, text string, actor auth.Identity) (Complaint, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Complaint{}, fmt.Errorf("%w: note text is required", ErrInvalidArgument)
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Complaint{}, err
	}
	if !CanAccess(actor, c) {
		return Complaint{}, ErrForbidden
	}
	now := s.clock().UTC()
	line := fmt.Sprintf("[%s] %s: %s", now.Format("2006-01-02 15:04"), actor.Username, text)
	if c.Notes != "" {
		c.Notes += "\n"
	}
	c.Notes += line
	c.UpdatedAt = now
	if err := s.repo.Update(ctx, &c); err != nil {
		return Complaint{}, fmt.Errorf("add note to complaint %d: %w", id, err)
	}
	return c, nil
}
