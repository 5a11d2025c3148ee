package reporting

import (
	"context"
	"fmt"
	"time"

	"integrity-portal/internal/rbac"
)

// Repository answers aggregate queries over the complaints tables.
type Repository interface {
	Overview(ctx context.Context) (Overview, error)
	DepartmentPerformance(ctx context.Context) ([]DepartmentPerformance, error)
	MonthlyCounts(ctx context.Context, from time.Time) ([]MonthlyCount, error)
	StatusBreakdown(ctx context.Context) ([]StatusCount, error)
	DepartmentCounts(ctx context.Context) ([]DepartmentCount, error)
	OfficerStats(ctx context.Context, officerID int64) (OfficerStats, error)
	CountComplaintsSince(ctx context.Context, since time.Time) (int, error)
	CountResolvedSince(ctx context.Context, since time.Time) (int, error)
}

// AuditCounter is the slice of the audit ledger reporting needs.
type AuditCounter interface {
	CountByRoleSince(ctx context.Context, role string, since time.Time) (int, error)
}

const monthlySeriesMonths = 12

// Service computes dashboard and chart figures. All heavy lifting is
// pushed into SQL; this layer shapes the results.
type Service struct {
	repo  Repository
	audit AuditCounter
	clock func() time.Time
}

func NewService(repo Repository, audit AuditCounter) *Service {
	return &Service{repo: repo, audit: audit, clock: time.Now}
}

func (s *Service) Overview(ctx context.Context) (Overview, error) {
	o, err := s.repo.Overview(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("overview: %w", err)
	}
	if o.Total > 0 {
		o.ResolutionRate = 100 * float64(o.Closed) / float64(o.Total)
	}
	return o, nil
}

func (s *Service) DepartmentPerformance(ctx context.Context) ([]DepartmentPerformance, error) {
	perf, err := s.repo.DepartmentPerformance(ctx)
	if err != nil {
		return nil, fmt.Errorf("department performance: %w", err)
	}
	for i := range perf {
		if perf[i].Total > 0 {
			perf[i].ResolutionRate = 100 * float64(perf[i].Closed) / float64(perf[i].Total)
		}
	}
	return perf, nil
}

// MonthlySeries returns the last twelve months of submission counts,
// oldest first, with empty months filled in as zero so charts do not
// skip them.
func (s *Service) MonthlySeries(ctx context.Context) ([]MonthlyCount, error) {
	now := s.clock().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -(monthlySeriesMonths - 1), 0)

	raw, err := s.repo.MonthlyCounts(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("monthly counts: %w", err)
	}
	byMonth := make(map[string]int, len(raw))
	for _, m := range raw {
		byMonth[m.Month] = m.Count
	}

	out := make([]MonthlyCount, 0, monthlySeriesMonths)
	for i := 0; i < monthlySeriesMonths; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		out = append(out, MonthlyCount{Month: key, Count: byMonth[key]})
	}
	return out, nil
}

func (s *Service) StatusBreakdown(ctx context.Context) ([]StatusCount, error) {
	return s.repo.StatusBreakdown(ctx)
}

func (s *Service) DepartmentCounts(ctx context.Context) ([]DepartmentCount, error) {
	return s.repo.DepartmentCounts(ctx)
}

func (s *Service) OfficerStats(ctx context.Context, officerID int64) (OfficerStats, error) {
	return s.repo.OfficerStats(ctx, officerID)
}

// RecentActivity summarizes the last 24 hours: new complaints from the
// complaints table, staff and citizen actions from the audit ledger.
func (s *Service) RecentActivity(ctx context.Context) (RecentActivity, error) {
	since := s.clock().UTC().Add(-24 * time.Hour)

	complaints, err := s.repo.CountComplaintsSince(ctx, since)
	if err != nil {
		return RecentActivity{}, fmt.Errorf("recent complaints: %w", err)
	}
	resolved, err := s.repo.CountResolvedSince(ctx, since)
	if err != nil {
		return RecentActivity{}, fmt.Errorf("recent resolutions: %w", err)
	}
	var staff int
	for _, role := range []string{rbac.RoleAdmin, rbac.RoleOfficer} {
		n, err := s.audit.CountByRoleSince(ctx, role, since)
		if err != nil {
			return RecentActivity{}, fmt.Errorf("recent %s actions: %w", role, err)
		}
		staff += n
	}
	citizens, err := s.audit.CountByRoleSince(ctx, rbac.RoleGuest, since)
	if err != nil {
		return RecentActivity{}, fmt.Errorf("recent guest actions: %w", err)
	}
	return RecentActivity{
		NewComplaints:  complaints,
		Resolved:       resolved,
		StaffActions:   staff,
		CitizenActions: citizens,
	}, nil
}
