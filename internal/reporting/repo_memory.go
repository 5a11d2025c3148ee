package reporting

import (
	"context"
	"sort"
	"time"

	"integrity-portal/internal/complaint"
)

// MemoryRepo computes aggregates over an in-memory complaint set.
// Tests load it directly; it mirrors the Postgres queries.
type MemoryRepo struct {
	Complaints  []complaint.Complaint
	Departments map[int64]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{Departments: make(map[int64]string)}
}

func (r *MemoryRepo) Overview(_ context.Context) (Overview, error) {
	var o Overview
	for _, c := range r.Complaints {
		o.Total++
		switch c.Status {
		case complaint.StatusPending:
			o.Pending++
		case complaint.StatusUnderReview:
			o.UnderReview++
		case complaint.StatusActionTaken:
			o.ActionTaken++
		case complaint.StatusClosed:
			o.Closed++
		}
	}
	return o, nil
}

func (r *MemoryRepo) sortedDepartmentIDs() []int64 {
	ids := make([]int64, 0, len(r.Departments))
	for id := range r.Departments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return r.Departments[ids[i]] < r.Departments[ids[j]] })
	return ids
}

func (r *MemoryRepo) DepartmentPerformance(_ context.Context) ([]DepartmentPerformance, error) {
	var out []DepartmentPerformance
	for _, id := range r.sortedDepartmentIDs() {
		p := DepartmentPerformance{DepartmentID: id, Name: r.Departments[id]}
		var resolved int
		var hours float64
		for _, c := range r.Complaints {
			if c.DepartmentID != id {
				continue
			}
			p.Total++
			if c.Status == complaint.StatusClosed {
				p.Closed++
			}
			if !c.ResolvedAt.IsZero() {
				resolved++
				hours += c.ResolvedAt.Sub(c.CreatedAt).Hours()
			}
		}
		if resolved > 0 {
			p.AvgResolutionHours = hours / float64(resolved)
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *MemoryRepo) MonthlyCounts(_ context.Context, from time.Time) ([]MonthlyCount, error) {
	byMonth := make(map[string]int)
	for _, c := range r.Complaints {
		if c.CreatedAt.Before(from) {
			continue
		}
		byMonth[c.CreatedAt.UTC().Format("2006-01")]++
	}
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	out := make([]MonthlyCount, 0, len(months))
	for _, m := range months {
		out = append(out, MonthlyCount{Month: m, Count: byMonth[m]})
	}
	return out, nil
}

func (r *MemoryRepo) StatusBreakdown(_ context.Context) ([]StatusCount, error) {
	byStatus := make(map[string]int)
	for _, c := range r.Complaints {
		byStatus[c.Status]++
	}
	statuses := make([]string, 0, len(byStatus))
	for s := range byStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	out := make([]StatusCount, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, StatusCount{Status: s, Count: byStatus[s]})
	}
	return out, nil
}

func (r *MemoryRepo) DepartmentCounts(_ context.Context) ([]DepartmentCount, error) {
	var out []DepartmentCount
	for _, id := range r.sortedDepartmentIDs() {
		d := DepartmentCount{DepartmentID: id, Name: r.Departments[id]}
		for _, c := range r.Complaints {
			if c.DepartmentID == id {
				d.Count++
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *MemoryRepo) OfficerStats(_ context.Context, officerID int64) (OfficerStats, error) {
	var s OfficerStats
	for _, c := range r.Complaints {
		if c.AssignedTo != officerID {
			continue
		}
		s.Assigned++
		if c.Status == complaint.StatusClosed {
			s.Closed++
		} else {
			s.Open++
		}
	}
	return s, nil
}

func (r *MemoryRepo) CountComplaintsSince(_ context.Context, since time.Time) (int, error) {
	var n int
	for _, c := range r.Complaints {
		if !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) CountResolvedSince(_ context.Context, since time.Time) (int, error) {
	var n int
	for _, c := range r.Complaints {
		if !c.ResolvedAt.IsZero() && !c.ResolvedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
