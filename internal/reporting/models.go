package reporting

// Overview is the portal-wide complaint summary shown on the public
// stats page and the admin dashboard.
type Overview struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	UnderReview int `json:"under_review"`
	ActionTaken int `json:"action_taken"`
	Closed      int `json:"closed"`
	// ResolutionRate is Closed/Total as a percentage, 0 when empty.
	ResolutionRate float64 `json:"resolution_rate"`
}

// DepartmentPerformance summarizes one department's throughput.
type DepartmentPerformance struct {
	DepartmentID       int64   `json:"department_id"`
	Name               string  `json:"name"`
	Total              int     `json:"total"`
	Closed             int     `json:"closed"`
	ResolutionRate     float64 `json:"resolution_rate"`
	AvgResolutionHours float64 `json:"avg_resolution_hours"`
}

// MonthlyCount is one point on the submissions-per-month chart.
// Month is formatted "2006-01".
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// StatusCount is one slice of the status breakdown chart.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// DepartmentCount is one bar of the complaints-per-department chart.
type DepartmentCount struct {
	DepartmentID int64  `json:"department_id"`
	Name         string `json:"name"`
	Count        int    `json:"count"`
}

// OfficerStats is an officer's personal dashboard summary.
type OfficerStats struct {
	Assigned int `json:"assigned"`
	Open     int `json:"open"`
	Closed   int `json:"closed"`
}

// RecentActivity summarizes the last 24 hours for the admin dashboard.
type RecentActivity struct {
	NewComplaints  int `json:"new_complaints"`
	Resolved       int `json:"resolved"`
	StaffActions   int `json:"staff_actions"`
	CitizenActions int `json:"citizen_actions"`
}
