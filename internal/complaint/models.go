package complaint

import "time"

// Status values a complaint moves through. Transitions are restricted
// to the statusFlow table below.
const (
	StatusPending     = "Pending"
	StatusUnderReview = "Under Review"
	StatusActionTaken = "Action Taken"
	StatusClosed      = "Closed"
)

// statusFlow maps each status to the statuses it may move to.
// Closed is terminal.
var statusFlow = map[string][]string{
	StatusPending:     {StatusUnderReview, StatusClosed},
	StatusUnderReview: {StatusActionTaken, StatusClosed},
	StatusActionTaken: {StatusClosed},
	StatusClosed:      {},
}

// ValidStatus reports whether s is a known complaint status.
func ValidStatus(s string) bool {
	_, ok := statusFlow[s]
	return ok
}

// CanTransition reports whether a complaint may move from one status
// to another.
func CanTransition(from, to string) bool {
	for _, next := range statusFlow[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Complaint is a citizen-submitted grievance. Citizens are not
// accounts: contact details live on the complaint itself and the
// tracking ID is the citizen's only handle on it.
type Complaint struct {
	ID           int64  `json:"id" db:"id"`
	TrackingID   string `json:"tracking_id" db:"tracking_id"`
	DepartmentID int64  `json:"department_id" db:"department_id"`
	ServiceID    int64  `json:"service_id" db:"service_id"`

	Description  string `json:"description" db:"description"`
	Location     string `json:"location,omitempty" db:"location"`
	CitizenName  string `json:"citizen_name" db:"citizen_name"`
	CitizenEmail string `json:"citizen_email,omitempty" db:"citizen_email"`
	CitizenPhone string `json:"citizen_phone,omitempty" db:"citizen_phone"`
	EvidencePath string `json:"evidence_path,omitempty" db:"evidence_path"`

	Status     string `json:"status" db:"status"`
	AssignedTo int64  `json:"assigned_to,omitempty" db:"assigned_to"` // officer user id, 0 = unassigned
	Notes      string `json:"notes,omitempty" db:"notes"`

	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
	ResolvedAt time.Time `json:"resolved_at,omitempty" db:"resolved_at"` // zero until Closed
}

// Open reports whether the complaint still needs work.
func (c Complaint) Open() bool {
	return c.Status != StatusClosed
}
