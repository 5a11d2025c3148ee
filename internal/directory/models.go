package directory

import "time"

// Department is a government department/ward.
// Examples: Water Supply, Roads & Infrastructure, Public Health.
type Department struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Service is one service offered by a department.
// Citizens select department first, then service.
type Service struct {
	ID           int64     `json:"id" db:"id"`
	DepartmentID int64     `json:"department_id" db:"department_id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description,omitempty" db:"description"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
