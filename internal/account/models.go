package account

import "time"

// User is a staff account - admin or officer.
// Citizens do NOT have accounts (anonymous submission).
type User struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email,omitempty" db:"email"`

	// PasswordHash is bcrypt; never serialized.
	PasswordHash string `json:"-" db:"password_hash"`

	Role string `json:"role" db:"role"`

	// DepartmentID scopes officers to one department; zero for admins.
	DepartmentID int64 `json:"department_id,omitempty" db:"department_id"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	// LastLogin is zero until the first successful login.
	LastLogin time.Time `json:"last_login,omitempty" db:"last_login"`
}

// Stats summarizes accounts for the admin system view.
type Stats struct {
	TotalUsers  int `json:"total_users"`
	Officers    int `json:"officers"`
	Admins      int `json:"admins"`
	ActiveUsers int `json:"active_users"`
}
