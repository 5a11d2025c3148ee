package rbac

// Role names. Keep these stable; they are part of auth contracts and are
// captured by value into audit entries.
const (
	RoleAdmin   = "admin"
	RoleOfficer = "officer"
	// RoleGuest is never issued in a token; it labels anonymous citizen actions.
	RoleGuest = "guest"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func IsOfficer(role string) bool { return role == RoleOfficer }

// IsStaff reports whether the role may hold an account at all.
func IsStaff(role string) bool { return role == RoleAdmin || role == RoleOfficer }
