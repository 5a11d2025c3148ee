package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Role and department are snapshots taken at login; they are re-checked
// against the account record only on re-authentication, not per request.
type Claims struct {
	jwt.RegisteredClaims

	UserID       int64     `json:"user_id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	DepartmentID int64     `json:"department_id,omitempty"`
	TokenType    TokenType `json:"token_type"`
}
