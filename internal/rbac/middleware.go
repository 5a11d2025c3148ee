package rbac

import (
	"net/http"

	"integrity-portal/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireAnyRole allows access if the caller has any of the provided roles.
// Admin is not a silent bypass: a route that admits admins must list
// RoleAdmin explicitly.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}
		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// RequireAdmin is shorthand for the admin-only route groups.
func RequireAdmin() gin.HandlerFunc {
	return RequireAnyRole(RoleAdmin)
}

// RequireStaff admits both officers and admins.
func RequireStaff() gin.HandlerFunc {
	return RequireAnyRole(RoleOfficer, RoleAdmin)
}
