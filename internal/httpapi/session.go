package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"integrity-portal/internal/account"
	"integrity-portal/internal/auth"
	"integrity-portal/internal/ledger"
	"integrity-portal/pkg/logger"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates a staff member and issues a JWT pair. Every
// outcome is audited: success, bad credentials, and attempts against
// deactivated accounts.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Username == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	user, err := h.Accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, account.ErrInactive):
		// Authenticate returns the user alongside ErrInactive so the
		// attempt can be pinned to the account.
		h.record(c, ledger.Actor{
			UserID: strconv.FormatInt(user.ID, 10),
			Name:   user.Username,
			Role:   user.Role,
		}, ledger.ActionLoginFailedInactive, nil)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account deactivated"})
		return
	case errors.Is(err, account.ErrInvalidCredentials), errors.Is(err, account.ErrNotFound):
		h.record(c, ledger.Actor{Name: req.Username, Role: ledger.GuestRole},
			ledger.ActionLoginFailed, nil)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	case err != nil:
		fail(c, err)
		return
	}

	id := auth.Identity{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
	}
	pair, err := h.Auth.IssuePair(time.Now(), id)
	if err != nil {
		logger.FromGin(c).Error("token issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	h.record(c, ledger.Actor{
		UserID: strconv.FormatInt(user.ID, 10),
		Name:   user.Username,
		Role:   user.Role,
	}, ledger.ActionLoginSuccess, nil)

	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user": gin.H{
			"id":            user.ID,
			"username":      user.Username,
			"role":          user.Role,
			"department_id": user.DepartmentID,
		},
	})
}

// Logout revokes the presented access token until its natural expiry.
func (h Handlers) Logout(c *gin.Context) {
	jti := c.GetString("token_jti")
	if jti != "" && h.Revoker != nil {
		var ttl time.Duration
		if exp, ok := c.Get("token_exp"); ok {
			if t, ok := exp.(time.Time); ok {
				ttl = time.Until(t)
			}
		}
		if err := h.Revoker.Revoke(c.Request.Context(), jti, ttl); err != nil {
			logger.FromGin(c).Error("token revocation failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
			return
		}
	}
	h.record(c, actorFrom(c), ledger.ActionLogout, nil)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// Me returns the authenticated identity.
func (h Handlers) Me(c *gin.Context) {
	id, ok := auth.FromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":            id.UserID,
		"username":      id.Username,
		"role":          id.Role,
		"department_id": id.DepartmentID,
	})
}
