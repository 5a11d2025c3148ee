// Package httpapi holds the HTTP handlers. Keep these thin: parse and
// validate input, call internal services, return JSON.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"integrity-portal/internal/account"
	"integrity-portal/internal/auth"
	"integrity-portal/internal/complaint"
	"integrity-portal/internal/config"
	"integrity-portal/internal/directory"
	"integrity-portal/internal/evidence"
	"integrity-portal/internal/ledger"
	"integrity-portal/internal/notify"
	"integrity-portal/internal/reporting"
	"integrity-portal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handlers groups HTTP handlers for dependency injection.
type Handlers struct {
	Log        *slog.Logger
	Auth       *auth.Manager
	Revoker    *auth.Revoker
	Accounts   *account.Service
	Complaints *complaint.Service
	Catalog    *directory.Directory
	Audit      *ledger.Service
	Reports    *reporting.Service
	Evidence   *evidence.Store
	Notify     notify.Notifier
	RDB        *redis.Client
	Intake     config.IntakeConfig
}

// clientAddr resolves the originating client IP. Behind the reverse
// proxy the first X-Forwarded-For hop is the citizen's address.
func clientAddr(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	return c.ClientIP()
}

// actorFrom builds the audit actor for the authenticated request.
func actorFrom(c *gin.Context) ledger.Actor {
	id, ok := auth.FromContext(c.Request.Context())
	if !ok {
		return ledger.Anonymous()
	}
	return ledger.Actor{
		UserID: strconv.FormatInt(id.UserID, 10),
		Name:   id.Username,
		Role:   id.Role,
	}
}

// record appends to the audit ledger. Appends are best-effort from the
// request's point of view: a failed append is logged loudly but does
// not fail the action that already happened.
func (h Handlers) record(c *gin.Context, actor ledger.Actor, action string, details any) {
	if h.Audit == nil {
		return
	}
	_, err := h.Audit.Append(c.Request.Context(), actor, action, ledger.EncodeDetails(details), clientAddr(c))
	if err != nil {
		logger.FromGin(c).Error("audit append failed",
			"action", action, "actor", actor.Name, "err", err)
	}
}

// fail maps service sentinel errors onto HTTP statuses.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, complaint.ErrNotFound),
		errors.Is(err, account.ErrNotFound),
		errors.Is(err, directory.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, complaint.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, complaint.ErrInvalidArgument),
		errors.Is(err, complaint.ErrInvalidTransition),
		errors.Is(err, account.ErrInvalidArgument),
		errors.Is(err, directory.ErrInvalidArgument),
		errors.Is(err, directory.ErrMismatch),
		errors.Is(err, evidence.ErrUnsupportedType):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, evidence.ErrTooLarge):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, account.ErrUsernameTaken),
		errors.Is(err, directory.ErrDuplicateName):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
