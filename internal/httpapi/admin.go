package httpapi

import (
	"net/http"

	"integrity-portal/internal/account"
	"integrity-portal/internal/ledger"
	"integrity-portal/internal/rbac"

	"github.com/gin-gonic/gin"
)

// AdminDashboard aggregates the figures behind the admin landing page.
func (h Handlers) AdminDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	overview, err := h.Reports.Overview(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	performance, err := h.Reports.DepartmentPerformance(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	recent, err := h.Reports.RecentActivity(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	users, err := h.Accounts.Stats(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"overview":    overview,
		"departments": performance,
		"recent":      recent,
		"users":       users,
	})
}

type assignRequest struct {
	OfficerID int64 `json:"officer_id"`
}

// AssignComplaint hands a complaint to a specific officer.
func (h Handlers) AssignComplaint(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	officer, err := h.Accounts.GetByID(c.Request.Context(), req.OfficerID)
	if err != nil {
		fail(c, err)
		return
	}
	if !rbac.IsOfficer(officer.Role) || !officer.IsActive {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "assignee must be an active officer"})
		return
	}

	updated, err := h.Complaints.Assign(c.Request.Context(), id, officer.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.record(c, actorFrom(c), ledger.ActionComplaintAdminAssign, map[string]any{
		"tracking_id": updated.TrackingID,
		"officer":     officer.Username,
	})
	c.JSON(http.StatusOK, updated)
}

type createOfficerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	DepartmentID int64  `json:"department_id"`
}

// CreateOfficer registers a new officer account.
func (h Handlers) CreateOfficer(c *gin.Context) {
	var req createOfficerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.DepartmentID != 0 {
		if _, err := h.Catalog.GetDepartment(c.Request.Context(), req.DepartmentID); err != nil {
			fail(c, err)
			return
		}
	}

	user, err := h.Accounts.CreateOfficer(c.Request.Context(), account.CreateOfficerRequest{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.record(c, actorFrom(c), ledger.ActionOfficerCreated, map[string]any{
		"officer": user.Username,
	})
	c.JSON(http.StatusCreated, user)
}

// ListOfficers returns all officer accounts.
func (h Handlers) ListOfficers(c *gin.Context) {
	officers, err := h.Accounts.ListOfficers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"officers": officers})
}

// ToggleOfficer flips an officer account between active and inactive.
func (h Handlers) ToggleOfficer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.Accounts.ToggleActive(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	h.record(c, actorFrom(c), ledger.ActionOfficerToggled, map[string]any{
		"officer": user.Username,
		"active":  user.IsActive,
	})
	c.JSON(http.StatusOK, user)
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetOfficerPassword sets a new password on an officer account.
func (h Handlers) ResetOfficerPassword(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	user, err := h.Accounts.ResetPassword(c.Request.Context(), id, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.record(c, actorFrom(c), ledger.ActionOfficerPasswordReset, map[string]any{
		"officer": user.Username,
	})
	c.JSON(http.StatusOK, gin.H{"status": "password reset"})
}

type createDepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateDepartment adds a department to the catalog.
func (h Handlers) CreateDepartment(c *gin.Context) {
	var req createDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	dep, err := h.Catalog.CreateDepartment(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	h.record(c, actorFrom(c), ledger.ActionDepartmentCreated, map[string]any{
		"department": dep.Name,
	})
	c.JSON(http.StatusCreated, dep)
}

type createServiceRequest struct {
	DepartmentID int64  `json:"department_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
}

// CreateService adds a service under a department.
func (h Handlers) CreateService(c *gin.Context) {
	var req createServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	svc, err := h.Catalog.CreateService(c.Request.Context(), req.DepartmentID, req.Name, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	h.record(c, actorFrom(c), ledger.ActionServiceCreated, map[string]any{
		"service":       svc.Name,
		"department_id": svc.DepartmentID,
	})
	c.JSON(http.StatusCreated, svc)
}
