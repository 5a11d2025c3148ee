package httpapi

import (
	"net/http"

	"integrity-portal/internal/auth"
	"integrity-portal/internal/complaint"
	"integrity-portal/internal/ledger"
	"integrity-portal/internal/rbac"
	"integrity-portal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// identity pulls the authenticated identity; the auth middleware
// guarantees it is present on staff routes.
func identity(c *gin.Context) auth.Identity {
	id, _ := auth.FromContext(c.Request.Context())
	return id
}

// OfficerDashboard returns the officer's personal workload summary.
func (h Handlers) OfficerDashboard(c *gin.Context) {
	id := identity(c)
	stats, err := h.Reports.OfficerStats(c.Request.Context(), id.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListComplaints serves the staff work queue. Officers are pinned to
// their own department; admins see everything and may filter freely.
func (h Handlers) ListComplaints(c *gin.Context) {
	id := identity(c)
	f := complaint.ListFilter{
		Status: c.Query("status"),
		Search: c.Query("q"),
	}
	if rbac.IsAdmin(id.Role) {
		f.DepartmentID = queryFormInt(c, "department_id")
		f.AssignedTo = queryFormInt(c, "assigned_to")
	} else {
		f.DepartmentID = id.DepartmentID
		if c.Query("mine") == "true" {
			f.AssignedTo = id.UserID
		}
	}

	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)
	rows, total, err := h.Complaints.List(c.Request.Context(), f, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": rows, "total": total})
}

// ComplaintDetail returns the full record plus its audit trail.
func (h Handlers) ComplaintDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	found, err := h.Complaints.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if !complaint.CanAccess(identity(c), found) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	trail, err := h.Audit.Query(c.Request.Context(),
		ledger.Filter{Reference: found.TrackingID}, ledger.Page{Limit: 100})
	if err != nil {
		logger.FromGin(c).Error("audit trail lookup failed",
			"tracking_id", found.TrackingID, "err", err)
		trail = nil
	}
	c.JSON(http.StatusOK, gin.H{"complaint": found, "audit_trail": trail})
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

// UpdateComplaintStatus moves a complaint along the status flow and
// audits who moved it.
func (h Handlers) UpdateComplaintStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	actor := identity(c)
	before, err := h.Complaints.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	updated, err := h.Complaints.UpdateStatus(c.Request.Context(), id, req.Status, actor)
	if err != nil {
		fail(c, err)
		return
	}

	action := ledger.ActionStatusUpdate
	if rbac.IsAdmin(actor.Role) {
		action = ledger.ActionStatusUpdateByAdmin
	}
	h.record(c, actorFrom(c), action, map[string]any{
		"tracking_id": updated.TrackingID,
		"from":        before.Status,
		"to":          updated.Status,
	})
	if h.Notify != nil {
		if err := h.Notify.StatusChanged(c.Request.Context(), updated.CitizenEmail, updated.TrackingID, updated.Status); err != nil {
			logger.FromGin(c).Warn("notification failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, updated)
}

// SelfAssignComplaint lets an officer claim a complaint.
func (h Handlers) SelfAssignComplaint(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	updated, err := h.Complaints.SelfAssign(c.Request.Context(), id, identity(c))
	if err != nil {
		fail(c, err)
		return
	}
	h.record(c, actorFrom(c), ledger.ActionComplaintAssigned, map[string]any{
		"tracking_id": updated.TrackingID,
	})
	c.JSON(http.StatusOK, updated)
}

type noteRequest struct {
	Text string `json:"text"`
}

// AddComplaintNote appends an internal note.
func (h Handlers) AddComplaintNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	updated, err := h.Complaints.AddNote(c.Request.Context(), id, req.Text, identity(c))
	if err != nil {
		fail(c, err)
		return
	}
	h.record(c, actorFrom(c), ledger.ActionNotesAdded, map[string]any{
		"tracking_id": updated.TrackingID,
	})
	c.JSON(http.StatusOK, updated)
}
