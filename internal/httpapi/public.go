package httpapi

import (
	"net/http"
	"strconv"

	"integrity-portal/internal/complaint"
	"integrity-portal/internal/ledger"
	"integrity-portal/pkg/logger"
	"integrity-portal/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SubmitComplaint files a citizen complaint. Accepts multipart form
// data so an evidence file can ride along with the fields.
func (h Handlers) SubmitComplaint(c *gin.Context) {
	addr := clientAddr(c)
	if h.RDB != nil {
		ok, err := utils.AllowRate(c.Request.Context(), h.RDB,
			"intake:submit:"+addr, h.Intake.SubmitLimit, h.Intake.SubmitWindow)
		if err != nil {
			// Redis being down must not block intake.
			logger.FromGin(c).Error("rate limit check failed", "err", err)
		} else if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many submissions, try again later"})
			return
		}
	}

	departmentID := queryFormInt(c, "department_id")
	serviceID := queryFormInt(c, "service_id")
	dep, svc, err := h.Catalog.ValidateSelection(c.Request.Context(), departmentID, serviceID)
	if err != nil {
		fail(c, err)
		return
	}

	req := complaint.SubmitRequest{
		DepartmentID: dep.ID,
		ServiceID:    svc.ID,
		Description:  c.PostForm("description"),
		Location:     c.PostForm("location"),
		CitizenName:  c.PostForm("citizen_name"),
		CitizenEmail: c.PostForm("citizen_email"),
		CitizenPhone: c.PostForm("citizen_phone"),
	}
	filed, err := h.Complaints.Submit(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	// Evidence is optional; a bad file fails the upload, not the filing.
	var evidencePath string
	if file, err := c.FormFile("evidence"); err == nil && file != nil {
		src, err := file.Open()
		if err == nil {
			defer src.Close()
			evidencePath, err = h.Evidence.Save(filed.TrackingID, file.Filename, file.Size, src)
			if err != nil {
				logger.FromGin(c).Warn("evidence upload rejected",
					"tracking_id", filed.TrackingID, "err", err)
			} else {
				filed, err = h.Complaints.AttachEvidence(c.Request.Context(), filed.ID, evidencePath)
				if err != nil {
					logger.FromGin(c).Error("evidence attach failed",
						"tracking_id", filed.TrackingID, "err", err)
				}
			}
		}
	}

	h.record(c, ledger.Anonymous(), ledger.ActionComplaintSubmitted, map[string]any{
		"tracking_id": filed.TrackingID,
		"department":  dep.Name,
		"service":     svc.Name,
	})
	if h.Notify != nil {
		if err := h.Notify.ComplaintFiled(c.Request.Context(), filed.CitizenEmail, filed.TrackingID); err != nil {
			logger.FromGin(c).Warn("notification failed", "err", err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"tracking_id": filed.TrackingID,
		"status":      filed.Status,
		"created_at":  filed.CreatedAt,
	})
}

// TrackComplaint is the public status check by tracking ID.
func (h Handlers) TrackComplaint(c *gin.Context) {
	trackingID := c.Param("tracking_id")
	found, err := h.Complaints.GetByTrackingID(c.Request.Context(), trackingID)
	if err != nil {
		fail(c, err)
		return
	}

	h.record(c, ledger.Anonymous(), ledger.ActionComplaintTracked, map[string]any{
		"tracking_id": found.TrackingID,
	})

	// Public view: no citizen contact details, no internal notes.
	resp := gin.H{
		"tracking_id":   found.TrackingID,
		"status":        found.Status,
		"department_id": found.DepartmentID,
		"service_id":    found.ServiceID,
		"created_at":    found.CreatedAt,
		"updated_at":    found.UpdatedAt,
	}
	if !found.ResolvedAt.IsZero() {
		resp["resolved_at"] = found.ResolvedAt
	}
	c.JSON(http.StatusOK, resp)
}

// ListDepartments backs the intake form's first dropdown.
func (h Handlers) ListDepartments(c *gin.Context) {
	deps, err := h.Catalog.ListDepartments(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": deps})
}

// ListDepartmentServices backs the dependent services dropdown.
func (h Handlers) ListDepartmentServices(c *gin.Context) {
	id, ok := pathID(c, "department_id")
	if !ok {
		return
	}
	services, err := h.Catalog.ListServices(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// PublicStats serves the transparency page: portal-wide counts only.
func (h Handlers) PublicStats(c *gin.Context) {
	o, err := h.Reports.Overview(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// PublicCharts serves the chart series for the transparency page.
func (h Handlers) PublicCharts(c *gin.Context) {
	ctx := c.Request.Context()
	monthly, err := h.Reports.MonthlySeries(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	statuses, err := h.Reports.StatusBreakdown(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	departments, err := h.Reports.DepartmentCounts(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"monthly":     monthly,
		"statuses":    statuses,
		"departments": departments,
	})
}

func queryFormInt(c *gin.Context, name string) int64 {
	v := c.PostForm(name)
	if v == "" {
		v = c.Query(name)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
