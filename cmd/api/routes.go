package main

import (
	"integrity-portal/internal/httpapi"
	"integrity-portal/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Citizen-facing routes: no authentication, rate-limited where it
	// matters.
	public := r.Group("/v1/public")
	{
		public.POST("/complaints", h.SubmitComplaint)
		public.GET("/complaints/:tracking_id", h.TrackComplaint)
		public.GET("/departments", h.ListDepartments)
		public.GET("/departments/:department_id/services", h.ListDepartmentServices)
		public.GET("/stats", h.PublicStats)
		public.GET("/charts", h.PublicCharts)
	}

	r.POST("/v1/auth/login", h.Login)

	// Staff API
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/auth/me", h.Me)
		v1.POST("/auth/logout", h.Logout)

		staff := v1.Group("/")
		staff.Use(rbac.RequireStaff())
		{
			staff.GET("/dashboard", h.OfficerDashboard)
			staff.GET("/complaints", h.ListComplaints)
			staff.GET("/complaints/:id", h.ComplaintDetail)
			staff.PUT("/complaints/:id/status", h.UpdateComplaintStatus)
			staff.POST("/complaints/:id/claim", h.SelfAssignComplaint)
			staff.POST("/complaints/:id/notes", h.AddComplaintNote)
		}

		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAdmin())
		{
			admin.GET("/dashboard", h.AdminDashboard)
			admin.POST("/complaints/:id/assign", h.AssignComplaint)

			admin.POST("/officers", h.CreateOfficer)
			admin.GET("/officers", h.ListOfficers)
			admin.POST("/officers/:id/toggle", h.ToggleOfficer)
			admin.POST("/officers/:id/password", h.ResetOfficerPassword)

			admin.POST("/departments", h.CreateDepartment)
			admin.POST("/services", h.CreateService)

			admin.GET("/audit", h.AuditLog)
			admin.GET("/audit/verify", h.VerifyAuditChain)
		}
	}
}
