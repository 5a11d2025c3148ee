package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"integrity-portal/internal/account"
	"integrity-portal/internal/auth"
	"integrity-portal/internal/complaint"
	"integrity-portal/internal/config"
	"integrity-portal/internal/directory"
	"integrity-portal/internal/evidence"
	"integrity-portal/internal/ledger"
	"integrity-portal/internal/notify"
	"integrity-portal/internal/rbac"
	"integrity-portal/internal/reporting"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router   *gin.Engine
	handlers Handlers
	audit    *ledger.MemoryRepo
	manager  *auth.Manager
	catalog  *directory.Directory
	accounts *account.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	manager, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret-test-secret-test-secret",
		JWTIssuer:       "integrity-portal-test",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("auth manager: %v", err)
	}

	auditRepo := ledger.NewMemoryRepo()
	auditSvc := ledger.NewService(auditRepo)
	accounts := account.NewService(account.NewMemoryRepo())
	complaints := complaint.NewService(complaint.NewMemoryRepo())
	catalog := directory.New(directory.NewMemoryRepo())

	h := Handlers{
		Auth:       manager,
		Accounts:   accounts,
		Complaints: complaints,
		Catalog:    catalog,
		Audit:      auditSvc,
		Reports:    reporting.NewService(reporting.NewMemoryRepo(), auditSvc),
		Evidence:   evidence.NewStore(t.TempDir(), 1<<20),
		Notify:     notify.NewLogNotifier(testLogger()),
		Intake:     config.IntakeConfig{SubmitLimit: 5, SubmitWindow: time.Hour},
	}

	r := gin.New()
	r.POST("/public/complaints", h.SubmitComplaint)
	r.GET("/public/complaints/:tracking_id", h.TrackComplaint)
	r.POST("/auth/login", h.Login)

	protected := r.Group("/")
	protected.Use(auth.RequireAccessToken(manager, nil))
	protected.GET("/complaints/:id", h.ComplaintDetail)
	protected.PUT("/complaints/:id/status", h.UpdateComplaintStatus)

	adm := protected.Group("/admin")
	adm.Use(rbac.RequireAdmin())
	adm.GET("/audit/verify", h.VerifyAuditChain)
	adm.GET("/audit", h.AuditLog)

	return &fixture{
		router:   r,
		handlers: h,
		audit:    auditRepo,
		manager:  manager,
		catalog:  catalog,
		accounts: accounts,
	}
}

func (f *fixture) seedCatalog(t *testing.T) (directory.Department, directory.Service) {
	t.Helper()
	ctx := testCtx()
	dep, err := f.catalog.CreateDepartment(ctx, "Water Supply", "")
	if err != nil {
		t.Fatalf("create department: %v", err)
	}
	svc, err := f.catalog.CreateService(ctx, dep.ID, "Leakage Repair", "")
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return dep, svc
}

func (f *fixture) token(t *testing.T, id auth.Identity) string {
	t.Helper()
	pair, err := f.manager.IssuePair(time.Now(), id)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	return pair.AccessToken
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func submitForm(t *testing.T, f *fixture, dep directory.Department, svc directory.Service) map[string]any {
	t.Helper()
	form := "department_id=" + itoa(dep.ID) +
		"&service_id=" + itoa(svc.ID) +
		"&description=" + longDescription +
		"&citizen_name=R.+Sharma"
	req := httptest.NewRequest(http.MethodPost, "/public/complaints", bytes.NewBufferString(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := f.do(req)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit status = %d body %s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	return body
}

func TestSubmitAndTrack(t *testing.T) {
	f := newFixture(t)
	dep, svc := f.seedCatalog(t)

	body := submitForm(t, f, dep, svc)
	trackingID, _ := body["tracking_id"].(string)
	if !complaint.ValidTrackingID(trackingID) {
		t.Fatalf("bad tracking id %q", trackingID)
	}

	w := f.do(httptest.NewRequest(http.MethodGet, "/public/complaints/"+trackingID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("track status = %d", w.Code)
	}
	var tracked map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &tracked); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if tracked["status"] != complaint.StatusPending {
		t.Fatalf("status = %v", tracked["status"])
	}
	if _, leaked := tracked["citizen_name"]; leaked {
		t.Fatal("public view leaks citizen identity")
	}

	// Submission and lookup each left a ledger entry.
	if f.audit.Len() != 2 {
		t.Fatalf("ledger has %d entries, want 2", f.audit.Len())
	}
}

func TestSubmit_RejectsMismatchedService(t *testing.T) {
	f := newFixture(t)
	dep, _ := f.seedCatalog(t)
	other, err := f.catalog.CreateDepartment(testCtx(), "Roads", "")
	if err != nil {
		t.Fatalf("create department: %v", err)
	}
	roadsSvc, err := f.catalog.CreateService(testCtx(), other.ID, "Pothole Repair", "")
	if err != nil {
		t.Fatalf("create service: %v", err)
	}

	form := "department_id=" + itoa(dep.ID) +
		"&service_id=" + itoa(roadsSvc.ID) +
		"&description=" + longDescription +
		"&citizen_name=y"
	req := httptest.NewRequest(http.MethodPost, "/public/complaints", bytes.NewBufferString(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if w := f.do(req); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestLogin_AuditsFailure(t *testing.T) {
	f := newFixture(t)

	payload := `{"username":"ghost","password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	if w := f.do(req); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	entries, err := f.handlers.Audit.Query(testCtx(), ledger.Filter{Action: ledger.ActionLoginFailed}, ledger.Page{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(entries) != 1 || entries[0].ActorName != "ghost" {
		t.Fatalf("failed login not audited: %+v", entries)
	}
}

func TestStatusUpdate_RequiresAccessAndAudits(t *testing.T) {
	f := newFixture(t)
	dep, svc := f.seedCatalog(t)
	body := submitForm(t, f, dep, svc)
	trackingID := body["tracking_id"].(string)

	filed, err := f.handlers.Complaints.GetByTrackingID(testCtx(), trackingID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	officer := auth.Identity{UserID: 7, Username: "officer_water", Role: rbac.RoleOfficer, DepartmentID: dep.ID}
	outsider := auth.Identity{UserID: 8, Username: "officer_roads", Role: rbac.RoleOfficer, DepartmentID: dep.ID + 1}
	payload := `{"status":"Under Review"}`

	req := httptest.NewRequest(http.MethodPut, "/complaints/"+itoa(filed.ID)+"/status", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token(t, outsider))
	if w := f.do(req); w.Code != http.StatusForbidden {
		t.Fatalf("outsider status = %d, want 403", w.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/complaints/"+itoa(filed.ID)+"/status", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token(t, officer))
	if w := f.do(req); w.Code != http.StatusOK {
		t.Fatalf("officer status = %d body %s", w.Code, w.Body.String())
	}

	entries, err := f.handlers.Audit.Query(testCtx(), ledger.Filter{Action: ledger.ActionStatusUpdate}, ledger.Page{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(entries) != 1 || entries[0].ActorName != "officer_water" {
		t.Fatalf("status update not audited: %+v", entries)
	}
}

func TestAdminRoutes_RejectOfficer(t *testing.T) {
	f := newFixture(t)
	officer := auth.Identity{UserID: 7, Username: "officer_water", Role: rbac.RoleOfficer, DepartmentID: 1}

	req := httptest.NewRequest(http.MethodGet, "/admin/audit/verify", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, officer))
	if w := f.do(req); w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestVerifyAuditChain_Endpoint(t *testing.T) {
	f := newFixture(t)
	dep, svc := f.seedCatalog(t)
	submitForm(t, f, dep, svc)
	submitForm(t, f, dep, svc)

	admin := auth.Identity{UserID: 1, Username: "admin", Role: rbac.RoleAdmin}
	req := httptest.NewRequest(http.MethodGet, "/admin/audit/verify", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, admin))
	w := f.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	var res map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if res["ok"] != true {
		t.Fatalf("expected intact chain, got %v", res)
	}

	// Tamper with an entry and verify again.
	f.audit.Corrupt(1, func(e *ledger.Entry) { e.Details = "edited" })
	w = f.do(req.Clone(req.Context()))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if res["ok"] != false || res["kind"] != string(ledger.MismatchEntry) {
		t.Fatalf("tampering not reported: %v", res)
	}
}

const longDescription = "Burst+water+main+on+Elm+Street+flooding+the+footpath.+Water+has+been+running+since+early+morning+and+the+road+surface+is+starting+to+sink."

func testCtx() context.Context { return context.Background() }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
