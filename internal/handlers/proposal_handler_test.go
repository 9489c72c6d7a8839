package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/services"
	"cbms/internal/validator"
)

// --- mock audit service ---

type mockAuditService struct{}

func (m *mockAuditService) Log(_ uint, _, _ string, _ uint, _ string, _ map[string]interface{}) {}

func (m *mockAuditService) ListLogs(_ pagination.PageRequest, _ *uint) (*pagination.PageResponse[models.AuditLog], error) {
	resp := pagination.NewPageResponse([]models.AuditLog{}, 1, 20, 0)
	return &resp, nil
}

var _ services.AuditServicer = (*mockAuditService)(nil)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectActor(uid uint, role models.Role, departmentID *uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Set("role", role)
		if departmentID != nil {
			c.Set("departmentID", *departmentID)
		}
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- mock proposal service ---

type mockProposalService struct {
	createProposalFn func(actor services.Actor, departmentID uint, financialYear, notes string, items []services.ProposalItemInput) (*models.BudgetProposal, error)
	updateDraftFn    func(actor services.Actor, proposalID uint, notes string, items []services.ProposalItemInput) (*models.BudgetProposal, error)
	getByIDFn        func(proposalID uint) (*models.BudgetProposal, error)
	listFn           func(page pagination.PageRequest, filter services.ProposalFilter) (*pagination.PageResponse[models.BudgetProposal], error)
	submitFn         func(actor services.Actor, proposalID uint) (*models.BudgetProposal, error)
	verifyFn         func(actor services.Actor, proposalID uint, remarks string) (*models.BudgetProposal, error)
	approveFn        func(actor services.Actor, proposalID uint) (*models.BudgetProposal, error)
	rejectFn         func(actor services.Actor, proposalID uint, reason string) (*models.BudgetProposal, error)
	resubmitFn       func(actor services.Actor, proposalID uint) (*models.BudgetProposal, error)
	allocateFn       func(actor services.Actor, proposalID, itemID uint, remarks string) (*models.Allocation, error)
}

func (m *mockProposalService) CreateProposal(actor services.Actor, departmentID uint, financialYear, notes string, items []services.ProposalItemInput) (*models.BudgetProposal, error) {
	if m.createProposalFn != nil {
		return m.createProposalFn(actor, departmentID, financialYear, notes, items)
	}
	return &models.BudgetProposal{}, nil
}

func (m *mockProposalService) UpdateDraft(actor services.Actor, proposalID uint, notes string, items []services.ProposalItemInput) (*models.BudgetProposal, error) {
	if m.updateDraftFn != nil {
		return m.updateDraftFn(actor, proposalID, notes, items)
	}
	return &models.BudgetProposal{}, nil
}

func (m *mockProposalService) GetProposalByID(proposalID uint) (*models.BudgetProposal, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(proposalID)
	}
	return &models.BudgetProposal{}, nil
}

func (m *mockProposalService) ListProposals(page pagination.PageRequest, filter services.ProposalFilter) (*pagination.PageResponse[models.BudgetProposal], error) {
	if m.listFn != nil {
		return m.listFn(page, filter)
	}
	resp := pagination.NewPageResponse([]models.BudgetProposal{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockProposalService) Submit(actor services.Actor, proposalID uint) (*models.BudgetProposal, error) {
	if m.submitFn != nil {
		return m.submitFn(actor, proposalID)
	}
	return &models.BudgetProposal{}, nil
}

func (m *mockProposalService) Verify(actor services.Actor, proposalID uint, remarks string) (*models.BudgetProposal, error) {
	if m.verifyFn != nil {
		return m.verifyFn(actor, proposalID, remarks)
	}
	return &models.BudgetProposal{}, nil
}

func (m *mockProposalService) Approve(actor services.Actor, proposalID uint) (*models.BudgetProposal, error) {
	if m.approveFn != nil {
		return m.approveFn(actor, proposalID)
	}
	return &models.BudgetProposal{}, nil
}

func (m *mockProposalService) Reject(actor services.Actor, proposalID uint, reason string) (*models.BudgetProposal, error) {
	if m.rejectFn != nil {
		return m.rejectFn(actor, proposalID, reason)
	}
	return &models.BudgetProposal{}, nil
}

func (m *mockProposalService) Resubmit(actor services.Actor, proposalID uint) (*models.BudgetProposal, error) {
	if m.resubmitFn != nil {
		return m.resubmitFn(actor, proposalID)
	}
	return &models.BudgetProposal{}, nil
}

func (m *mockProposalService) Allocate(actor services.Actor, proposalID, itemID uint, remarks string) (*models.Allocation, error) {
	if m.allocateFn != nil {
		return m.allocateFn(actor, proposalID, itemID, remarks)
	}
	return &models.Allocation{}, nil
}

var _ services.ProposalServicer = (*mockProposalService)(nil)

func setupProposalRouter(handler *ProposalHandler, role models.Role, departmentID *uint) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectActor(1, role, departmentID))
	auth.POST("/proposals", handler.CreateProposal)
	auth.GET("/proposals", handler.GetProposals)
	auth.GET("/proposals/:id", handler.GetProposal)
	auth.PUT("/proposals/:id", handler.UpdateProposal)
	auth.POST("/proposals/:id/submit", handler.SubmitProposal)
	auth.POST("/proposals/:id/verify", handler.VerifyProposal)
	auth.POST("/proposals/:id/approve", handler.ApproveProposal)
	auth.POST("/proposals/:id/reject", handler.RejectProposal)
	auth.POST("/proposals/:id/resubmit", handler.ResubmitProposal)
	auth.POST("/proposals/:id/allocate", handler.AllocateProposalItem)
	return r
}

func deptID(id uint) *uint { return &id }

func TestProposalHandler_CreateProposal(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockProposalService{
			createProposalFn: func(actor services.Actor, departmentID uint, financialYear, notes string, items []services.ProposalItemInput) (*models.BudgetProposal, error) {
				if actor.UserID != 1 {
					t.Errorf("expected actor user 1, got %d", actor.UserID)
				}
				if len(items) != 2 {
					t.Errorf("expected 2 items, got %d", len(items))
				}
				return &models.BudgetProposal{
					Base:                models.Base{ID: 1},
					DepartmentID:        departmentID,
					FinancialYear:       financialYear,
					Status:              models.ProposalDraft,
					TotalProposedAmount: 150000,
				}, nil
			},
		}
		handler := NewProposalHandler(svc, &mockAuditService{})
		r := setupProposalRouter(handler, models.RoleDepartment, deptID(3))

		rec := doRequest(r, "POST", "/proposals",
			`{"department_id":3,"financial_year":"2025-2026","items":[{"budget_head_id":1,"proposed_amount":100000,"justification":"lab equipment"},{"budget_head_id":2,"proposed_amount":50000,"justification":"consumables"}]}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		proposal := result["proposal"].(map[string]interface{})
		if proposal["total_proposed_amount"].(float64) != 150000 {
			t.Errorf("expected total 150000, got %v", proposal["total_proposed_amount"])
		}
	})

	t.Run("returns 400 on malformed financial year", func(t *testing.T) {
		handler := NewProposalHandler(&mockProposalService{}, &mockAuditService{})
		r := setupProposalRouter(handler, models.RoleDepartment, deptID(3))

		rec := doRequest(r, "POST", "/proposals",
			`{"department_id":3,"financial_year":"2025","items":[]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 403 when creating for another department", func(t *testing.T) {
		svc := &mockProposalService{
			createProposalFn: func(_ services.Actor, _ uint, _, _ string, _ []services.ProposalItemInput) (*models.BudgetProposal, error) {
				return nil, apperrors.ErrForbidden
			},
		}
		handler := NewProposalHandler(svc, &mockAuditService{})
		r := setupProposalRouter(handler, models.RoleDepartment, deptID(3))

		rec := doRequest(r, "POST", "/proposals",
			`{"department_id":9,"financial_year":"2025-2026","items":[{"budget_head_id":1,"proposed_amount":100,"justification":"x"}]}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewProposalHandler(&mockProposalService{}, &mockAuditService{})
		r := gin.New()
		r.POST("/proposals", handler.CreateProposal)

		rec := doRequest(r, "POST", "/proposals",
			`{"department_id":3,"financial_year":"2025-2026"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestProposalHandler_GetProposals(t *testing.T) {
	t.Run("passes filter params to service", func(t *testing.T) {
		var captured services.ProposalFilter
		svc := &mockProposalService{
			listFn: func(_ pagination.PageRequest, filter services.ProposalFilter) (*pagination.PageResponse[models.BudgetProposal], error) {
				captured = filter
				resp := pagination.NewPageResponse([]models.BudgetProposal{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewProposalHandler(svc, &mockAuditService{})
		r := setupProposalRouter(handler, models.RoleOffice, nil)

		rec := doRequest(r, "GET", "/proposals?status=submitted&department_id=3&financial_year=2025-2026", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured.Status == nil || *captured.Status != models.ProposalSubmitted {
			t.Error("expected status filter to be passed")
		}
		if captured.DepartmentID == nil || *captured.DepartmentID != 3 {
			t.Error("expected department filter to be passed")
		}
		if captured.FinancialYear != "2025-2026" {
			t.Errorf("expected year filter, got %q", captured.FinancialYear)
		}
	})

	t.Run("returns 400 on invalid department_id", func(t *testing.T) {
		handler := NewProposalHandler(&mockProposalService{}, &mockAuditService{})
		r := setupProposalRouter(handler, models.RoleOffice, nil)

		rec := doRequest(r, "GET", "/proposals?department_id=abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestProposalHandler_SubmitProposal(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		svc := &mockProposalService{
			submitFn: func(_ services.Actor, proposalID uint) (*models.BudgetProposal, error) {
				return &models.BudgetProposal{
					Base:   models.Base{ID: proposalID},
					Status: models.ProposalSubmitted,
				}, nil
			},
		}
		handler := NewProposalHandler(svc, &mockAuditService{})
		r := setupProposalRouter(handler, models.RoleDepartment, deptID(3))

		rec := doRequest(r, "POST", "/proposals/1/submit", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		proposal := result["proposal"].(map[string]interface{})
		if proposal["status"] != "submitted" {
			t.Errorf("expected submitted, got %v", proposal["status"])
		}
	})

	t.Run("returns 409 on double submit", func(t *testing.T) {
		svc := &mockProposalService{
			submitFn: func(_ services.Actor, _ uint) (*models.BudgetProposal, error) {
				return nil, apperrors.ErrInvalidTransition
			},
		}
		handler := NewProposalHandler(svc, &mockAuditService{})
		r := setupProposalRouter(handler, models.RoleDepartment, deptID(3))

		rec := doRequest(r, "POST", "/proposals/1/submit", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_TRANSITION")
	})
}

func TestProposalHandler_RejectProposal(t *testing.T) {
	t.Run("returns 400 when reason missing", func(t *testing.T) {
		handler := NewProposalHandler(&mockProposalService{}, &mockAuditService{})
		r := setupProposalRouter(handler, models.RolePrincipal, nil)

		rec := doRequest(r, "POST", "/proposals/1/reject", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 200 with reason", func(t *testing.T) {
		var capturedReason string
		svc := &mockProposalService{
			rejectFn: func(_ services.Actor, proposalID uint, reason string) (*models.BudgetProposal, error) {
				capturedReason = reason
				return &models.BudgetProposal{
					Base:   models.Base{ID: proposalID},
					Status: models.ProposalRejected,
				}, nil
			},
		}
		handler := NewProposalHandler(svc, &mockAuditService{})
		r := setupProposalRouter(handler, models.RolePrincipal, nil)

		rec := doRequest(r, "POST", "/proposals/1/reject", `{"reason":"amounts unsupported by enrollment"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if capturedReason != "amounts unsupported by enrollment" {
			t.Errorf("unexpected reason: %q", capturedReason)
		}
	})
}

func TestProposalHandler_AllocateProposalItem(t *testing.T) {
	t.Run("returns 201 with allocation", func(t *testing.T) {
		svc := &mockProposalService{
			allocateFn: func(_ services.Actor, proposalID, itemID uint, _ string) (*models.Allocation, error) {
				return &models.Allocation{
					Base:            models.Base{ID: 5},
					AllocatedAmount: 100000,
				}, nil
			},
		}
		handler := NewProposalHandler(svc, &mockAuditService{})
		r := setupProposalRouter(handler, models.RoleOffice, nil)

		rec := doRequest(r, "POST", "/proposals/1/allocate", `{"item_id":2}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		alloc := result["allocation"].(map[string]interface{})
		if alloc["allocated_amount"].(float64) != 100000 {
			t.Errorf("expected 100000, got %v", alloc["allocated_amount"])
		}
	})

	t.Run("returns 409 when proposal not approved", func(t *testing.T) {
		svc := &mockProposalService{
			allocateFn: func(_ services.Actor, _, _ uint, _ string) (*models.Allocation, error) {
				return nil, apperrors.ErrInvalidTransition
			},
		}
		handler := NewProposalHandler(svc, &mockAuditService{})
		r := setupProposalRouter(handler, models.RoleOffice, nil)

		rec := doRequest(r, "POST", "/proposals/1/allocate", `{"item_id":2}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}
