package integration

import (
	"fmt"
	"net/http"
	"testing"

	"cbms/internal/models"
)

func TestProposalLifecycle(t *testing.T) {
	app := setupApp(t)

	dept := app.seedDepartment(t)
	head := app.seedBudgetHead(t)
	app.seedFinancialYear(t, "2026-2027")

	deptToken, _ := app.seedUser(t, models.RoleDepartment, &dept.ID)
	officeToken, _ := app.seedUser(t, models.RoleOffice, nil)

	// Department drafts a proposal.
	body := fmt.Sprintf(`{
		"department_id": %d,
		"financial_year": "2026-2027",
		"notes": "Annual lab budget",
		"items": [
			{"budget_head_id": %d, "proposed_amount": 500000, "justification": "Replacement of aging lab equipment"}
		]
	}`, dept.ID, head.ID)
	rec := app.request("POST", "/api/v1/proposals", body, deptToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	proposal := result["proposal"].(map[string]interface{})
	if proposal["status"] != "draft" {
		t.Errorf("expected status draft, got %v", proposal["status"])
	}
	if proposal["total_proposed_amount"].(float64) != 500000 {
		t.Errorf("expected total 500000, got %v", proposal["total_proposed_amount"])
	}
	proposalID := uint(proposal["id"].(float64))
	items := proposal["items"].([]interface{})
	itemID := uint(items[0].(map[string]interface{})["id"].(float64))

	// Submit, verify, approve.
	rec = app.request("POST", fmt.Sprintf("/api/v1/proposals/%d/submit", proposalID), "", deptToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", fmt.Sprintf("/api/v1/proposals/%d/verify", proposalID), `{"remarks":"Figures checked"}`, officeToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", fmt.Sprintf("/api/v1/proposals/%d/approve", proposalID), "", officeToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	proposal = result["proposal"].(map[string]interface{})
	if proposal["status"] != "approved" {
		t.Errorf("expected status approved, got %v", proposal["status"])
	}

	// Allocate from the approved item.
	allocBody := fmt.Sprintf(`{"item_id": %d, "remarks": "Granted in full"}`, itemID)
	rec = app.request("POST", fmt.Sprintf("/api/v1/proposals/%d/allocate", proposalID), allocBody, officeToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("allocate: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	alloc := result["allocation"].(map[string]interface{})
	if alloc["allocated_amount"].(float64) != 500000 {
		t.Errorf("expected allocated_amount 500000, got %v", alloc["allocated_amount"])
	}
	if alloc["spent_amount"].(float64) != 0 {
		t.Errorf("expected spent_amount 0, got %v", alloc["spent_amount"])
	}

	// The allocation shows up for the department.
	rec = app.request("GET", "/api/v1/allocations?financial_year=2026-2027", "", deptToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("list allocations: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	data := result["data"].([]interface{})
	if len(data) != 1 {
		t.Errorf("expected 1 allocation, got %d", len(data))
	}
}

func TestProposalSubmitRequiresDraft(t *testing.T) {
	app := setupApp(t)

	dept := app.seedDepartment(t)
	head := app.seedBudgetHead(t)
	deptToken, _ := app.seedUser(t, models.RoleDepartment, &dept.ID)

	body := fmt.Sprintf(`{
		"department_id": %d,
		"financial_year": "2026-2027",
		"items": [{"budget_head_id": %d, "proposed_amount": 10000, "justification": "Stationery"}]
	}`, dept.ID, head.ID)
	rec := app.request("POST", "/api/v1/proposals", body, deptToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	proposalID := uint(parseJSON(t, rec)["proposal"].(map[string]interface{})["id"].(float64))

	rec = app.request("POST", fmt.Sprintf("/api/v1/proposals/%d/submit", proposalID), "", deptToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("first submit: expected 200, got %d", rec.Code)
	}

	rec = app.request("POST", fmt.Sprintf("/api/v1/proposals/%d/submit", proposalID), "", deptToken)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second submit: expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	errBody := parseJSON(t, rec)["error"].(map[string]interface{})
	if errBody["code"] != "INVALID_TRANSITION" {
		t.Errorf("expected INVALID_TRANSITION, got %v", errBody["code"])
	}
}

func TestProposalRejectionAndResubmit(t *testing.T) {
	app := setupApp(t)

	dept := app.seedDepartment(t)
	head := app.seedBudgetHead(t)
	deptToken, _ := app.seedUser(t, models.RoleDepartment, &dept.ID)
	principalToken, _ := app.seedUser(t, models.RolePrincipal, nil)

	body := fmt.Sprintf(`{
		"department_id": %d,
		"financial_year": "2026-2027",
		"items": [{"budget_head_id": %d, "proposed_amount": 900000, "justification": "New server room"}]
	}`, dept.ID, head.ID)
	rec := app.request("POST", "/api/v1/proposals", body, deptToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	proposalID := uint(parseJSON(t, rec)["proposal"].(map[string]interface{})["id"].(float64))

	rec = app.request("POST", fmt.Sprintf("/api/v1/proposals/%d/submit", proposalID), "", deptToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d", rec.Code)
	}

	// Principal rejects with a reason.
	rec = app.request("POST", fmt.Sprintf("/api/v1/proposals/%d/reject", proposalID),
		`{"reason":"Amount far exceeds last year's utilization"}`, principalToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	proposal := parseJSON(t, rec)["proposal"].(map[string]interface{})
	if proposal["status"] != "rejected" {
		t.Errorf("expected status rejected, got %v", proposal["status"])
	}

	// Department resubmits; a fresh draft is created and the original
	// is marked revised.
	rec = app.request("POST", fmt.Sprintf("/api/v1/proposals/%d/resubmit", proposalID), "", deptToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("resubmit: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	draft := parseJSON(t, rec)["proposal"].(map[string]interface{})
	if draft["status"] != "draft" {
		t.Errorf("expected new draft, got %v", draft["status"])
	}
	if uint(draft["original_proposal_id"].(float64)) != proposalID {
		t.Errorf("expected original_proposal_id %d, got %v", proposalID, draft["original_proposal_id"])
	}

	rec = app.request("GET", fmt.Sprintf("/api/v1/proposals/%d", proposalID), "", deptToken)
	original := parseJSON(t, rec)["proposal"].(map[string]interface{})
	if original["status"] != "revised" {
		t.Errorf("expected original marked revised, got %v", original["status"])
	}
}
