package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"cbms/internal/fiscal"
	"cbms/internal/models"
)

// seedAllocation creates an allocation for the current financial year so
// expenditures raised through the API find it.
func (app *testApp) seedAllocation(t *testing.T, departmentID, budgetHeadID uint, amount int64) *models.Allocation {
	t.Helper()
	alloc := &models.Allocation{
		DepartmentID:    departmentID,
		BudgetHeadID:    budgetHeadID,
		FinancialYear:   fiscal.Current(time.Now()),
		AllocatedAmount: amount,
	}
	if err := app.DB.Create(alloc).Error; err != nil {
		t.Fatalf("failed to seed allocation: %v", err)
	}
	return alloc
}

func expenditureBody(departmentID, budgetHeadID uint, amount int64, justification string) string {
	body := fmt.Sprintf(`{
		"department_id": %d,
		"budget_head_id": %d,
		"bill_number": "INV-1001",
		"bill_date": "2026-08-20",
		"bill_amount": %d,
		"party_name": "Acme Supplies"`, departmentID, budgetHeadID, amount)
	if justification != "" {
		body += fmt.Sprintf(`, "override_justification": %q`, justification)
	}
	return body + "}"
}

func TestExpenditureApprovalUpdatesSpent(t *testing.T) {
	app := setupApp(t)

	dept := app.seedDepartment(t)
	head := app.seedBudgetHead(t)
	app.seedAllocation(t, dept.ID, head.ID, 100000)

	deptToken, _ := app.seedUser(t, models.RoleDepartment, &dept.ID)
	officeToken, _ := app.seedUser(t, models.RoleOffice, nil)
	principalToken, _ := app.seedUser(t, models.RolePrincipal, nil)

	rec := app.request("POST", "/api/v1/expenditures", expenditureBody(dept.ID, head.ID, 40000, ""), deptToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	exp := parseJSON(t, rec)["expenditure"].(map[string]interface{})
	if exp["status"] != "pending" {
		t.Errorf("expected status pending, got %v", exp["status"])
	}
	expID := uint(exp["id"].(float64))

	rec = app.request("POST", fmt.Sprintf("/api/v1/expenditures/%d/verify", expID), `{"remarks":"Bill checked against delivery note"}`, officeToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", fmt.Sprintf("/api/v1/expenditures/%d/approve", expID), "", principalToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	exp = parseJSON(t, rec)["expenditure"].(map[string]interface{})
	if exp["status"] != "approved" {
		t.Errorf("expected status approved, got %v", exp["status"])
	}

	// The allocation reflects the approved spend.
	rec = app.request("GET", fmt.Sprintf("/api/v1/allocations?department_id=%d", dept.ID), "", deptToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("list allocations: expected 200, got %d", rec.Code)
	}
	data := parseJSON(t, rec)["data"].([]interface{})
	alloc := data[0].(map[string]interface{})
	if alloc["spent_amount"].(float64) != 40000 {
		t.Errorf("expected spent_amount 40000, got %v", alloc["spent_amount"])
	}
	if alloc["remaining_amount"].(float64) != 60000 {
		t.Errorf("expected remaining_amount 60000, got %v", alloc["remaining_amount"])
	}
}

func TestExpenditureOverspendDisallowed(t *testing.T) {
	app := setupApp(t)

	dept := app.seedDepartment(t)
	head := app.seedBudgetHead(t)
	app.seedAllocation(t, dept.ID, head.ID, 50000)

	deptToken, _ := app.seedUser(t, models.RoleDepartment, &dept.ID)

	rec := app.request("POST", "/api/v1/expenditures", expenditureBody(dept.ID, head.ID, 70000, ""), deptToken)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	errBody := parseJSON(t, rec)["error"].(map[string]interface{})
	if errBody["code"] != "EXCEEDS_BUDGET" {
		t.Errorf("expected EXCEEDS_BUDGET, got %v", errBody["code"])
	}
}

func TestExpenditureWithoutAllocation(t *testing.T) {
	app := setupApp(t)

	dept := app.seedDepartment(t)
	head := app.seedBudgetHead(t)
	deptToken, _ := app.seedUser(t, models.RoleDepartment, &dept.ID)

	rec := app.request("POST", "/api/v1/expenditures", expenditureBody(dept.ID, head.ID, 10000, ""), deptToken)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	errBody := parseJSON(t, rec)["error"].(map[string]interface{})
	if errBody["code"] != "NO_ALLOCATION" {
		t.Errorf("expected NO_ALLOCATION, got %v", errBody["code"])
	}
}

func TestExpenditureOverrideFlow(t *testing.T) {
	app := setupApp(t)

	dept := app.seedDepartment(t)
	head := app.seedBudgetHead(t)
	app.seedAllocation(t, dept.ID, head.ID, 50000)

	deptToken, _ := app.seedUser(t, models.RoleDepartment, &dept.ID)
	principalToken, _ := app.seedUser(t, models.RolePrincipal, nil)

	// Principal switches the overspend policy to override.
	rec := app.request("PUT", "/api/v1/settings", `{"overspend_policy":"override"}`, principalToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("update settings: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// An overrun without a justification is still refused.
	rec = app.request("POST", "/api/v1/expenditures", expenditureBody(dept.ID, head.ID, 70000, ""), deptToken)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without justification, got %d: %s", rec.Code, rec.Body.String())
	}

	// With a justification the bill is accepted and an override opens.
	rec = app.request("POST", "/api/v1/expenditures",
		expenditureBody(dept.ID, head.ID, 70000, "Emergency repair of the main transformer"), deptToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create with justification: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	expID := uint(parseJSON(t, rec)["expenditure"].(map[string]interface{})["id"].(float64))

	// Approval is blocked while the override is pending.
	rec = app.request("POST", fmt.Sprintf("/api/v1/expenditures/%d/approve", expID), "", principalToken)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while override pending, got %d: %s", rec.Code, rec.Body.String())
	}
	errBody := parseJSON(t, rec)["error"].(map[string]interface{})
	if errBody["code"] != "OVERRIDE_PENDING" {
		t.Errorf("expected OVERRIDE_PENDING, got %v", errBody["code"])
	}

	// Principal reviews and approves the override.
	rec = app.request("GET", "/api/v1/overrides?status=pending", "", principalToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("list overrides: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := parseJSON(t, rec)["data"].([]interface{})
	if len(data) != 1 {
		t.Fatalf("expected 1 pending override, got %d", len(data))
	}
	override := data[0].(map[string]interface{})
	if override["overrun_amount"].(float64) != 20000 {
		t.Errorf("expected overrun_amount 20000, got %v", override["overrun_amount"])
	}
	overrideID := uint(override["id"].(float64))

	rec = app.request("POST", fmt.Sprintf("/api/v1/overrides/%d/approve", overrideID), "", principalToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve override: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Now the expenditure itself can be approved.
	rec = app.request("POST", fmt.Sprintf("/api/v1/expenditures/%d/approve", expID), "", principalToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve expenditure: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Spent exceeds allocated; the displayed remaining clamps at zero.
	rec = app.request("GET", fmt.Sprintf("/api/v1/allocations?department_id=%d", dept.ID), "", deptToken)
	alloc := parseJSON(t, rec)["data"].([]interface{})[0].(map[string]interface{})
	if alloc["spent_amount"].(float64) != 70000 {
		t.Errorf("expected spent_amount 70000, got %v", alloc["spent_amount"])
	}
	if alloc["remaining_amount"].(float64) != -20000 {
		t.Errorf("expected remaining_amount -20000, got %v", alloc["remaining_amount"])
	}
	if alloc["display_remaining"].(float64) != 0 {
		t.Errorf("expected display_remaining 0, got %v", alloc["display_remaining"])
	}
}

func TestExpenditureRejectionAndResubmit(t *testing.T) {
	app := setupApp(t)

	dept := app.seedDepartment(t)
	head := app.seedBudgetHead(t)
	app.seedAllocation(t, dept.ID, head.ID, 100000)

	deptToken, _ := app.seedUser(t, models.RoleDepartment, &dept.ID)
	officeToken, _ := app.seedUser(t, models.RoleOffice, nil)

	rec := app.request("POST", "/api/v1/expenditures", expenditureBody(dept.ID, head.ID, 30000, ""), deptToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	expID := uint(parseJSON(t, rec)["expenditure"].(map[string]interface{})["id"].(float64))

	rec = app.request("POST", fmt.Sprintf("/api/v1/expenditures/%d/reject", expID), `{"reason":"Bill number does not match the invoice"}`, officeToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	exp := parseJSON(t, rec)["expenditure"].(map[string]interface{})
	if exp["status"] != "rejected" {
		t.Errorf("expected status rejected, got %v", exp["status"])
	}

	rec = app.request("POST", fmt.Sprintf("/api/v1/expenditures/%d/resubmit", expID), "", deptToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("resubmit: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	fresh := parseJSON(t, rec)["expenditure"].(map[string]interface{})
	if fresh["status"] != "pending" {
		t.Errorf("expected fresh expenditure pending, got %v", fresh["status"])
	}
}
