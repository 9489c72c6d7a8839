package services

import (
	"testing"

	"cbms/internal/models"
	"cbms/internal/testutil"
)

func createPendingOverride(t *testing.T, svc *expenditureService, dept *models.Department, head *models.BudgetHead, hod *models.User) *models.BudgetOverride {
	t.Helper()

	input := billInput(dept.ID, head.ID, 70000)
	input.OverrideJustification = "urgent replacement"
	exp, err := svc.CreateExpenditure(actorFor(hod), input)
	testutil.AssertNoError(t, err)

	var override models.BudgetOverride
	testutil.AssertNoError(t, svc.db.Where("expenditure_id = ?", exp.ID).First(&override).Error)
	return &override
}

func TestRejectOverrideCascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	expSvc := newTestExpenditureService(db)
	testutil.AssertNoError(t, expSvc.settings.SetOverspendPolicy(models.OverspendOverride))
	svc := NewOverrideService(db)

	dept := testutil.CreateTestDepartment(t, db)
	hod := testutil.CreateTestUserInDepartment(t, db, models.RoleHOD, &dept.ID)
	principal := testutil.CreateTestUser(t, db, models.RolePrincipal)
	head := testutil.CreateTestBudgetHead(t, db)
	alloc := testutil.CreateTestAllocation(t, db, dept.ID, head.ID, "2025-2026", 100000, 40000)

	override := createPendingOverride(t, expSvc, dept, head, hod)

	decided, err := svc.Reject(actorFor(principal), override.ID)
	testutil.AssertNoError(t, err)
	if decided.Status != models.OverrideRejected {
		t.Errorf("expected rejected override, got %s", decided.Status)
	}
	if decided.RejectedAt == nil {
		t.Error("expected a rejection timestamp")
	}

	var exp models.Expenditure
	testutil.AssertNoError(t, db.First(&exp, override.ExpenditureID).Error)
	if exp.Status != models.ExpenditureRejected {
		t.Errorf("expected expenditure rejected with its override, got %s", exp.Status)
	}

	// Nothing was ever added to the allocation.
	var after models.Allocation
	testutil.AssertNoError(t, db.First(&after, alloc.ID).Error)
	if after.SpentAmount != 40000 {
		t.Errorf("expected spent unchanged at 40000, got %d", after.SpentAmount)
	}

	// A second decision on the same override is refused.
	_, err = svc.Approve(actorFor(principal), override.ID)
	testutil.AssertAppError(t, err, "INVALID_TRANSITION")
}

func TestOverrideCapturesFigures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	expSvc := newTestExpenditureService(db)
	testutil.AssertNoError(t, expSvc.settings.SetOverspendPolicy(models.OverspendOverride))

	dept := testutil.CreateTestDepartment(t, db)
	hod := testutil.CreateTestUserInDepartment(t, db, models.RoleHOD, &dept.ID)
	head := testutil.CreateTestBudgetHead(t, db)
	testutil.CreateTestAllocation(t, db, dept.ID, head.ID, "2025-2026", 100000, 40000)

	override := createPendingOverride(t, expSvc, dept, head, hod)

	if override.AllocationAmount != 100000 {
		t.Errorf("expected captured allocation 100000, got %d", override.AllocationAmount)
	}
	if override.AllocationSpent != 40000 {
		t.Errorf("expected captured spent 40000, got %d", override.AllocationSpent)
	}
	if override.ExpenseAmount != 70000 {
		t.Errorf("expected expense 70000, got %d", override.ExpenseAmount)
	}
	if override.OverrunAmount != 10000 {
		t.Errorf("expected overrun 10000, got %d", override.OverrunAmount)
	}
	if override.Justification == "" {
		t.Error("expected a justification")
	}
}
