package services

import (
	"testing"
	"time"

	"cbms/internal/models"
	"cbms/internal/testutil"
	"gorm.io/gorm"
)

func newTestReconciliationService(db *gorm.DB) *reconciliationService {
	svc := NewReconciliationService(db).(*reconciliationService)
	svc.now = func() time.Time { return fixedJune2025 }
	return svc
}

func TestItemStats(t *testing.T) {
	t.Run("previous_year_figures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestReconciliationService(db)

		dept := testutil.CreateTestDepartment(t, db)
		head := testutil.CreateTestBudgetHead(t, db)
		hod := testutil.CreateTestUserInDepartment(t, db, models.RoleHOD, &dept.ID)

		// The comparison window is two years before the proposal's year.
		testutil.CreateTestAllocation(t, db, dept.ID, head.ID, "2023-2024", 200000, 150000)

		// Approved spend in the current year counts; pending does not.
		approved := testutil.CreateTestExpenditure(t, db, dept.ID, head.ID, hod.ID, "2025-2026", 30000)
		testutil.AssertNoError(t, db.Model(approved).Update("status", models.ExpenditureApproved).Error)
		testutil.CreateTestExpenditure(t, db, dept.ID, head.ID, hod.ID, "2025-2026", 99999)

		stats, err := svc.ItemStats(dept.ID, head.ID, "2025-2026")
		testutil.AssertNoError(t, err)

		if stats.PreviousYear != "2023-2024" {
			t.Errorf("expected previous year 2023-2024, got %s", stats.PreviousYear)
		}
		if stats.PrevYearAllocated != 200000 {
			t.Errorf("expected prev allocated 200000, got %d", stats.PrevYearAllocated)
		}
		if stats.PrevYearSpent != 150000 {
			t.Errorf("expected prev spent 150000, got %d", stats.PrevYearSpent)
		}
		if stats.PrevYearBalance != 50000 {
			t.Errorf("expected prev balance 50000, got %d", stats.PrevYearBalance)
		}
		if stats.CurrentYearSpent != 30000 {
			t.Errorf("expected current spent 30000, got %d", stats.CurrentYearSpent)
		}
	})

	t.Run("no_prior_allocation_is_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestReconciliationService(db)

		dept := testutil.CreateTestDepartment(t, db)
		head := testutil.CreateTestBudgetHead(t, db)

		stats, err := svc.ItemStats(dept.ID, head.ID, "2025-2026")
		testutil.AssertNoError(t, err)
		if stats.PrevYearAllocated != 0 || stats.PrevYearSpent != 0 || stats.PrevYearBalance != 0 {
			t.Errorf("expected zero prior figures, got %+v", stats)
		}
	})

	t.Run("ignores_year_immediately_before", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestReconciliationService(db)

		dept := testutil.CreateTestDepartment(t, db)
		head := testutil.CreateTestBudgetHead(t, db)

		testutil.CreateTestAllocation(t, db, dept.ID, head.ID, "2023-2024", 500000, 200000)
		testutil.CreateTestAllocation(t, db, dept.ID, head.ID, "2024-2025", 999999, 999999)

		stats, err := svc.ItemStats(dept.ID, head.ID, "2025-2026")
		testutil.AssertNoError(t, err)
		if stats.PreviousYear != "2023-2024" {
			t.Errorf("expected previous year 2023-2024, got %s", stats.PreviousYear)
		}
		if stats.PrevYearAllocated != 500000 {
			t.Errorf("expected prev allocated 500000, got %d", stats.PrevYearAllocated)
		}
		if stats.PrevYearSpent != 200000 {
			t.Errorf("expected prev spent 200000, got %d", stats.PrevYearSpent)
		}
	})

	t.Run("bad_year_label", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestReconciliationService(db)

		_, err := svc.ItemStats(1, 1, "not-a-year")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})
}

func TestDepartmentStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestReconciliationService(db)

	dept := testutil.CreateTestDepartment(t, db)
	headA := testutil.CreateTestBudgetHead(t, db)
	headB := testutil.CreateTestBudgetHead(t, db)
	hod := testutil.CreateTestUserInDepartment(t, db, models.RoleHOD, &dept.ID)

	testutil.CreateTestAllocation(t, db, dept.ID, headA.ID, "2023-2024", 100000, 80000)
	testutil.CreateTestAllocation(t, db, dept.ID, headB.ID, "2023-2024", 50000, 50000)

	approved := testutil.CreateTestExpenditure(t, db, dept.ID, headA.ID, hod.ID, "2025-2026", 20000)
	testutil.AssertNoError(t, db.Model(approved).Update("status", models.ExpenditureApproved).Error)

	stats, err := svc.DepartmentStats(dept.ID, "2025-2026")
	testutil.AssertNoError(t, err)

	if stats.PrevYearAllocated != 150000 {
		t.Errorf("expected prev allocated 150000, got %d", stats.PrevYearAllocated)
	}
	if stats.PrevYearSpent != 130000 {
		t.Errorf("expected prev spent 130000, got %d", stats.PrevYearSpent)
	}
	if stats.PrevYearBalance != 20000 {
		t.Errorf("expected prev balance 20000, got %d", stats.PrevYearBalance)
	}
	if stats.CurrentYearSpent != 20000 {
		t.Errorf("expected current spent 20000, got %d", stats.CurrentYearSpent)
	}
}
