package services

import (
	"testing"

	"cbms/internal/models"
	"cbms/internal/testutil"
)

func TestCreateAmendment(t *testing.T) {
	t.Run("computes_change_and_percent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAmendmentService(db)

		dept := testutil.CreateTestDepartment(t, db)
		hod := testutil.CreateTestUserInDepartment(t, db, models.RoleHOD, &dept.ID)
		head := testutil.CreateTestBudgetHead(t, db)
		alloc := testutil.CreateTestAllocation(t, db, dept.ID, head.ID, "2025-2026", 100000, 0)

		amendment, err := svc.CreateAmendment(actorFor(hod), alloc.ID, 120000, "new lab opened mid-year")
		testutil.AssertNoError(t, err)

		if amendment.OriginalAmount != 100000 {
			t.Errorf("expected original 100000, got %d", amendment.OriginalAmount)
		}
		if amendment.ChangeAmount != 20000 {
			t.Errorf("expected change 20000, got %d", amendment.ChangeAmount)
		}
		if amendment.ChangePercent != 20 {
			t.Errorf("expected change percent 20, got %d", amendment.ChangePercent)
		}
		if amendment.Status != models.AmendmentPending {
			t.Errorf("expected pending status, got %s", amendment.Status)
		}
	})

	t.Run("requires_reason", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAmendmentService(db)

		hod := testutil.CreateTestUser(t, db, models.RoleHOD)
		_, err := svc.CreateAmendment(actorFor(hod), 1, 120000, "")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("unknown_allocation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAmendmentService(db)

		hod := testutil.CreateTestUser(t, db, models.RoleHOD)
		_, err := svc.CreateAmendment(actorFor(hod), 999, 120000, "reason")
		testutil.AssertAppError(t, err, "ALLOCATION_NOT_FOUND")
	})
}

func TestChangePercent(t *testing.T) {
	cases := []struct {
		name     string
		change   int64
		original int64
		want     int64
	}{
		{"twenty_percent_increase", 20000, 100000, 20},
		{"decrease", -25000, 100000, -25},
		{"zero_original", 50000, 0, 0},
		{"rounds_half_up", 125, 1000, 13},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := changePercent(tc.change, tc.original); got != tc.want {
				t.Errorf("changePercent(%d, %d) = %d, want %d", tc.change, tc.original, got, tc.want)
			}
		})
	}
}

func TestDecideAmendment(t *testing.T) {
	t.Run("approve_applies_requested_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAmendmentService(db)

		dept := testutil.CreateTestDepartment(t, db)
		hod := testutil.CreateTestUserInDepartment(t, db, models.RoleHOD, &dept.ID)
		principal := testutil.CreateTestUser(t, db, models.RolePrincipal)
		head := testutil.CreateTestBudgetHead(t, db)
		alloc := testutil.CreateTestAllocation(t, db, dept.ID, head.ID, "2025-2026", 100000, 30000)

		amendment, err := svc.CreateAmendment(actorFor(hod), alloc.ID, 120000, "expansion")
		testutil.AssertNoError(t, err)

		decided, err := svc.Approve(actorFor(principal), amendment.ID)
		testutil.AssertNoError(t, err)
		if decided.Status != models.AmendmentApproved {
			t.Errorf("expected approved status, got %s", decided.Status)
		}
		if decided.ApprovedAt == nil {
			t.Error("expected an approval timestamp")
		}

		var after models.Allocation
		testutil.AssertNoError(t, db.First(&after, alloc.ID).Error)
		if after.AllocatedAmount != 120000 {
			t.Errorf("expected allocated 120000, got %d", after.AllocatedAmount)
		}
		if after.SpentAmount != 30000 {
			t.Errorf("spent amount must be untouched, got %d", after.SpentAmount)
		}
	})

	t.Run("reject_leaves_allocation_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAmendmentService(db)

		dept := testutil.CreateTestDepartment(t, db)
		hod := testutil.CreateTestUserInDepartment(t, db, models.RoleHOD, &dept.ID)
		principal := testutil.CreateTestUser(t, db, models.RolePrincipal)
		head := testutil.CreateTestBudgetHead(t, db)
		alloc := testutil.CreateTestAllocation(t, db, dept.ID, head.ID, "2025-2026", 100000, 0)

		amendment, err := svc.CreateAmendment(actorFor(hod), alloc.ID, 120000, "expansion")
		testutil.AssertNoError(t, err)

		decided, err := svc.Reject(actorFor(principal), amendment.ID)
		testutil.AssertNoError(t, err)
		if decided.Status != models.AmendmentRejected {
			t.Errorf("expected rejected status, got %s", decided.Status)
		}
		if decided.RejectedAt == nil {
			t.Error("expected a rejection timestamp")
		}

		var after models.Allocation
		testutil.AssertNoError(t, db.First(&after, alloc.ID).Error)
		if after.AllocatedAmount != 100000 {
			t.Errorf("expected allocated unchanged at 100000, got %d", after.AllocatedAmount)
		}
	})

	t.Run("second_decision_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAmendmentService(db)

		dept := testutil.CreateTestDepartment(t, db)
		hod := testutil.CreateTestUserInDepartment(t, db, models.RoleHOD, &dept.ID)
		principal := testutil.CreateTestUser(t, db, models.RolePrincipal)
		head := testutil.CreateTestBudgetHead(t, db)
		alloc := testutil.CreateTestAllocation(t, db, dept.ID, head.ID, "2025-2026", 100000, 0)

		amendment, err := svc.CreateAmendment(actorFor(hod), alloc.ID, 120000, "expansion")
		testutil.AssertNoError(t, err)

		_, err = svc.Approve(actorFor(principal), amendment.ID)
		testutil.AssertNoError(t, err)
		_, err = svc.Reject(actorFor(principal), amendment.ID)
		testutil.AssertAppError(t, err, "INVALID_TRANSITION")
	})

	t.Run("hod_cannot_decide", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAmendmentService(db)

		dept := testutil.CreateTestDepartment(t, db)
		hod := testutil.CreateTestUserInDepartment(t, db, models.RoleHOD, &dept.ID)
		head := testutil.CreateTestBudgetHead(t, db)
		alloc := testutil.CreateTestAllocation(t, db, dept.ID, head.ID, "2025-2026", 100000, 0)

		amendment, err := svc.CreateAmendment(actorFor(hod), alloc.ID, 120000, "expansion")
		testutil.AssertNoError(t, err)

		_, err = svc.Approve(actorFor(hod), amendment.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}
