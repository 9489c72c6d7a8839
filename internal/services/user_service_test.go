package services

import (
	"testing"

	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/testutil"
)

func TestUserService(t *testing.T) {
	t.Run("create_and_fetch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		dept := testutil.CreateTestDepartment(t, db)
		user, err := svc.CreateUser("clerk@college.edu", "password123", "Asha", "Nair", models.RoleDepartment, &dept.ID)
		testutil.AssertNoError(t, err)
		if user.Password == "password123" {
			t.Error("password stored in plaintext")
		}

		fetched, err := svc.GetUserByEmail("clerk@college.edu")
		testutil.AssertNoError(t, err)
		if fetched.ID != user.ID {
			t.Errorf("expected user %d, got %d", user.ID, fetched.ID)
		}
		if !svc.VerifyPassword(fetched, "password123") {
			t.Error("expected password to verify")
		}
		if svc.VerifyPassword(fetched, "wrong") {
			t.Error("expected wrong password to fail")
		}
	})

	t.Run("department_required_for_department_roles", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		for _, role := range []models.Role{models.RoleHOD, models.RoleDepartment} {
			_, err := svc.CreateUser("nodept@college.edu", "password123", "N", "D", role, nil)
			testutil.AssertAppError(t, err, "INVALID_INPUT")
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("dup@college.edu", "password123", "A", "B", models.RoleOffice, nil)
		testutil.AssertNoError(t, err)
		_, err = svc.CreateUser("dup@college.edu", "password456", "C", "D", models.RoleOffice, nil)
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("login_success_resets_failures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		dept := testutil.CreateTestDepartment(t, db)
		_, err := svc.CreateUser("hod@college.edu", "password123", "R", "Iyer", models.RoleHOD, &dept.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.AttemptLogin("hod@college.edu", "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")

		_, err = svc.AttemptLogin("hod@college.edu", "password123")
		testutil.AssertNoError(t, err)

		user, err := svc.GetUserByEmail("hod@college.edu")
		testutil.AssertNoError(t, err)
		if user.FailedLoginAttempts != 0 {
			t.Errorf("expected failure counter reset, got %d", user.FailedLoginAttempts)
		}
		if user.LastLoginAt == nil {
			t.Error("expected last login recorded")
		}
	})

	t.Run("locks_after_repeated_failures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("locked@college.edu", "password123", "L", "M", models.RoleOffice, nil)
		testutil.AssertNoError(t, err)

		for i := 0; i < maxFailedLogins; i++ {
			_, err = svc.AttemptLogin("locked@college.edu", "wrong")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		_, err = svc.AttemptLogin("locked@college.edu", "password123")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")
	})

	t.Run("list_filtered_by_role", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		testutil.CreateTestUser(t, db, models.RoleOffice)
		testutil.CreateTestUser(t, db, models.RoleHOD)
		testutil.CreateTestUser(t, db, models.RoleHOD)

		role := models.RoleHOD
		result, err := svc.ListUsers(pagination.PageRequest{Page: 1, PageSize: 10}, &role)
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 HODs, got %d", result.TotalItems)
		}
	})

	t.Run("refresh_token_hash_roundtrip", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user := testutil.CreateTestUser(t, db, models.RoleOffice)
		testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "abc123"))

		hash, err := svc.GetRefreshTokenHash(user.ID)
		testutil.AssertNoError(t, err)
		if hash != "abc123" {
			t.Errorf("expected stored hash, got %q", hash)
		}
	})
}
