package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"cbms/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password, unique email, and
// the given role.
func CreateTestUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	return CreateTestUserInDepartment(t, db, role, nil)
}

// CreateTestUserInDepartment creates a user bound to a department.
func CreateTestUserInDepartment(t *testing.T, db *gorm.DB, role models.Role, departmentID *uint) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        fmt.Sprintf("user%d@test.com", nextID()),
		Password:     string(hash),
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		DepartmentID: departmentID,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestDepartment creates a department with a unique code.
func CreateTestDepartment(t *testing.T, db *gorm.DB) *models.Department {
	t.Helper()

	n := nextID()
	dept := &models.Department{
		Name:     fmt.Sprintf("Test Department %d", n),
		Code:     fmt.Sprintf("DEPT%d", n),
		IsActive: true,
	}
	if err := db.Create(dept).Error; err != nil {
		t.Fatalf("failed to create test department: %v", err)
	}
	return dept
}

// CreateTestBudgetHead creates a budget head with a unique code.
func CreateTestBudgetHead(t *testing.T, db *gorm.DB) *models.BudgetHead {
	t.Helper()

	n := nextID()
	head := &models.BudgetHead{
		Name:     fmt.Sprintf("Test Budget Head %d", n),
		Code:     fmt.Sprintf("BH%d", n),
		IsActive: true,
	}
	if err := db.Create(head).Error; err != nil {
		t.Fatalf("failed to create test budget head: %v", err)
	}
	return head
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:     fmt.Sprintf("Test Category %d", nextID()),
		Type:     categoryType,
		IsActive: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestFinancialYear creates a financial year with the given label
// in active status.
func CreateTestFinancialYear(t *testing.T, db *gorm.DB, label string) *models.FinancialYear {
	t.Helper()

	year := &models.FinancialYear{
		Label:  label,
		Status: models.FinancialYearActive,
	}
	if err := db.Create(year).Error; err != nil {
		t.Fatalf("failed to create test financial year: %v", err)
	}
	return year
}

// CreateTestAllocation creates an allocation with the given amounts.
func CreateTestAllocation(t *testing.T, db *gorm.DB, departmentID, budgetHeadID uint, financialYear string, allocated, spent int64) *models.Allocation {
	t.Helper()

	alloc := &models.Allocation{
		DepartmentID:    departmentID,
		BudgetHeadID:    budgetHeadID,
		FinancialYear:   financialYear,
		AllocatedAmount: allocated,
		SpentAmount:     spent,
	}
	if err := db.Create(alloc).Error; err != nil {
		t.Fatalf("failed to create test allocation: %v", err)
	}
	return alloc
}

// CreateTestProposal creates a draft proposal with one item per amount.
func CreateTestProposal(t *testing.T, db *gorm.DB, departmentID, createdByID uint, financialYear string, itemAmounts ...int64) *models.BudgetProposal {
	t.Helper()

	var total int64
	items := make([]models.ProposalItem, 0, len(itemAmounts))
	for _, amount := range itemAmounts {
		head := CreateTestBudgetHead(t, db)
		items = append(items, models.ProposalItem{
			BudgetHeadID:   head.ID,
			ProposedAmount: amount,
			Justification:  "required for the academic year",
		})
		total += amount
	}

	proposal := &models.BudgetProposal{
		FinancialYear:       financialYear,
		DepartmentID:        departmentID,
		Status:              models.ProposalDraft,
		TotalProposedAmount: total,
		CreatedByID:         createdByID,
		Items:               items,
	}
	if err := db.Create(proposal).Error; err != nil {
		t.Fatalf("failed to create test proposal: %v", err)
	}
	return proposal
}

// CreateTestExpenditure creates a pending expenditure.
func CreateTestExpenditure(t *testing.T, db *gorm.DB, departmentID, budgetHeadID, createdByID uint, financialYear string, billAmount int64) *models.Expenditure {
	t.Helper()

	exp := &models.Expenditure{
		DepartmentID:   departmentID,
		BudgetHeadID:   budgetHeadID,
		FinancialYear:  financialYear,
		BillNumber:     fmt.Sprintf("BILL-%d", nextID()),
		BillDate:       time.Now(),
		BillAmount:     billAmount,
		PartyName:      "Test Vendor",
		ExpenseDetails: "lab supplies",
		Status:         models.ExpenditurePending,
		CreatedByID:    createdByID,
	}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("failed to create test expenditure: %v", err)
	}
	return exp
}

// CreateTestIncome creates an expected income record.
func CreateTestIncome(t *testing.T, db *gorm.DB, financialYear string, amount int64) *models.Income {
	t.Helper()

	income := &models.Income{
		FinancialYear: financialYear,
		Source:        models.IncomeSourceGovernmentGrant,
		Category:      models.CategoryTypeRecurring,
		Amount:        amount,
		Status:        models.IncomeExpected,
	}
	if err := db.Create(income).Error; err != nil {
		t.Fatalf("failed to create test income: %v", err)
	}
	return income
}
