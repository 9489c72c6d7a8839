package services

import (
	"context"
	"mime/multipart"
	"time"

	"cbms/internal/models"
	"cbms/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string, role models.Role, departmentID *uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	ListUsers(page pagination.PageRequest, role *models.Role) (*pagination.PageResponse[models.User], error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// DepartmentServicer defines the contract for department management.
type DepartmentServicer interface {
	CreateDepartment(name, code string) (*models.Department, error)
	ListDepartments(page pagination.PageRequest, search string, activeOnly bool) (*pagination.PageResponse[models.Department], error)
	GetDepartmentByID(id uint) (*models.Department, error)
	UpdateDepartment(id uint, name string, isActive *bool) (*models.Department, error)
	DeleteDepartment(id uint) error
}

// BudgetHeadServicer defines the contract for budget head management.
type BudgetHeadServicer interface {
	CreateBudgetHead(name, code, description string) (*models.BudgetHead, error)
	ListBudgetHeads(page pagination.PageRequest, search string, activeOnly bool) (*pagination.PageResponse[models.BudgetHead], error)
	GetBudgetHeadByID(id uint) (*models.BudgetHead, error)
	UpdateBudgetHead(id uint, name, description string, isActive *bool) (*models.BudgetHead, error)
	DeleteBudgetHead(id uint) error
}

// CategoryServicer defines the contract for category management.
type CategoryServicer interface {
	CreateCategory(name string, categoryType models.CategoryType, description string) (*models.Category, error)
	ListCategories(page pagination.PageRequest, categoryType *models.CategoryType) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(id uint) (*models.Category, error)
	UpdateCategory(id uint, name, description string, isActive *bool) (*models.Category, error)
	DeleteCategory(id uint) error
}

// FinancialYearServicer defines the contract for financial year lifecycle
// management.
type FinancialYearServicer interface {
	CreateFinancialYear(label string) (*models.FinancialYear, error)
	ListFinancialYears(page pagination.PageRequest) (*pagination.PageResponse[models.FinancialYear], error)
	GetFinancialYearByID(id uint) (*models.FinancialYear, error)
	SetStatus(id uint, to models.FinancialYearStatus, role models.Role) (*models.FinancialYear, error)
	Recalculate(id uint) (*models.FinancialYear, error)
	RecalculateAll() error
}

// Actor identifies the authenticated user taking a workflow action.
type Actor struct {
	UserID       uint
	Role         models.Role
	DepartmentID *uint
}

// ProposalItemInput is one requested line item on a proposal.
type ProposalItemInput struct {
	BudgetHeadID   uint
	ProposedAmount int64
	Justification  string
}

// ProposalFilter holds optional filter parameters for listing proposals.
type ProposalFilter struct {
	Status        *models.ProposalStatus
	DepartmentID  *uint
	FinancialYear string
}

// ProposalServicer defines the contract for the budget proposal workflow.
type ProposalServicer interface {
	CreateProposal(actor Actor, departmentID uint, financialYear, notes string, items []ProposalItemInput) (*models.BudgetProposal, error)
	UpdateDraft(actor Actor, proposalID uint, notes string, items []ProposalItemInput) (*models.BudgetProposal, error)
	GetProposalByID(proposalID uint) (*models.BudgetProposal, error)
	ListProposals(page pagination.PageRequest, filter ProposalFilter) (*pagination.PageResponse[models.BudgetProposal], error)
	Submit(actor Actor, proposalID uint) (*models.BudgetProposal, error)
	Verify(actor Actor, proposalID uint, remarks string) (*models.BudgetProposal, error)
	Approve(actor Actor, proposalID uint) (*models.BudgetProposal, error)
	Reject(actor Actor, proposalID uint, reason string) (*models.BudgetProposal, error)
	Resubmit(actor Actor, proposalID uint) (*models.BudgetProposal, error)
	Allocate(actor Actor, proposalID, itemID uint, remarks string) (*models.Allocation, error)
}

// AllocationFilter holds optional filter parameters for listing allocations.
type AllocationFilter struct {
	DepartmentID  *uint
	BudgetHeadID  *uint
	FinancialYear string
}

// AllocationServicer defines the contract for allocation management.
type AllocationServicer interface {
	CreateAllocation(departmentID, budgetHeadID uint, financialYear string, allocatedAmount int64, remarks string, sourceItemID *uint) (*models.Allocation, error)
	ListAllocations(page pagination.PageRequest, filter AllocationFilter) (*pagination.PageResponse[models.Allocation], error)
	GetAllocationByID(id uint) (*models.Allocation, error)
	UpdateRemarks(id uint, remarks string) (*models.Allocation, error)
}

// AmendmentServicer defines the contract for allocation amendments.
type AmendmentServicer interface {
	CreateAmendment(actor Actor, allocationID uint, requestedAmount int64, changeReason string) (*models.AllocationAmendment, error)
	ListAmendments(page pagination.PageRequest, status *models.AmendmentStatus) (*pagination.PageResponse[models.AllocationAmendment], error)
	GetAmendmentByID(id uint) (*models.AllocationAmendment, error)
	Approve(actor Actor, amendmentID uint) (*models.AllocationAmendment, error)
	Reject(actor Actor, amendmentID uint) (*models.AllocationAmendment, error)
}

// ExpenditureInput carries the fields needed to raise an expenditure.
type ExpenditureInput struct {
	DepartmentID   uint
	BudgetHeadID   uint
	BillNumber     string
	BillDate       time.Time
	BillAmount     int64
	PartyName      string
	ExpenseDetails string
	// Justification is required when the bill exceeds the remaining
	// allocation and the overspend policy routes through an override.
	OverrideJustification string
}

// ExpenditureFilter holds optional filter parameters for listing expenditures.
type ExpenditureFilter struct {
	Status        *models.ExpenditureStatus
	DepartmentID  *uint
	BudgetHeadID  *uint
	FinancialYear string
}

// ExpenditureServicer defines the contract for the expenditure workflow.
type ExpenditureServicer interface {
	CreateExpenditure(actor Actor, input ExpenditureInput) (*models.Expenditure, error)
	GetExpenditureByID(id uint) (*models.Expenditure, error)
	ListExpenditures(page pagination.PageRequest, filter ExpenditureFilter) (*pagination.PageResponse[models.Expenditure], error)
	Verify(actor Actor, expenditureID uint, remarks string) (*models.Expenditure, error)
	Approve(actor Actor, expenditureID uint, remarks string) (*models.Expenditure, error)
	Reject(actor Actor, expenditureID uint, remarks string) (*models.Expenditure, error)
	Resubmit(actor Actor, expenditureID uint, remarks string) (*models.Expenditure, error)
	AddAttachment(ctx context.Context, actor Actor, expenditureID uint, file *multipart.FileHeader) (*models.Attachment, error)
	OpenAttachment(ctx context.Context, expenditureID, attachmentID uint) (*models.Attachment, []byte, error)
}

// OverrideServicer defines the contract for budget override approvals.
type OverrideServicer interface {
	ListOverrides(page pagination.PageRequest, status *models.OverrideStatus) (*pagination.PageResponse[models.BudgetOverride], error)
	GetOverrideByID(id uint) (*models.BudgetOverride, error)
	Approve(actor Actor, overrideID uint) (*models.BudgetOverride, error)
	Reject(actor Actor, overrideID uint) (*models.BudgetOverride, error)
}

// IncomeInput carries the fields needed to record income.
type IncomeInput struct {
	FinancialYear   string
	Source          models.IncomeSource
	Category        models.CategoryType
	Amount          int64
	ExpectedDate    *time.Time
	ReferenceNumber string
}

// IncomeServicer defines the contract for income tracking.
type IncomeServicer interface {
	CreateIncome(input IncomeInput) (*models.Income, error)
	ListIncome(page pagination.PageRequest, financialYear string, status *models.IncomeStatus) (*pagination.PageResponse[models.Income], error)
	GetIncomeByID(id uint) (*models.Income, error)
	MarkReceived(actor Actor, incomeID uint, receivedDate time.Time) (*models.Income, error)
	Verify(actor Actor, incomeID uint) (*models.Income, error)
}

// ItemStats contains the advisory reconciliation figures for one
// department/budget-head pair relative to a proposal's financial year.
type ItemStats struct {
	FinancialYear     string `json:"financial_year"`
	PreviousYear      string `json:"previous_year"`
	PrevYearAllocated int64  `json:"prev_year_allocated"`
	PrevYearSpent     int64  `json:"prev_year_spent"`
	PrevYearBalance   int64  `json:"prev_year_balance"`
	CurrentYearSpent  int64  `json:"current_year_spent"`
}

// DepartmentStats aggregates reconciliation figures across a whole
// department.
type DepartmentStats struct {
	ItemStats
	DepartmentID uint `json:"department_id"`
}

// ReconciliationServicer computes advisory allocated/spent figures used
// to inform approval decisions. It is read-only; results can be stale the
// moment they are returned, because concurrent expenditure approvals are
// not locked out during the independent sum queries.
type ReconciliationServicer interface {
	ItemStats(departmentID, budgetHeadID uint, proposalYear string) (*ItemStats, error)
	DepartmentStats(departmentID uint, proposalYear string) (*DepartmentStats, error)
}

// SettingsServicer manages system-wide settings.
type SettingsServicer interface {
	OverspendPolicy() (models.OverspendPolicy, error)
	SetOverspendPolicy(policy models.OverspendPolicy) error
}

// DashboardRow is one department's aggregate line on the dashboard.
type DashboardRow struct {
	DepartmentID   uint    `json:"department_id"`
	DepartmentName string  `json:"department_name"`
	Allocated      int64   `json:"allocated"`
	Spent          int64   `json:"spent"`
	Remaining      int64   `json:"remaining"`
	UtilizationPct float64 `json:"utilization_pct"`
}

// Dashboard is the consolidated view for a financial year.
type Dashboard struct {
	FinancialYear       string         `json:"financial_year"`
	Rows                []DashboardRow `json:"rows"`
	TotalAllocated      int64          `json:"total_allocated"`
	TotalSpent          int64          `json:"total_spent"`
	TotalIncome         int64          `json:"total_income"`
	PendingProposals    int64          `json:"pending_proposals"`
	PendingExpenditures int64          `json:"pending_expenditures"`
	PendingAmendments   int64          `json:"pending_amendments"`
	PendingOverrides    int64          `json:"pending_overrides"`
}

// ReportServicer consolidates proposals, allocations, and expenditures
// into dashboards and exports.
type ReportServicer interface {
	Dashboard(financialYear string) (*Dashboard, error)
	ProposalRegisterCSV(financialYear string) ([]byte, error)
	ConsolidatedCSV(financialYear string) ([]byte, error)
	ConsolidatedXLSX(financialYear string) ([]byte, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
	ListLogs(page pagination.PageRequest, userID *uint) (*pagination.PageResponse[models.AuditLog], error)
}
