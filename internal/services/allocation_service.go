package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "cbms/internal/errors"
	"cbms/internal/fiscal"
	"cbms/internal/models"
	"cbms/internal/pagination"
)

// allocationService handles allocation management. Amount changes after
// creation go through the amendment workflow.
type allocationService struct {
	db *gorm.DB
}

// NewAllocationService creates a new AllocationServicer.
func NewAllocationService(db *gorm.DB) AllocationServicer {
	return &allocationService{db: db}
}

// CreateAllocation grants an amount to a department/budget-head pair for
// a financial year. The triple is unique and immutable afterwards.
func (s *allocationService) CreateAllocation(departmentID, budgetHeadID uint, financialYear string, allocatedAmount int64, remarks string, sourceItemID *uint) (*models.Allocation, error) {
	if !fiscal.Valid(financialYear) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid financial year")
	}
	if allocatedAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "allocated amount must be greater than zero")
	}

	var dept models.Department
	if err := s.db.First(&dept, departmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDepartmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var head models.BudgetHead
	if err := s.db.First(&head, budgetHeadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetHeadNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	s.db.Model(&models.Allocation{}).
		Where("department_id = ? AND budget_head_id = ? AND financial_year = ?",
			departmentID, budgetHeadID, financialYear).
		Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateAllocation
	}

	alloc := &models.Allocation{
		DepartmentID:         departmentID,
		BudgetHeadID:         budgetHeadID,
		FinancialYear:        financialYear,
		AllocatedAmount:      allocatedAmount,
		Remarks:              remarks,
		SourceProposalItemID: sourceItemID,
	}
	if err := s.db.Create(alloc).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	alloc.Recompute()
	return alloc, nil
}

// ListAllocations returns a paginated, filtered list of allocations.
func (s *allocationService) ListAllocations(page pagination.PageRequest, filter AllocationFilter) (*pagination.PageResponse[models.Allocation], error) {
	page.Defaults()

	base := s.db.Model(&models.Allocation{})
	if filter.DepartmentID != nil {
		base = base.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.BudgetHeadID != nil {
		base = base.Where("budget_head_id = ?", *filter.BudgetHeadID)
	}
	if filter.FinancialYear != "" {
		base = base.Where("financial_year = ?", filter.FinancialYear)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var allocations []models.Allocation
	if err := base.Preload("Department").Preload("BudgetHead").
		Scopes(pagination.Paginate(page)).
		Order("financial_year DESC, department_id").
		Find(&allocations).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(allocations, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAllocationByID returns an allocation by ID.
func (s *allocationService) GetAllocationByID(id uint) (*models.Allocation, error) {
	var alloc models.Allocation
	if err := s.db.Preload("Department").Preload("BudgetHead").First(&alloc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAllocationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &alloc, nil
}

// UpdateRemarks updates the only directly editable field of an
// allocation.
func (s *allocationService) UpdateRemarks(id uint, remarks string) (*models.Allocation, error) {
	alloc, err := s.GetAllocationByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(alloc).Update("remarks", remarks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	alloc.Remarks = remarks
	return alloc, nil
}
