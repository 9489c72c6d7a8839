package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "cbms/internal/errors"
	"cbms/internal/fiscal"
	"cbms/internal/models"
)

// reconciliationService computes the advisory previous-year and
// current-year figures shown to approvers alongside a proposal.
type reconciliationService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewReconciliationService creates a new ReconciliationServicer.
func NewReconciliationService(db *gorm.DB) ReconciliationServicer {
	return &reconciliationService{db: db, now: time.Now}
}

// ItemStats returns the previous-year allocation figures and this year's
// approved spend for one department/budget-head pair. The "previous year"
// window runs from the proposal's start year minus two to minus one,
// i.e. the financial year two before the proposal's; the current-year
// spend always uses today's financial year regardless of the proposal's.
func (s *reconciliationService) ItemStats(departmentID, budgetHeadID uint, proposalYear string) (*ItemStats, error) {
	prevYear, err := fiscal.Prior(proposalYear, 2)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, err.Error())
	}
	currentYear := fiscal.Current(s.now())

	stats := &ItemStats{
		FinancialYear: proposalYear,
		PreviousYear:  prevYear,
	}

	var alloc models.Allocation
	err = s.db.Where("department_id = ? AND budget_head_id = ? AND financial_year = ?",
		departmentID, budgetHeadID, prevYear).
		First(&alloc).Error
	switch {
	case err == nil:
		stats.PrevYearAllocated = alloc.AllocatedAmount
		stats.PrevYearSpent = alloc.SpentAmount
		stats.PrevYearBalance = alloc.AllocatedAmount - alloc.SpentAmount
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no prior allocation, figures stay zero
	default:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.db.Model(&models.Expenditure{}).
		Where("department_id = ? AND budget_head_id = ? AND financial_year = ? AND status = ?",
			departmentID, budgetHeadID, currentYear, models.ExpenditureApproved).
		Select("COALESCE(SUM(bill_amount), 0)").
		Scan(&stats.CurrentYearSpent).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return stats, nil
}

// DepartmentStats aggregates the same figures across every budget head of
// a department.
func (s *reconciliationService) DepartmentStats(departmentID uint, proposalYear string) (*DepartmentStats, error) {
	prevYear, err := fiscal.Prior(proposalYear, 2)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, err.Error())
	}
	currentYear := fiscal.Current(s.now())

	stats := &DepartmentStats{
		ItemStats: ItemStats{
			FinancialYear: proposalYear,
			PreviousYear:  prevYear,
		},
		DepartmentID: departmentID,
	}

	type allocSums struct {
		Allocated int64
		Spent     int64
	}
	var sums allocSums
	err = s.db.Model(&models.Allocation{}).
		Where("department_id = ? AND financial_year = ?", departmentID, prevYear).
		Select("COALESCE(SUM(allocated_amount), 0) AS allocated, COALESCE(SUM(spent_amount), 0) AS spent").
		Scan(&sums).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	stats.PrevYearAllocated = sums.Allocated
	stats.PrevYearSpent = sums.Spent
	stats.PrevYearBalance = sums.Allocated - sums.Spent

	err = s.db.Model(&models.Expenditure{}).
		Where("department_id = ? AND financial_year = ? AND status = ?",
			departmentID, currentYear, models.ExpenditureApproved).
		Select("COALESCE(SUM(bill_amount), 0)").
		Scan(&stats.CurrentYearSpent).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return stats, nil
}
