package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "cbms/internal/errors"
	"cbms/internal/fiscal"
	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/workflow"
)

// financialYearService handles financial year lifecycle management and
// cached aggregate totals.
type financialYearService struct {
	db *gorm.DB
}

// NewFinancialYearService creates a new FinancialYearServicer.
func NewFinancialYearService(db *gorm.DB) FinancialYearServicer {
	return &financialYearService{db: db}
}

// CreateFinancialYear creates a financial year in planning status.
func (s *financialYearService) CreateFinancialYear(label string) (*models.FinancialYear, error) {
	if !fiscal.Valid(label) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "financial year must be in the form YYYY-YYYY with consecutive years")
	}

	var count int64
	s.db.Model(&models.FinancialYear{}).Where("label = ?", label).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateCode
	}

	fy := &models.FinancialYear{Label: label, Status: models.FinancialYearPlanning}
	if err := s.db.Create(fy).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return fy, nil
}

// ListFinancialYears returns a paginated list of financial years, most
// recent first.
func (s *financialYearService) ListFinancialYears(page pagination.PageRequest) (*pagination.PageResponse[models.FinancialYear], error) {
	page.Defaults()

	base := s.db.Model(&models.FinancialYear{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var years []models.FinancialYear
	if err := base.Scopes(pagination.Paginate(page)).Order("label DESC").Find(&years).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(years, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetFinancialYearByID returns a financial year by ID.
func (s *financialYearService) GetFinancialYearByID(id uint) (*models.FinancialYear, error) {
	var fy models.FinancialYear
	if err := s.db.First(&fy, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFinancialYearNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &fy, nil
}

// SetStatus moves a financial year through its lifecycle
// (planning→active→locked→closed), gated by role.
func (s *financialYearService) SetStatus(id uint, to models.FinancialYearStatus, role models.Role) (*models.FinancialYear, error) {
	fy, err := s.GetFinancialYearByID(id)
	if err != nil {
		return nil, err
	}

	if err := workflow.FinancialYearTransition(to, fy.Status, role); err != nil {
		return nil, err
	}

	if err := s.db.Model(fy).Update("status", to).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	fy.Status = to
	return fy, nil
}

// Recalculate refreshes the cached totals for one financial year from
// the allocation, expenditure, and income tables.
func (s *financialYearService) Recalculate(id uint) (*models.FinancialYear, error) {
	fy, err := s.GetFinancialYearByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.recalculate(fy); err != nil {
		return nil, err
	}
	return fy, nil
}

// RecalculateAll refreshes cached totals for every financial year that
// is not closed. Used by the periodic refresh job.
func (s *financialYearService) RecalculateAll() error {
	var years []models.FinancialYear
	if err := s.db.Where("status <> ?", models.FinancialYearClosed).Find(&years).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range years {
		if err := s.recalculate(&years[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *financialYearService) recalculate(fy *models.FinancialYear) error {
	var allocated, spent, income int64

	err := s.db.Model(&models.Allocation{}).
		Select("COALESCE(SUM(allocated_amount), 0)").
		Where("financial_year = ?", fy.Label).
		Scan(&allocated).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.db.Model(&models.Expenditure{}).
		Select("COALESCE(SUM(bill_amount), 0)").
		Where("financial_year = ? AND status = ?", fy.Label, models.ExpenditureApproved).
		Scan(&spent).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.db.Model(&models.Income{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("financial_year = ? AND status IN ?", fy.Label,
			[]models.IncomeStatus{models.IncomeReceived, models.IncomeVerified}).
		Scan(&income).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{
		"total_allocated": allocated,
		"total_spent":     spent,
		"total_income":    income,
	}
	if err := s.db.Model(fy).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	fy.TotalAllocated = allocated
	fy.TotalSpent = spent
	fy.TotalIncome = income
	return nil
}
