package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "cbms/internal/errors"
	"cbms/internal/fiscal"
	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/workflow"
)

// incomeService tracks expected and received college income.
type incomeService struct {
	db *gorm.DB
}

// NewIncomeService creates a new IncomeServicer.
func NewIncomeService(db *gorm.DB) IncomeServicer {
	return &incomeService{db: db}
}

// CreateIncome records expected income for a financial year.
func (s *incomeService) CreateIncome(input IncomeInput) (*models.Income, error) {
	if !fiscal.Valid(input.FinancialYear) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "financial year must be in YYYY-YYYY form with consecutive years")
	}
	if input.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "income amount must be positive")
	}

	income := &models.Income{
		FinancialYear:   input.FinancialYear,
		Source:          input.Source,
		Category:        input.Category,
		Amount:          input.Amount,
		ExpectedDate:    input.ExpectedDate,
		Status:          models.IncomeExpected,
		ReferenceNumber: input.ReferenceNumber,
	}
	if err := s.db.Create(income).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return income, nil
}

// ListIncome returns a paginated list of income records, optionally
// filtered by financial year and status.
func (s *incomeService) ListIncome(page pagination.PageRequest, financialYear string, status *models.IncomeStatus) (*pagination.PageResponse[models.Income], error) {
	page.Defaults()

	base := s.db.Model(&models.Income{})
	if financialYear != "" {
		base = base.Where("financial_year = ?", financialYear)
	}
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var incomes []models.Income
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&incomes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(incomes, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetIncomeByID returns an income record by ID.
func (s *incomeService) GetIncomeByID(id uint) (*models.Income, error) {
	var income models.Income
	if err := s.db.First(&income, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrIncomeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &income, nil
}

// MarkReceived records that expected income has arrived.
func (s *incomeService) MarkReceived(actor Actor, incomeID uint, receivedDate time.Time) (*models.Income, error) {
	income, err := s.GetIncomeByID(incomeID)
	if err != nil {
		return nil, err
	}

	to, err := workflow.IncomeTransition(workflow.ActionSubmit, income.Status, actor.Role)
	if err != nil {
		return nil, err
	}

	if receivedDate.IsZero() {
		receivedDate = time.Now()
	}
	updates := map[string]interface{}{
		"status":        to,
		"received_date": &receivedDate,
	}
	if err := s.db.Model(income).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	income.Status = to
	income.ReceivedDate = &receivedDate
	return income, nil
}

// Verify confirms received income against bank records. Only the
// principal or an admin may verify.
func (s *incomeService) Verify(actor Actor, incomeID uint) (*models.Income, error) {
	income, err := s.GetIncomeByID(incomeID)
	if err != nil {
		return nil, err
	}

	to, err := workflow.IncomeTransition(workflow.ActionVerify, income.Status, actor.Role)
	if err != nil {
		return nil, err
	}

	verifierID := actor.UserID
	updates := map[string]interface{}{
		"status":         to,
		"verified_by_id": verifierID,
	}
	if err := s.db.Model(income).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	income.Status = to
	income.VerifiedByID = &verifierID
	return income, nil
}
