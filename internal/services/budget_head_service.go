package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
	"cbms/internal/pagination"
)

// budgetHeadService handles budget head management.
type budgetHeadService struct {
	db *gorm.DB
}

// NewBudgetHeadService creates a new BudgetHeadServicer.
func NewBudgetHeadService(db *gorm.DB) BudgetHeadServicer {
	return &budgetHeadService{db: db}
}

// CreateBudgetHead creates a new budget head with a unique code.
func (s *budgetHeadService) CreateBudgetHead(name, code, description string) (*models.BudgetHead, error) {
	if name == "" || code == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name and code are required")
	}

	var count int64
	s.db.Model(&models.BudgetHead{}).Where("code = ?", code).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateCode
	}

	head := &models.BudgetHead{Name: name, Code: code, Description: description, IsActive: true}
	if err := s.db.Create(head).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return head, nil
}

// ListBudgetHeads returns a paginated list of budget heads.
func (s *budgetHeadService) ListBudgetHeads(page pagination.PageRequest, search string, activeOnly bool) (*pagination.PageResponse[models.BudgetHead], error) {
	page.Defaults()

	base := s.db.Model(&models.BudgetHead{})
	if search != "" {
		base = base.Where("name LIKE ? OR code LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if activeOnly {
		base = base.Where("is_active = ?", true)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var heads []models.BudgetHead
	if err := base.Scopes(pagination.Paginate(page)).Order("code").Find(&heads).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(heads, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetHeadByID returns a budget head by ID.
func (s *budgetHeadService) GetBudgetHeadByID(id uint) (*models.BudgetHead, error) {
	var head models.BudgetHead
	if err := s.db.First(&head, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetHeadNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &head, nil
}

// UpdateBudgetHead updates a budget head's mutable fields. The code is
// immutable.
func (s *budgetHeadService) UpdateBudgetHead(id uint, name, description string, isActive *bool) (*models.BudgetHead, error) {
	head, err := s.GetBudgetHeadByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(head).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return head, nil
}

// DeleteBudgetHead soft-deletes a budget head.
func (s *budgetHeadService) DeleteBudgetHead(id uint) error {
	head, err := s.GetBudgetHeadByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(head).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
