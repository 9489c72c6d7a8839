package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
	"cbms/internal/pagination"
)

// departmentService handles department management.
type departmentService struct {
	db *gorm.DB
}

// NewDepartmentService creates a new DepartmentServicer.
func NewDepartmentService(db *gorm.DB) DepartmentServicer {
	return &departmentService{db: db}
}

// CreateDepartment creates a new department with a unique code.
func (s *departmentService) CreateDepartment(name, code string) (*models.Department, error) {
	if name == "" || code == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name and code are required")
	}

	var count int64
	s.db.Model(&models.Department{}).Where("code = ?", code).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateCode
	}

	dept := &models.Department{Name: name, Code: code, IsActive: true}
	if err := s.db.Create(dept).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return dept, nil
}

// ListDepartments returns a paginated list of departments.
func (s *departmentService) ListDepartments(page pagination.PageRequest, search string, activeOnly bool) (*pagination.PageResponse[models.Department], error) {
	page.Defaults()

	base := s.db.Model(&models.Department{})
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

	var depts []models.Department
	if err := base.Scopes(pagination.Paginate(page)).Order("code").Find(&depts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(depts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetDepartmentByID returns a department by ID.
func (s *departmentService) GetDepartmentByID(id uint) (*models.Department, error) {
	var dept models.Department
	if err := s.db.First(&dept, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDepartmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &dept, nil
}

// UpdateDepartment updates a department's name or active flag. The code
// is immutable.
func (s *departmentService) UpdateDepartment(id uint, name string, isActive *bool) (*models.Department, error) {
	dept, err := s.GetDepartmentByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(dept).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return dept, nil
}

// DeleteDepartment soft-deletes a department.
func (s *departmentService) DeleteDepartment(id uint) error {
	dept, err := s.GetDepartmentByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(dept).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
