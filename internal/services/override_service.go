package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/workflow"
)

// overrideService handles budget override decisions. Overrides are
// created by the expenditure service; this service only lists and
// decides them.
type overrideService struct {
	db *gorm.DB
}

// NewOverrideService creates a new OverrideServicer.
func NewOverrideService(db *gorm.DB) OverrideServicer {
	return &overrideService{db: db}
}

// ListOverrides returns a paginated list of overrides, optionally
// filtered by status.
func (s *overrideService) ListOverrides(page pagination.PageRequest, status *models.OverrideStatus) (*pagination.PageResponse[models.BudgetOverride], error) {
	page.Defaults()

	base := s.db.Model(&models.BudgetOverride{})
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var overrides []models.BudgetOverride
	if err := base.Preload("Expenditure").Preload("Allocation").
		Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&overrides).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(overrides, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetOverrideByID returns an override by ID.
func (s *overrideService) GetOverrideByID(id uint) (*models.BudgetOverride, error) {
	var override models.BudgetOverride
	if err := s.db.Preload("Expenditure").Preload("Allocation").
		First(&override, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOverrideNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &override, nil
}

// Approve accepts the overrun. The expenditure itself still goes through
// the usual approval flow afterwards. The approval timestamp is written
// only on the first decision.
func (s *overrideService) Approve(actor Actor, overrideID uint) (*models.BudgetOverride, error) {
	override, err := s.GetOverrideByID(overrideID)
	if err != nil {
		return nil, err
	}

	if err := workflow.DecisionTransition(workflow.ActionApprove, override.Status == models.OverridePending, actor.Role); err != nil {
		return nil, err
	}

	now := time.Now()
	approverID := actor.UserID
	updates := map[string]interface{}{
		"status":      models.OverrideApproved,
		"approver_id": approverID,
	}
	if override.ApprovedAt == nil {
		updates["approved_at"] = &now
	}
	if err := s.db.Model(override).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	override.Status = models.OverrideApproved
	override.ApproverID = &approverID
	if override.ApprovedAt == nil {
		override.ApprovedAt = &now
	}
	return override, nil
}

// Reject turns down the overrun and rejects the underlying expenditure
// in the same transaction, since it can never be approved without its
// override. The rejection timestamp is written only on the first
// decision.
func (s *overrideService) Reject(actor Actor, overrideID uint) (*models.BudgetOverride, error) {
	override, err := s.GetOverrideByID(overrideID)
	if err != nil {
		return nil, err
	}

	if err := workflow.DecisionTransition(workflow.ActionReject, override.Status == models.OverridePending, actor.Role); err != nil {
		return nil, err
	}

	now := time.Now()
	approverID := actor.UserID
	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":      models.OverrideRejected,
			"approver_id": approverID,
		}
		if override.RejectedAt == nil {
			updates["rejected_at"] = &now
		}
		if err := tx.Model(override).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.Expenditure{}).
			Where("id = ? AND status IN ?", override.ExpenditureID,
				[]models.ExpenditureStatus{models.ExpenditurePending, models.ExpenditureVerified}).
			Update("status", models.ExpenditureRejected).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		step := &models.ApprovalStep{
			ExpenditureID: override.ExpenditureID,
			Decision:      models.ExpenditureRejected,
			Remarks:       "budget override rejected",
			ActorID:       approverID,
		}
		if err := tx.Create(step).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	override.Status = models.OverrideRejected
	override.ApproverID = &approverID
	if override.RejectedAt == nil {
		override.RejectedAt = &now
	}
	return override, nil
}
