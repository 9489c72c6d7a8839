package services

import (
	"errors"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/workflow"
)

// amendmentService handles allocation amendment requests. The allocation
// itself is only mutated when an amendment is approved.
type amendmentService struct {
	db *gorm.DB
}

// NewAmendmentService creates a new AmendmentServicer.
func NewAmendmentService(db *gorm.DB) AmendmentServicer {
	return &amendmentService{db: db}
}

// changePercent returns the rounded percentage change, and 0 when the
// original amount is 0.
func changePercent(change, original int64) int64 {
	if original == 0 {
		return 0
	}
	return int64(math.Round(float64(change) / float64(original) * 100))
}

// CreateAmendment records a requested change to an allocation's amount.
func (s *amendmentService) CreateAmendment(actor Actor, allocationID uint, requestedAmount int64, changeReason string) (*models.AllocationAmendment, error) {
	if strings.TrimSpace(changeReason) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "a change reason is required")
	}
	if requestedAmount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "requested amount cannot be negative")
	}

	var alloc models.Allocation
	if err := s.db.First(&alloc, allocationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAllocationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	change := requestedAmount - alloc.AllocatedAmount
	amendment := &models.AllocationAmendment{
		AllocationID:    allocationID,
		OriginalAmount:  alloc.AllocatedAmount,
		RequestedAmount: requestedAmount,
		ChangeAmount:    change,
		ChangePercent:   changePercent(change, alloc.AllocatedAmount),
		ChangeReason:    changeReason,
		RequestedByID:   actor.UserID,
		Status:          models.AmendmentPending,
	}
	if err := s.db.Create(amendment).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return amendment, nil
}

// ListAmendments returns a paginated list of amendments, optionally
// filtered by status.
func (s *amendmentService) ListAmendments(page pagination.PageRequest, status *models.AmendmentStatus) (*pagination.PageResponse[models.AllocationAmendment], error) {
	page.Defaults()

	base := s.db.Model(&models.AllocationAmendment{})
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var amendments []models.AllocationAmendment
	if err := base.Preload("Allocation").
		Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&amendments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(amendments, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAmendmentByID returns an amendment by ID.
func (s *amendmentService) GetAmendmentByID(id uint) (*models.AllocationAmendment, error) {
	var amendment models.AllocationAmendment
	if err := s.db.Preload("Allocation").First(&amendment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAmendmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &amendment, nil
}

// Approve applies the requested amount to the allocation and marks the
// amendment approved in one transaction. The approval timestamp is
// written only on the first decision.
func (s *amendmentService) Approve(actor Actor, amendmentID uint) (*models.AllocationAmendment, error) {
	amendment, err := s.GetAmendmentByID(amendmentID)
	if err != nil {
		return nil, err
	}

	if err := workflow.DecisionTransition(workflow.ActionApprove, amendment.Status == models.AmendmentPending, actor.Role); err != nil {
		return nil, err
	}

	now := time.Now()
	approverID := actor.UserID
	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":      models.AmendmentApproved,
			"approver_id": approverID,
		}
		if amendment.ApprovedAt == nil {
			updates["approved_at"] = &now
		}
		if err := tx.Model(amendment).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.Allocation{}).
			Where("id = ?", amendment.AllocationID).
			Update("allocated_amount", amendment.RequestedAmount).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	amendment.Status = models.AmendmentApproved
	amendment.ApproverID = &approverID
	if amendment.ApprovedAt == nil {
		amendment.ApprovedAt = &now
	}
	return amendment, nil
}

// Reject marks the amendment rejected, leaving the allocation untouched.
// The rejection timestamp is written only on the first decision.
func (s *amendmentService) Reject(actor Actor, amendmentID uint) (*models.AllocationAmendment, error) {
	amendment, err := s.GetAmendmentByID(amendmentID)
	if err != nil {
		return nil, err
	}

	if err := workflow.DecisionTransition(workflow.ActionReject, amendment.Status == models.AmendmentPending, actor.Role); err != nil {
		return nil, err
	}

	now := time.Now()
	approverID := actor.UserID
	updates := map[string]interface{}{
		"status":      models.AmendmentRejected,
		"approver_id": approverID,
	}
	if amendment.RejectedAt == nil {
		updates["rejected_at"] = &now
	}
	if err := s.db.Model(amendment).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	amendment.Status = models.AmendmentRejected
	amendment.ApproverID = &approverID
	if amendment.RejectedAt == nil {
		amendment.RejectedAt = &now
	}
	return amendment, nil
}
