package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "cbms/internal/errors"
	"cbms/internal/fiscal"
	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/storage"
	"cbms/internal/workflow"
)

// expenditureService handles the expenditure lifecycle, including the
// overspend policy check at creation and the atomic allocation update at
// approval.
type expenditureService struct {
	db       *gorm.DB
	settings SettingsServicer
	store    storage.FileStore
	now      func() time.Time
}

// NewExpenditureService creates a new ExpenditureServicer.
func NewExpenditureService(db *gorm.DB, settings SettingsServicer, store storage.FileStore) ExpenditureServicer {
	return &expenditureService{db: db, settings: settings, store: store, now: time.Now}
}

// CreateExpenditure raises a bill against the department's allocation for
// the current financial year. A bill exceeding the remaining allocation
// is rejected outright under the disallow policy; under the override
// policy it is accepted pending an explicit budget override approval.
func (s *expenditureService) CreateExpenditure(actor Actor, input ExpenditureInput) (*models.Expenditure, error) {
	if err := validateExpenditureInput(input); err != nil {
		return nil, err
	}
	if !ownsDepartment(actor, input.DepartmentID) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "expenditures can only be raised for your own department")
	}

	year := fiscal.Current(s.now())
	exp := &models.Expenditure{
		DepartmentID:   input.DepartmentID,
		BudgetHeadID:   input.BudgetHeadID,
		FinancialYear:  year,
		BillNumber:     input.BillNumber,
		BillDate:       input.BillDate,
		BillAmount:     input.BillAmount,
		PartyName:      input.PartyName,
		ExpenseDetails: input.ExpenseDetails,
		Status:         models.ExpenditurePending,
		CreatedByID:    actor.UserID,
	}
	if err := s.createWithPolicy(exp, input.OverrideJustification); err != nil {
		return nil, err
	}
	return exp, nil
}

func validateExpenditureInput(input ExpenditureInput) error {
	var problems []string
	if strings.TrimSpace(input.BillNumber) == "" {
		problems = append(problems, "bill number is required")
	}
	if input.BillAmount <= 0 {
		problems = append(problems, "bill amount must be positive")
	}
	if input.BillDate.IsZero() {
		problems = append(problems, "bill date is required")
	}
	if len(problems) > 0 {
		return apperrors.WithMessage(apperrors.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// createWithPolicy looks up the allocation, applies the overspend policy,
// and persists the expenditure (plus a BudgetOverride when the policy
// routes an overrun through explicit approval) in one transaction.
func (s *expenditureService) createWithPolicy(exp *models.Expenditure, overrideJustification string) error {
	var alloc models.Allocation
	err := s.db.Where("department_id = ? AND budget_head_id = ? AND financial_year = ?",
		exp.DepartmentID, exp.BudgetHeadID, exp.FinancialYear).
		First(&alloc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNoAllocation
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	remaining := alloc.AllocatedAmount - alloc.SpentAmount
	if exp.BillAmount <= remaining {
		if err := s.db.Create(exp).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	}

	policy, err := s.settings.OverspendPolicy()
	if err != nil {
		return err
	}
	if policy == models.OverspendDisallow {
		return apperrors.WithMessage(apperrors.ErrExceedsBudget,
			fmt.Sprintf("bill amount %d exceeds the remaining allocation of %d", exp.BillAmount, remaining))
	}

	if strings.TrimSpace(overrideJustification) == "" {
		return apperrors.WithMessage(apperrors.ErrValidation,
			"a justification is required when the bill exceeds the remaining allocation")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(exp).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		override := &models.BudgetOverride{
			ExpenditureID:    exp.ID,
			AllocationID:     alloc.ID,
			AllocationAmount: alloc.AllocatedAmount,
			AllocationSpent:  alloc.SpentAmount,
			ExpenseAmount:    exp.BillAmount,
			OverrunAmount:    exp.BillAmount - remaining,
			Justification:    overrideJustification,
			RequestedByID:    exp.CreatedByID,
			Status:           models.OverridePending,
		}
		if err := tx.Create(override).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// GetExpenditureByID returns an expenditure with its approval steps and
// attachments.
func (s *expenditureService) GetExpenditureByID(id uint) (*models.Expenditure, error) {
	var exp models.Expenditure
	if err := s.db.Preload("Department").Preload("BudgetHead").
		Preload("Steps").Preload("Attachments").
		First(&exp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenditureNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &exp, nil
}

// ListExpenditures returns a paginated, filtered list of expenditures.
func (s *expenditureService) ListExpenditures(page pagination.PageRequest, filter ExpenditureFilter) (*pagination.PageResponse[models.Expenditure], error) {
	page.Defaults()

	base := s.db.Model(&models.Expenditure{})
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
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

	var expenditures []models.Expenditure
	if err := base.Preload("Department").Preload("BudgetHead").
		Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&expenditures).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenditures, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Verify marks a pending expenditure as checked without touching any
// amounts.
func (s *expenditureService) Verify(actor Actor, expenditureID uint, remarks string) (*models.Expenditure, error) {
	return s.decide(actor, expenditureID, workflow.ActionVerify, remarks)
}

// Approve finalizes an expenditure and adds its bill amount to the
// allocation's spent amount atomically. An expenditure whose budget
// override is still pending, or was rejected, cannot be approved.
func (s *expenditureService) Approve(actor Actor, expenditureID uint, remarks string) (*models.Expenditure, error) {
	exp, err := s.GetExpenditureByID(expenditureID)
	if err != nil {
		return nil, err
	}

	to, err := workflow.ExpenditureTransition(workflow.ActionApprove, exp.Status, actor.Role)
	if err != nil {
		return nil, err
	}

	var override models.BudgetOverride
	err = s.db.Where("expenditure_id = ?", exp.ID).First(&override).Error
	switch {
	case err == nil:
		if override.Status == models.OverridePending {
			return nil, apperrors.ErrOverridePending
		}
		if override.Status == models.OverrideRejected {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidTransition,
				"the budget override for this expenditure was rejected")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no override involved
	default:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(exp).Update("status", to).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		step := &models.ApprovalStep{
			ExpenditureID: exp.ID,
			Decision:      to,
			Remarks:       remarks,
			ActorID:       actor.UserID,
		}
		if err := tx.Create(step).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.Allocation{}).
			Where("department_id = ? AND budget_head_id = ? AND financial_year = ?",
				exp.DepartmentID, exp.BudgetHeadID, exp.FinancialYear).
			Update("spent_amount", gorm.Expr("spent_amount + ?", exp.BillAmount)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetExpenditureByID(exp.ID)
}

// Reject turns down an expenditure. Remarks are mandatory so the
// department knows what to fix.
func (s *expenditureService) Reject(actor Actor, expenditureID uint, remarks string) (*models.Expenditure, error) {
	if strings.TrimSpace(remarks) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "remarks are required when rejecting an expenditure")
	}
	return s.decide(actor, expenditureID, workflow.ActionReject, remarks)
}

// decide applies a verify or reject transition and records the step.
func (s *expenditureService) decide(actor Actor, expenditureID uint, action workflow.Action, remarks string) (*models.Expenditure, error) {
	exp, err := s.GetExpenditureByID(expenditureID)
	if err != nil {
		return nil, err
	}

	to, err := workflow.ExpenditureTransition(action, exp.Status, actor.Role)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(exp).Update("status", to).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		step := &models.ApprovalStep{
			ExpenditureID: exp.ID,
			Decision:      to,
			Remarks:       remarks,
			ActorID:       actor.UserID,
		}
		if err := tx.Create(step).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetExpenditureByID(exp.ID)
}

// Resubmit copies a rejected expenditure into a fresh pending one linked
// back to the original. The overspend policy check runs again against the
// allocation's current figures.
func (s *expenditureService) Resubmit(actor Actor, expenditureID uint, remarks string) (*models.Expenditure, error) {
	original, err := s.GetExpenditureByID(expenditureID)
	if err != nil {
		return nil, err
	}
	if !ownsDepartment(actor, original.DepartmentID) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "expenditures can only be resubmitted by their own department")
	}
	if _, err := workflow.ExpenditureTransition(workflow.ActionResubmit, original.Status, actor.Role); err != nil {
		return nil, err
	}

	fresh := &models.Expenditure{
		DepartmentID:          original.DepartmentID,
		BudgetHeadID:          original.BudgetHeadID,
		FinancialYear:         original.FinancialYear,
		BillNumber:            original.BillNumber,
		BillDate:              original.BillDate,
		BillAmount:            original.BillAmount,
		PartyName:             original.PartyName,
		ExpenseDetails:        original.ExpenseDetails,
		Status:                models.ExpenditurePending,
		CreatedByID:           actor.UserID,
		OriginalExpenditureID: &original.ID,
	}
	if err := s.createWithPolicy(fresh, remarks); err != nil {
		return nil, err
	}
	return fresh, nil
}

// AddAttachment validates and stores a supporting document for an
// expenditure.
func (s *expenditureService) AddAttachment(ctx context.Context, actor Actor, expenditureID uint, file *multipart.FileHeader) (*models.Attachment, error) {
	exp, err := s.GetExpenditureByID(expenditureID)
	if err != nil {
		return nil, err
	}
	if !ownsDepartment(actor, exp.DepartmentID) && !actor.Role.IsApprover() {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "attachments can only be added by the owning department")
	}

	if file.Size > storage.MaxAttachmentSize {
		return nil, apperrors.ErrFileTooLarge
	}
	contentType := file.Header.Get("Content-Type")
	if !storage.AllowedContentTypes[contentType] {
		return nil, apperrors.ErrUnsupportedFileType
	}

	src, err := file.Open()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	key := fmt.Sprintf("expenditures/%d/%s%s", exp.ID, uuid.New().String(), filepath.Ext(file.Filename))
	if err := s.store.Put(ctx, key, contentType, data); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	attachment := &models.Attachment{
		ExpenditureID: exp.ID,
		FileName:      file.Filename,
		ContentType:   contentType,
		Size:          int64(len(data)),
		StorageKey:    key,
	}
	if err := s.db.Create(attachment).Error; err != nil {
		// best effort cleanup of the orphaned object
		_ = s.store.Delete(ctx, key)
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return attachment, nil
}

// OpenAttachment returns an attachment's metadata and its stored bytes.
func (s *expenditureService) OpenAttachment(ctx context.Context, expenditureID, attachmentID uint) (*models.Attachment, []byte, error) {
	var attachment models.Attachment
	err := s.db.Where("id = ? AND expenditure_id = ?", attachmentID, expenditureID).
		First(&attachment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrAttachmentNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	data, err := s.store.Get(ctx, attachment.StorageKey)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &attachment, data, nil
}
