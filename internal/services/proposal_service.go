package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "cbms/internal/errors"
	"cbms/internal/fiscal"
	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/workflow"
)

// proposalService handles the budget proposal workflow.
type proposalService struct {
	db                *gorm.DB
	allocationService AllocationServicer
}

// NewProposalService creates a new ProposalServicer.
func NewProposalService(db *gorm.DB, allocationService AllocationServicer) ProposalServicer {
	return &proposalService{db: db, allocationService: allocationService}
}

// sumItems returns the total of the proposed item amounts.
func sumItems(items []models.ProposalItem) int64 {
	var total int64
	for _, item := range items {
		total += item.ProposedAmount
	}
	return total
}

// ownsDepartment reports whether the actor may act on behalf of the
// given department. Admin may act anywhere; department and hod users are
// bound to their own department.
func ownsDepartment(actor Actor, departmentID uint) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.DepartmentID != nil && *actor.DepartmentID == departmentID
}

// CreateProposal creates a new draft proposal for a department.
func (s *proposalService) CreateProposal(actor Actor, departmentID uint, financialYear, notes string, items []ProposalItemInput) (*models.BudgetProposal, error) {
	if !fiscal.Valid(financialYear) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid financial year")
	}
	if !ownsDepartment(actor, departmentID) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "proposals may only be created for your own department")
	}

	var dept models.Department
	if err := s.db.First(&dept, departmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDepartmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	proposal := &models.BudgetProposal{
		FinancialYear: financialYear,
		DepartmentID:  departmentID,
		Status:        models.ProposalDraft,
		Notes:         notes,
		CreatedByID:   actor.UserID,
		Items:         buildItems(items),
	}
	proposal.TotalProposedAmount = sumItems(proposal.Items)

	if err := s.db.Create(proposal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetProposalByID(proposal.ID)
}

func buildItems(inputs []ProposalItemInput) []models.ProposalItem {
	items := make([]models.ProposalItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, models.ProposalItem{
			BudgetHeadID:   in.BudgetHeadID,
			ProposedAmount: in.ProposedAmount,
			Justification:  in.Justification,
		})
	}
	return items
}

// UpdateDraft replaces the notes and items of a proposal still in draft.
// The stored total always tracks the sum of the item amounts.
func (s *proposalService) UpdateDraft(actor Actor, proposalID uint, notes string, items []ProposalItemInput) (*models.BudgetProposal, error) {
	proposal, err := s.GetProposalByID(proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Status != models.ProposalDraft {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidTransition,
			fmt.Sprintf("cannot edit a proposal in status %q", proposal.Status))
	}
	if !ownsDepartment(actor, proposal.DepartmentID) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "only the owning department may edit this proposal")
	}

	newItems := buildItems(items)
	total := sumItems(newItems)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("proposal_id = ?", proposal.ID).Delete(&models.ProposalItem{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i := range newItems {
			newItems[i].ProposalID = proposal.ID
		}
		if len(newItems) > 0 {
			if err := tx.Create(&newItems).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		updates := map[string]interface{}{
			"notes":                 notes,
			"total_proposed_amount": total,
		}
		if err := tx.Model(proposal).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetProposalByID(proposal.ID)
}

// GetProposalByID returns a proposal with its items and department.
func (s *proposalService) GetProposalByID(proposalID uint) (*models.BudgetProposal, error) {
	var proposal models.BudgetProposal
	err := s.db.Preload("Items").Preload("Items.BudgetHead").Preload("Department").
		First(&proposal, proposalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProposalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &proposal, nil
}

// ListProposals returns a paginated, filtered list of proposals.
func (s *proposalService) ListProposals(page pagination.PageRequest, filter ProposalFilter) (*pagination.PageResponse[models.BudgetProposal], error) {
	page.Defaults()

	base := s.db.Model(&models.BudgetProposal{})
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.DepartmentID != nil {
		base = base.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.FinancialYear != "" {
		base = base.Where("financial_year = ?", filter.FinancialYear)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var proposals []models.BudgetProposal
	if err := base.Preload("Items").Preload("Department").
		Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&proposals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(proposals, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// validateForSubmission checks every item for a budget head, a positive
// amount, and a justification, reporting all offending items at once.
func validateForSubmission(proposal *models.BudgetProposal) error {
	if len(proposal.Items) == 0 {
		return apperrors.WithMessage(apperrors.ErrValidation, "a proposal must have at least one item")
	}

	var problems []string
	for i, item := range proposal.Items {
		if item.BudgetHeadID == 0 {
			problems = append(problems, fmt.Sprintf("item %d: budget head is required", i+1))
		}
		if item.ProposedAmount <= 0 {
			problems = append(problems, fmt.Sprintf("item %d: proposed amount must be greater than zero", i+1))
		}
		if strings.TrimSpace(item.Justification) == "" {
			problems = append(problems, fmt.Sprintf("item %d: justification is required", i+1))
		}
	}
	if len(problems) > 0 {
		return apperrors.WithMessage(apperrors.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// Submit moves a draft (or revised) proposal to submitted.
func (s *proposalService) Submit(actor Actor, proposalID uint) (*models.BudgetProposal, error) {
	proposal, err := s.GetProposalByID(proposalID)
	if err != nil {
		return nil, err
	}

	next, err := workflow.ProposalTransition(workflow.ActionSubmit, proposal.Status, actor.Role)
	if err != nil {
		return nil, err
	}
	if !ownsDepartment(actor, proposal.DepartmentID) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "only the owning department may submit this proposal")
	}
	if err := validateForSubmission(proposal); err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":         next,
		"submitted_date": &now,
	}
	if err := s.db.Model(proposal).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	proposal.Status = next
	proposal.SubmittedDate = &now
	return proposal, nil
}

// Verify attaches verification remarks and moves a submitted proposal to
// verified. Amounts are not touched.
func (s *proposalService) Verify(actor Actor, proposalID uint, remarks string) (*models.BudgetProposal, error) {
	proposal, err := s.GetProposalByID(proposalID)
	if err != nil {
		return nil, err
	}

	next, err := workflow.ProposalTransition(workflow.ActionVerify, proposal.Status, actor.Role)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":               next,
		"verification_remarks": remarks,
	}
	if err := s.db.Model(proposal).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	proposal.Status = next
	proposal.VerificationRemarks = remarks
	return proposal, nil
}

// Approve moves a submitted or verified proposal to approved. The office
// role may only approve proposals it has verified first; the transition
// table enforces this server-side.
func (s *proposalService) Approve(actor Actor, proposalID uint) (*models.BudgetProposal, error) {
	proposal, err := s.GetProposalByID(proposalID)
	if err != nil {
		return nil, err
	}

	next, err := workflow.ProposalTransition(workflow.ActionApprove, proposal.Status, actor.Role)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(proposal).Update("status", next).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	proposal.Status = next
	return proposal, nil
}

// Reject moves a submitted or verified proposal to rejected with a
// mandatory reason.
func (s *proposalService) Reject(actor Actor, proposalID uint, reason string) (*models.BudgetProposal, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "a rejection reason is required")
	}

	proposal, err := s.GetProposalByID(proposalID)
	if err != nil {
		return nil, err
	}

	next, err := workflow.ProposalTransition(workflow.ActionReject, proposal.Status, actor.Role)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":           next,
		"rejection_reason": reason,
	}
	if err := s.db.Model(proposal).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	proposal.Status = next
	proposal.RejectionReason = reason
	return proposal, nil
}

// Resubmit copies a rejected proposal's items and notes into a fresh
// draft linked to the original for audit. The original is marked revised.
func (s *proposalService) Resubmit(actor Actor, proposalID uint) (*models.BudgetProposal, error) {
	original, err := s.GetProposalByID(proposalID)
	if err != nil {
		return nil, err
	}

	if _, err := workflow.ProposalTransition(workflow.ActionResubmit, original.Status, actor.Role); err != nil {
		return nil, err
	}
	if !ownsDepartment(actor, original.DepartmentID) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "only the owning department may resubmit this proposal")
	}

	copyItems := make([]models.ProposalItem, 0, len(original.Items))
	for _, item := range original.Items {
		copyItems = append(copyItems, models.ProposalItem{
			BudgetHeadID:            item.BudgetHeadID,
			ProposedAmount:          item.ProposedAmount,
			Justification:           item.Justification,
			PreviousYearUtilization: item.PreviousYearUtilization,
		})
	}

	originalID := original.ID
	draft := &models.BudgetProposal{
		FinancialYear:       original.FinancialYear,
		DepartmentID:        original.DepartmentID,
		Status:              models.ProposalDraft,
		Notes:               original.Notes,
		CreatedByID:         actor.UserID,
		OriginalProposalID:  &originalID,
		Items:               copyItems,
		TotalProposedAmount: sumItems(copyItems),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(draft).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(original).Update("status", models.ProposalRevised).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetProposalByID(draft.ID)
}

// Allocate creates an Allocation from one item of an approved proposal.
// This is the external follow-up to approval, not a proposal transition.
func (s *proposalService) Allocate(actor Actor, proposalID, itemID uint, remarks string) (*models.Allocation, error) {
	proposal, err := s.GetProposalByID(proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Status != models.ProposalApproved {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidTransition,
			fmt.Sprintf("cannot allocate from a proposal in status %q", proposal.Status))
	}
	if !actor.Role.IsApprover() {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "only approver roles may allocate")
	}

	var item *models.ProposalItem
	for i := range proposal.Items {
		if proposal.Items[i].ID == itemID {
			item = &proposal.Items[i]
			break
		}
	}
	if item == nil {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "proposal item not found")
	}

	sourceID := item.ID
	return s.allocationService.CreateAllocation(
		proposal.DepartmentID, item.BudgetHeadID, proposal.FinancialYear,
		item.ProposedAmount, remarks, &sourceID,
	)
}
