package models

import "gorm.io/gorm"

// Allocation is the approved amount granted to a department/budget-head
// pair for a financial year. Department, budget head, and financial year
// are immutable after creation; allocated amount changes go through
// AllocationAmendment records.
type Allocation struct {
	Base
	DepartmentID    uint   `gorm:"not null;uniqueIndex:idx_alloc_dept_head_year" json:"department_id"`
	BudgetHeadID    uint   `gorm:"not null;uniqueIndex:idx_alloc_dept_head_year" json:"budget_head_id"`
	FinancialYear   string `gorm:"not null;uniqueIndex:idx_alloc_dept_head_year" json:"financial_year"`
	AllocatedAmount int64  `gorm:"not null" json:"allocated_amount"`
	SpentAmount     int64  `gorm:"not null;default:0" json:"spent_amount"`
	Remarks         string `json:"remarks"`

	// Links back to the approved proposal item this allocation funds, if any.
	SourceProposalItemID *uint `json:"source_proposal_item_id,omitempty"`

	// Derived, never stored. The raw value can go negative when an
	// approved override allowed overspend; DisplayRemaining is clamped
	// at zero for presentation.
	RemainingAmount  int64 `gorm:"-" json:"remaining_amount"`
	DisplayRemaining int64 `gorm:"-" json:"display_remaining"`

	Department Department `gorm:"foreignKey:DepartmentID" json:"department"`
	BudgetHead BudgetHead `gorm:"foreignKey:BudgetHeadID" json:"budget_head"`
}

// Recompute refreshes the derived remaining amounts.
func (a *Allocation) Recompute() {
	a.RemainingAmount = a.AllocatedAmount - a.SpentAmount
	if a.RemainingAmount > 0 {
		a.DisplayRemaining = a.RemainingAmount
	} else {
		a.DisplayRemaining = 0
	}
}

// AfterFind keeps the derived amounts populated on every read.
func (a *Allocation) AfterFind(tx *gorm.DB) error {
	a.Recompute()
	return nil
}
