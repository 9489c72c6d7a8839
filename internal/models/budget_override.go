package models

import "time"

// OverrideStatus represents the decision state of a budget override.
type OverrideStatus string

const (
	OverridePending  OverrideStatus = "pending"
	OverrideApproved OverrideStatus = "approved"
	OverrideRejected OverrideStatus = "rejected"
)

// BudgetOverride is created when an expenditure would exceed its
// allocation's remaining budget and the overspend policy routes the
// excess through explicit approval. The allocation figures are captured
// at creation time.
type BudgetOverride struct {
	Base
	ExpenditureID    uint           `gorm:"not null;uniqueIndex" json:"expenditure_id"`
	AllocationID     uint           `gorm:"not null;index" json:"allocation_id"`
	AllocationAmount int64          `gorm:"not null" json:"allocation_amount"`
	AllocationSpent  int64          `gorm:"not null" json:"allocation_spent"`
	ExpenseAmount    int64          `gorm:"not null" json:"expense_amount"`
	OverrunAmount    int64          `gorm:"not null" json:"overrun_amount"`
	Justification    string         `gorm:"not null" json:"justification"`
	RequestedByID    uint           `gorm:"not null" json:"requested_by_id"`
	Status           OverrideStatus `gorm:"not null;default:pending" json:"status"`
	ApproverID       *uint          `json:"approver_id,omitempty"`
	ApprovedAt       *time.Time     `json:"approved_at,omitempty"`
	RejectedAt       *time.Time     `json:"rejected_at,omitempty"`

	Expenditure Expenditure `gorm:"foreignKey:ExpenditureID" json:"expenditure"`
	Allocation  Allocation  `gorm:"foreignKey:AllocationID" json:"allocation"`
}
