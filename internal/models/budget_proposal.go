package models

import "time"

// ProposalStatus represents the workflow state of a budget proposal.
type ProposalStatus string

const (
	ProposalDraft     ProposalStatus = "draft"
	ProposalSubmitted ProposalStatus = "submitted"
	ProposalVerified  ProposalStatus = "verified"
	ProposalApproved  ProposalStatus = "approved"
	ProposalRejected  ProposalStatus = "rejected"
	ProposalRevised   ProposalStatus = "revised"
)

// BudgetProposal is a department's funding request for a financial year.
// TotalProposedAmount is always kept equal to the sum of item amounts.
type BudgetProposal struct {
	Base
	FinancialYear       string         `gorm:"not null;index" json:"financial_year"`
	DepartmentID        uint           `gorm:"not null;index" json:"department_id"`
	Status              ProposalStatus `gorm:"not null;default:draft;index" json:"status"`
	TotalProposedAmount int64          `gorm:"not null;default:0" json:"total_proposed_amount"`
	Notes               string         `json:"notes"`
	SubmittedDate       *time.Time     `json:"submitted_date,omitempty"`
	RejectionReason     string         `json:"rejection_reason,omitempty"`
	VerificationRemarks string         `json:"verification_remarks,omitempty"`
	CreatedByID         uint           `gorm:"not null" json:"created_by_id"`

	// Set on resubmitted copies, pointing at the rejected original.
	OriginalProposalID *uint `gorm:"index" json:"original_proposal_id,omitempty"`

	Department Department     `gorm:"foreignKey:DepartmentID" json:"department"`
	Items      []ProposalItem `gorm:"foreignKey:ProposalID" json:"items"`
}

// ProposalItem is one line entry of a budget proposal requesting funds
// for a specific budget head.
type ProposalItem struct {
	Base
	ProposalID              uint   `gorm:"not null;index" json:"proposal_id"`
	BudgetHeadID            uint   `gorm:"not null" json:"budget_head_id"`
	ProposedAmount          int64  `gorm:"not null" json:"proposed_amount"`
	Justification           string `json:"justification"`
	PreviousYearUtilization int64  `gorm:"default:0" json:"previous_year_utilization"`

	BudgetHead BudgetHead `gorm:"foreignKey:BudgetHeadID" json:"budget_head"`
}
