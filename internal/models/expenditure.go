package models

import "time"

// ExpenditureStatus represents the workflow state of an expenditure.
type ExpenditureStatus string

const (
	ExpenditurePending  ExpenditureStatus = "pending"
	ExpenditureVerified ExpenditureStatus = "verified"
	ExpenditureApproved ExpenditureStatus = "approved"
	ExpenditureRejected ExpenditureStatus = "rejected"
)

// Expenditure is a bill raised against a department's allocation for a
// budget head.
type Expenditure struct {
	Base
	DepartmentID   uint              `gorm:"not null;index" json:"department_id"`
	BudgetHeadID   uint              `gorm:"not null;index" json:"budget_head_id"`
	FinancialYear  string            `gorm:"not null;index" json:"financial_year"`
	BillNumber     string            `gorm:"not null" json:"bill_number"`
	BillDate       time.Time         `gorm:"not null" json:"bill_date"`
	BillAmount     int64             `gorm:"not null" json:"bill_amount"`
	PartyName      string            `json:"party_name"`
	ExpenseDetails string            `json:"expense_details"`
	Status         ExpenditureStatus `gorm:"not null;default:pending;index" json:"status"`
	CreatedByID    uint              `gorm:"not null" json:"created_by_id"`

	// Set on resubmitted copies, pointing at the rejected original.
	OriginalExpenditureID *uint `gorm:"index" json:"original_expenditure_id,omitempty"`

	Department  Department     `gorm:"foreignKey:DepartmentID" json:"department"`
	BudgetHead  BudgetHead     `gorm:"foreignKey:BudgetHeadID" json:"budget_head"`
	Steps       []ApprovalStep `gorm:"foreignKey:ExpenditureID" json:"approval_steps"`
	Attachments []Attachment   `gorm:"foreignKey:ExpenditureID" json:"attachments"`
}

// ApprovalStep records one decision taken on an expenditure.
type ApprovalStep struct {
	Base
	ExpenditureID uint              `gorm:"not null;index" json:"expenditure_id"`
	Decision      ExpenditureStatus `gorm:"not null" json:"decision"`
	Remarks       string            `json:"remarks"`
	ActorID       uint              `gorm:"not null" json:"actor_id"`
}

// Attachment is a supporting document uploaded for an expenditure.
type Attachment struct {
	Base
	ExpenditureID uint   `gorm:"not null;index" json:"expenditure_id"`
	FileName      string `gorm:"not null" json:"file_name"`
	ContentType   string `gorm:"not null" json:"content_type"`
	Size          int64  `gorm:"not null" json:"size"`
	StorageKey    string `gorm:"not null" json:"-"`
}
