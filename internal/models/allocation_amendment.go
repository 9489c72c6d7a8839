package models

import "time"

// AmendmentStatus represents the decision state of an allocation amendment.
type AmendmentStatus string

const (
	AmendmentPending  AmendmentStatus = "pending"
	AmendmentApproved AmendmentStatus = "approved"
	AmendmentRejected AmendmentStatus = "rejected"
)

// AllocationAmendment records a proposed change to an allocation's
// amount. The allocation itself is only mutated when the amendment is
// approved.
type AllocationAmendment struct {
	Base
	AllocationID    uint            `gorm:"not null;index" json:"allocation_id"`
	OriginalAmount  int64           `gorm:"not null" json:"original_amount"`
	RequestedAmount int64           `gorm:"not null" json:"requested_amount"`
	ChangeAmount    int64           `gorm:"not null" json:"change_amount"`
	ChangePercent   int64           `gorm:"not null" json:"change_percent"`
	ChangeReason    string          `gorm:"not null" json:"change_reason"`
	RequestedByID   uint            `gorm:"not null" json:"requested_by_id"`
	Status          AmendmentStatus `gorm:"not null;default:pending" json:"status"`
	ApproverID      *uint           `json:"approver_id,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`

	Allocation Allocation `gorm:"foreignKey:AllocationID" json:"allocation"`
}
