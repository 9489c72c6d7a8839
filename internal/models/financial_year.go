package models

// FinancialYearStatus represents the lifecycle stage of a financial year.
type FinancialYearStatus string

const (
	FinancialYearPlanning FinancialYearStatus = "planning"
	FinancialYearActive   FinancialYearStatus = "active"
	FinancialYearLocked   FinancialYearStatus = "locked"
	FinancialYearClosed   FinancialYearStatus = "closed"
)

// FinancialYear represents an April–March budget year ("YYYY-YYYY").
// The total columns are cached aggregates, recomputed on demand and by
// the periodic recalculation job.
type FinancialYear struct {
	Base
	Label          string              `gorm:"uniqueIndex;not null" json:"label"`
	Status         FinancialYearStatus `gorm:"not null;default:planning" json:"status"`
	TotalAllocated int64               `gorm:"default:0" json:"total_allocated"`
	TotalSpent     int64               `gorm:"default:0" json:"total_spent"`
	TotalIncome    int64               `gorm:"default:0" json:"total_income"`
}
