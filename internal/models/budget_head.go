package models

// BudgetHead represents a named spending category within a department's budget.
type BudgetHead struct {
	Base
	Name        string `gorm:"not null" json:"name"`
	Code        string `gorm:"uniqueIndex;not null" json:"code"`
	Description string `json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
}
