package models

// CategoryType distinguishes recurring from non-recurring budget categories.
type CategoryType string

const (
	CategoryTypeRecurring    CategoryType = "recurring"
	CategoryTypeNonRecurring CategoryType = "non_recurring"
)

// Category classifies income and expenditure as recurring or non-recurring.
type Category struct {
	Base
	Name        string       `gorm:"not null" json:"name"`
	Type        CategoryType `gorm:"not null" json:"type"`
	Description string       `json:"description"`
	IsActive    bool         `gorm:"default:true" json:"is_active"`
}
