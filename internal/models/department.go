package models

// Department represents an academic or administrative department.
type Department struct {
	Base
	Name     string `gorm:"not null" json:"name"`
	Code     string `gorm:"uniqueIndex;not null" json:"code"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}
