package models

// OverspendPolicy controls what happens when an expenditure exceeds the
// remaining allocation.
type OverspendPolicy string

const (
	OverspendDisallow OverspendPolicy = "disallow"
	OverspendOverride OverspendPolicy = "override"
)

// Setting keys.
const (
	SettingOverspendPolicy = "overspend_policy"
)

// Setting is a system-wide key/value configuration entry.
type Setting struct {
	Base
	Key   string `gorm:"uniqueIndex;not null" json:"key"`
	Value string `gorm:"not null" json:"value"`
}
