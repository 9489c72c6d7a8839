// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"cbms/internal/fiscal"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("role", validateRole)
		_ = v.RegisterValidation("category_type", validateCategoryType)
		_ = v.RegisterValidation("income_source", validateIncomeSource)
		_ = v.RegisterValidation("financial_year", validateFinancialYear)
		_ = v.RegisterValidation("overspend_policy", validateOverspendPolicy)
	}
}

func validateRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "admin", "principal", "vice_principal", "office", "hod", "department":
		return true
	}
	return false
}

func validateCategoryType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "recurring", "non_recurring":
		return true
	}
	return false
}

func validateIncomeSource(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "government_grant", "fees", "donation", "interest", "other":
		return true
	}
	return false
}

func validateFinancialYear(fl validator.FieldLevel) bool {
	return fiscal.Valid(fl.Field().String())
}

func validateOverspendPolicy(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "disallow", "override":
		return true
	}
	return false
}
