package models

import "time"

// IncomeSource identifies where income originates.
type IncomeSource string

const (
	IncomeSourceGovernmentGrant IncomeSource = "government_grant"
	IncomeSourceFees            IncomeSource = "fees"
	IncomeSourceDonation        IncomeSource = "donation"
	IncomeSourceInterest        IncomeSource = "interest"
	IncomeSourceOther           IncomeSource = "other"
)

// IncomeStatus tracks income from expectation through verification.
type IncomeStatus string

const (
	IncomeExpected IncomeStatus = "expected"
	IncomeReceived IncomeStatus = "received"
	IncomeVerified IncomeStatus = "verified"
)

// Income is money expected or received by the college in a financial year.
type Income struct {
	Base
	FinancialYear   string       `gorm:"not null;index" json:"financial_year"`
	Source          IncomeSource `gorm:"not null" json:"source"`
	Category        CategoryType `gorm:"not null" json:"category"`
	Amount          int64        `gorm:"not null" json:"amount"`
	ExpectedDate    *time.Time   `json:"expected_date,omitempty"`
	ReceivedDate    *time.Time   `json:"received_date,omitempty"`
	Status          IncomeStatus `gorm:"not null;default:expected" json:"status"`
	ReferenceNumber string       `json:"reference_number"`
	VerifiedByID    *uint        `json:"verified_by_id,omitempty"`
}
