package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	apperrors "cbms/internal/errors"
	"cbms/internal/fiscal"
	"cbms/internal/models"
)

// reportService builds consolidated views and exports across proposals,
// allocations, expenditures, and income.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

var paiseInRupee = decimal.NewFromInt(100)

// rupees renders a paise amount as a rupee string with two decimals.
func rupees(paise int64) string {
	return decimal.NewFromInt(paise).Div(paiseInRupee).StringFixed(2)
}

type deptAggRow struct {
	DepartmentID   uint
	DepartmentName string
	Allocated      int64
	Spent          int64
}

func (s *reportService) departmentAggregates(financialYear string) ([]deptAggRow, error) {
	var rows []deptAggRow
	err := s.db.Model(&models.Allocation{}).
		Select("allocations.department_id AS department_id, departments.name AS department_name, "+
			"COALESCE(SUM(allocations.allocated_amount), 0) AS allocated, "+
			"COALESCE(SUM(allocations.spent_amount), 0) AS spent").
		Joins("JOIN departments ON departments.id = allocations.department_id").
		Where("allocations.financial_year = ?", financialYear).
		Group("allocations.department_id, departments.name").
		Order("departments.name").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

// Dashboard returns the per-department utilization view plus pending
// workflow counts for one financial year.
func (s *reportService) Dashboard(financialYear string) (*Dashboard, error) {
	if !fiscal.Valid(financialYear) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "financial year must be in YYYY-YYYY form with consecutive years")
	}

	aggs, err := s.departmentAggregates(financialYear)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{FinancialYear: financialYear, Rows: make([]DashboardRow, 0, len(aggs))}
	for _, a := range aggs {
		row := DashboardRow{
			DepartmentID:   a.DepartmentID,
			DepartmentName: a.DepartmentName,
			Allocated:      a.Allocated,
			Spent:          a.Spent,
			Remaining:      a.Allocated - a.Spent,
		}
		if a.Allocated > 0 {
			row.UtilizationPct = float64(a.Spent) / float64(a.Allocated) * 100
		}
		dash.Rows = append(dash.Rows, row)
		dash.TotalAllocated += a.Allocated
		dash.TotalSpent += a.Spent
	}

	err = s.db.Model(&models.Income{}).
		Where("financial_year = ? AND status IN ?", financialYear,
			[]models.IncomeStatus{models.IncomeReceived, models.IncomeVerified}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&dash.TotalIncome).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	counts := []struct {
		model  interface{}
		query  string
		args   []interface{}
		target *int64
	}{
		{&models.BudgetProposal{}, "financial_year = ? AND status IN ?",
			[]interface{}{financialYear, []models.ProposalStatus{models.ProposalSubmitted, models.ProposalVerified}},
			&dash.PendingProposals},
		{&models.Expenditure{}, "financial_year = ? AND status IN ?",
			[]interface{}{financialYear, []models.ExpenditureStatus{models.ExpenditurePending, models.ExpenditureVerified}},
			&dash.PendingExpenditures},
		{&models.AllocationAmendment{}, "status = ?",
			[]interface{}{models.AmendmentPending}, &dash.PendingAmendments},
		{&models.BudgetOverride{}, "status = ?",
			[]interface{}{models.OverridePending}, &dash.PendingOverrides},
	}
	for _, c := range counts {
		if err := s.db.Model(c.model).Where(c.query, c.args...).Count(c.target).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return dash, nil
}

// ProposalRegisterCSV exports every proposal of a financial year with its
// line items, one row per item.
func (s *reportService) ProposalRegisterCSV(financialYear string) ([]byte, error) {
	if !fiscal.Valid(financialYear) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "financial year must be in YYYY-YYYY form with consecutive years")
	}

	var proposals []models.BudgetProposal
	err := s.db.Preload("Department").Preload("Items").Preload("Items.BudgetHead").
		Where("financial_year = ?", financialYear).
		Order("created_at").
		Find(&proposals).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"Proposal ID", "Department", "Status", "Budget Head", "Proposed Amount", "Justification", "Proposal Total"}
	if err := w.Write(header); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, p := range proposals {
		for _, item := range p.Items {
			record := []string{
				strconv.FormatUint(uint64(p.ID), 10),
				p.Department.Name,
				string(p.Status),
				item.BudgetHead.Name,
				rupees(item.ProposedAmount),
				item.Justification,
				rupees(p.TotalProposedAmount),
			}
			if err := w.Write(record); err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return buf.Bytes(), nil
}

// ConsolidatedCSV exports the per-department allocation and spend summary.
func (s *reportService) ConsolidatedCSV(financialYear string) ([]byte, error) {
	dash, err := s.Dashboard(financialYear)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"Department", "Allocated", "Spent", "Remaining", "Utilization %"}
	if err := w.Write(header); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, row := range dash.Rows {
		record := []string{
			row.DepartmentName,
			rupees(row.Allocated),
			rupees(row.Spent),
			rupees(row.Remaining),
			fmt.Sprintf("%.1f", row.UtilizationPct),
		}
		if err := w.Write(record); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	total := []string{"Total", rupees(dash.TotalAllocated), rupees(dash.TotalSpent),
		rupees(dash.TotalAllocated - dash.TotalSpent), ""}
	if err := w.Write(total); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return buf.Bytes(), nil
}

// ConsolidatedXLSX exports the same summary as a styled spreadsheet.
func (s *reportService) ConsolidatedXLSX(financialYear string) ([]byte, error) {
	dash, err := s.Dashboard(financialYear)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	title := fmt.Sprintf("Budget Summary %s", dash.FinancialYear)
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	headers := []string{"Department", "Allocated", "Spent", "Remaining", "Utilization %"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err == nil {
		_ = f.SetCellStyle(sheet, "A3", "E3", headerStyle)
	}

	row := 4
	for _, r := range dash.Rows {
		values := []interface{}{
			r.DepartmentName,
			rupees(r.Allocated),
			rupees(r.Spent),
			rupees(r.Remaining),
			fmt.Sprintf("%.1f", r.UtilizationPct),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		row++
	}

	totals := []interface{}{
		"Total",
		rupees(dash.TotalAllocated),
		rupees(dash.TotalSpent),
		rupees(dash.TotalAllocated - dash.TotalSpent),
		"",
	}
	for i, v := range totals {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return buf.Bytes(), nil
}
