package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/services"
)

// ReportHandler handles dashboard and export requests.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func requireYear(c *gin.Context) (string, bool) {
	year := c.Query("financial_year")
	if year == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "financial_year is required"))
		return "", false
	}
	return year, true
}

// GetDashboard handles the consolidated dashboard view.
// @Summary     Get dashboard
// @Description Get per-department allocation and spend aggregates with pending counts
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       financial_year query string true "Financial year (YYYY-YYYY)"
// @Success     200 {object} services.Dashboard "Dashboard figures"
// @Failure     400 {object} ErrorResponse "Invalid financial year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/dashboard [get]
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	year, ok := requireYear(c)
	if !ok {
		return
	}

	dashboard, err := h.reportService.Dashboard(year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// ExportProposalRegister handles the proposal register CSV export.
// @Summary     Export proposal register
// @Description Download all proposals and their items for a financial year as CSV
// @Tags        reports
// @Produce     text/csv
// @Security    BearerAuth
// @Param       financial_year query string true "Financial year (YYYY-YYYY)"
// @Success     200 {file} binary "CSV file"
// @Failure     400 {object} ErrorResponse "Invalid financial year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/proposals/csv [get]
func (h *ReportHandler) ExportProposalRegister(c *gin.Context) {
	year, ok := requireYear(c)
	if !ok {
		return
	}

	data, err := h.reportService.ProposalRegisterCSV(year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "proposal_register_"+year+".csv"))
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportConsolidatedCSV handles the consolidated budget CSV export.
// @Summary     Export consolidated budget (CSV)
// @Description Download per-department allocated, spent, and remaining totals as CSV
// @Tags        reports
// @Produce     text/csv
// @Security    BearerAuth
// @Param       financial_year query string true "Financial year (YYYY-YYYY)"
// @Success     200 {file} binary "CSV file"
// @Failure     400 {object} ErrorResponse "Invalid financial year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/consolidated/csv [get]
func (h *ReportHandler) ExportConsolidatedCSV(c *gin.Context) {
	year, ok := requireYear(c)
	if !ok {
		return
	}

	data, err := h.reportService.ConsolidatedCSV(year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "budget_summary_"+year+".csv"))
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportConsolidatedXLSX handles the consolidated budget spreadsheet export.
// @Summary     Export consolidated budget (XLSX)
// @Description Download per-department allocated, spent, and remaining totals as a spreadsheet
// @Tags        reports
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       financial_year query string true "Financial year (YYYY-YYYY)"
// @Success     200 {file} binary "XLSX file"
// @Failure     400 {object} ErrorResponse "Invalid financial year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/consolidated/xlsx [get]
func (h *ReportHandler) ExportConsolidatedXLSX(c *gin.Context) {
	year, ok := requireYear(c)
	if !ok {
		return
	}

	data, err := h.reportService.ConsolidatedXLSX(year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "budget_summary_"+year+".xlsx"))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
