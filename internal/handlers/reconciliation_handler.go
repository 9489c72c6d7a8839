package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/services"
)

// ReconciliationHandler serves the advisory spend figures shown alongside
// proposal approval screens.
type ReconciliationHandler struct {
	reconciliationService services.ReconciliationServicer
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciliationService services.ReconciliationServicer) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationService: reconciliationService}
}

// GetItemStats handles per-item reconciliation figures.
// @Summary     Get item reconciliation stats
// @Description Get prior-year allocation and spend figures for a department and
// @Description budget head, relative to a proposal's financial year
// @Tags        reconciliation
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       department_id  query int    true "Department ID"
// @Param       budget_head_id query int    true "Budget head ID"
// @Param       financial_year query string true "Proposal financial year (YYYY-YYYY)"
// @Success     200 {object} services.ItemStats "Reconciliation figures"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reconciliation/items [get]
func (h *ReconciliationHandler) GetItemStats(c *gin.Context) {
	departmentID, err := parseQueryID(c, "department_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	budgetHeadID, err := parseQueryID(c, "budget_head_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	year := c.Query("financial_year")
	if departmentID == nil || budgetHeadID == nil || year == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "department_id, budget_head_id, and financial_year are required"))
		return
	}

	stats, err := h.reconciliationService.ItemStats(*departmentID, *budgetHeadID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetDepartmentStats handles department-wide reconciliation figures.
// @Summary     Get department reconciliation stats
// @Description Get prior-year allocation and spend totals across a whole department
// @Tags        reconciliation
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id             path  int    true "Department ID"
// @Param       financial_year query string true "Proposal financial year (YYYY-YYYY)"
// @Success     200 {object} services.DepartmentStats "Reconciliation figures"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reconciliation/departments/{id} [get]
func (h *ReconciliationHandler) GetDepartmentStats(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	year := c.Query("financial_year")
	if year == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "financial_year is required"))
		return
	}

	stats, err := h.reconciliationService.DepartmentStats(id, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
