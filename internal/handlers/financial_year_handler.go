package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/services"
)

// FinancialYearHandler handles financial year lifecycle requests.
type FinancialYearHandler struct {
	financialYearService services.FinancialYearServicer
	auditService         services.AuditServicer
}

// NewFinancialYearHandler creates a new FinancialYearHandler.
func NewFinancialYearHandler(financialYearService services.FinancialYearServicer, auditService services.AuditServicer) *FinancialYearHandler {
	return &FinancialYearHandler{financialYearService: financialYearService, auditService: auditService}
}

// CreateFinancialYearRequest represents the request payload for creating a financial year.
type CreateFinancialYearRequest struct {
	Label string `json:"label" binding:"required,financial_year"`
}

// SetFinancialYearStatusRequest represents the request payload for a status change.
type SetFinancialYearStatusRequest struct {
	Status models.FinancialYearStatus `json:"status" binding:"required"`
}

// CreateFinancialYear handles the creation of a new financial year.
// @Summary     Create a financial year
// @Description Create a new financial year in planning status
// @Tags        financial-years
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateFinancialYearRequest true "Financial year label (YYYY-YYYY)"
// @Success     201 {object} models.FinancialYear "Financial year created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate label"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /financial-years [post]
func (h *FinancialYearHandler) CreateFinancialYear(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateFinancialYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fy, err := h.financialYearService.CreateFinancialYear(req.Label)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_FINANCIAL_YEAR", "financial_year", fy.ID, c.ClientIP(),
		map[string]interface{}{"label": req.Label})

	c.JSON(http.StatusCreated, gin.H{"financial_year": fy})
}

// GetFinancialYears handles listing financial years.
// @Summary     Get financial years
// @Description Get a paginated list of financial years, most recent first
// @Tags        financial-years
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.FinancialYear] "Paginated financial years"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /financial-years [get]
func (h *FinancialYearHandler) GetFinancialYears(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.financialYearService.ListFinancialYears(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SetFinancialYearStatus handles lifecycle transitions.
// @Summary     Change financial year status
// @Description Move a financial year through planning, active, locked, closed
// @Tags        financial-years
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                           true "Financial year ID"
// @Param       request body SetFinancialYearStatusRequest true "Target status"
// @Success     200 {object} models.FinancialYear "Updated financial year"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     404 {object} ErrorResponse "Financial year not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /financial-years/{id}/status [put]
func (h *FinancialYearHandler) SetFinancialYearStatus(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetFinancialYearStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fy, err := h.financialYearService.SetStatus(id, req.Status, actor.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "SET_FINANCIAL_YEAR_STATUS", "financial_year", id, c.ClientIP(),
		map[string]interface{}{"status": req.Status})

	c.JSON(http.StatusOK, gin.H{"financial_year": fy})
}

// RecalculateFinancialYear refreshes the cached totals on demand.
// @Summary     Recalculate financial year totals
// @Description Refresh the cached allocated, spent, and income totals
// @Tags        financial-years
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Financial year ID"
// @Success     200 {object} models.FinancialYear "Recalculated financial year"
// @Failure     400 {object} ErrorResponse "Invalid financial year ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Financial year not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /financial-years/{id}/recalculate [post]
func (h *FinancialYearHandler) RecalculateFinancialYear(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	fy, err := h.financialYearService.Recalculate(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"financial_year": fy})
}
