package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/services"
)

// OverrideHandler handles budget override approval requests.
type OverrideHandler struct {
	overrideService services.OverrideServicer
	auditService    services.AuditServicer
}

// NewOverrideHandler creates a new OverrideHandler.
func NewOverrideHandler(overrideService services.OverrideServicer, auditService services.AuditServicer) *OverrideHandler {
	return &OverrideHandler{overrideService: overrideService, auditService: auditService}
}

// GetOverrides handles listing budget overrides.
// @Summary     Get budget overrides
// @Description Get a paginated list of budget overrides, optionally filtered by status
// @Tags        overrides
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       status    query string false "Filter by status"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BudgetOverride] "Paginated overrides"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /overrides [get]
func (h *OverrideHandler) GetOverrides(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var status *models.OverrideStatus
	if v := c.Query("status"); v != "" {
		s := models.OverrideStatus(v)
		status = &s
	}

	result, err := h.overrideService.ListOverrides(page, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetOverride handles retrieving a specific budget override.
// @Summary     Get budget override by ID
// @Description Get a budget override with its expenditure and allocation snapshot
// @Tags        overrides
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Override ID"
// @Success     200 {object} models.BudgetOverride "Override details"
// @Failure     400 {object} ErrorResponse "Invalid override ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Override not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /overrides/{id} [get]
func (h *OverrideHandler) GetOverride(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	override, err := h.overrideService.GetOverrideByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"override": override})
}

// ApproveOverride handles approving a budget override.
// @Summary     Approve budget override
// @Description Approve a pending override, clearing its expenditure for approval
// @Tags        overrides
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Override ID"
// @Success     200 {object} models.BudgetOverride "Approved override"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     404 {object} ErrorResponse "Override not found"
// @Failure     409 {object} ErrorResponse "Already decided"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /overrides/{id}/approve [post]
func (h *OverrideHandler) ApproveOverride(c *gin.Context) {
	h.decide(c, "APPROVE_OVERRIDE", h.overrideService.Approve)
}

// RejectOverride handles rejecting a budget override.
// @Summary     Reject budget override
// @Description Reject a pending override. The underlying expenditure is rejected with it.
// @Tags        overrides
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Override ID"
// @Success     200 {object} models.BudgetOverride "Rejected override"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     404 {object} ErrorResponse "Override not found"
// @Failure     409 {object} ErrorResponse "Already decided"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /overrides/{id}/reject [post]
func (h *OverrideHandler) RejectOverride(c *gin.Context) {
	h.decide(c, "REJECT_OVERRIDE", h.overrideService.Reject)
}

func (h *OverrideHandler) decide(c *gin.Context, auditAction string, fn func(services.Actor, uint) (*models.BudgetOverride, error)) {
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

	override, err := fn(actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, auditAction, "budget_override", id, c.ClientIP(),
		map[string]interface{}{"status": override.Status})

	c.JSON(http.StatusOK, gin.H{"override": override})
}
