package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/pagination"
	"cbms/internal/services"
)

// BudgetHeadHandler handles budget head management requests.
type BudgetHeadHandler struct {
	budgetHeadService services.BudgetHeadServicer
	auditService      services.AuditServicer
}

// NewBudgetHeadHandler creates a new BudgetHeadHandler.
func NewBudgetHeadHandler(budgetHeadService services.BudgetHeadServicer, auditService services.AuditServicer) *BudgetHeadHandler {
	return &BudgetHeadHandler{budgetHeadService: budgetHeadService, auditService: auditService}
}

// CreateBudgetHeadRequest represents the request payload for creating a budget head.
type CreateBudgetHeadRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Code        string `json:"code" binding:"required,min=1,max=20"`
	Description string `json:"description" binding:"max=500"`
}

// UpdateBudgetHeadRequest represents the request payload for updating a budget head.
type UpdateBudgetHeadRequest struct {
	Name        string `json:"name" binding:"omitempty,min=1,max=200"`
	Description string `json:"description" binding:"max=500"`
	IsActive    *bool  `json:"is_active"`
}

// CreateBudgetHead handles the creation of a new budget head.
// @Summary     Create a budget head
// @Description Create a new budget head with a unique code
// @Tags        budget-heads
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetHeadRequest true "Budget head details"
// @Success     201 {object} models.BudgetHead "Budget head created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate code"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-heads [post]
func (h *BudgetHeadHandler) CreateBudgetHead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetHeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	head, err := h.budgetHeadService.CreateBudgetHead(req.Name, req.Code, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_BUDGET_HEAD", "budget_head", head.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "code": req.Code})

	c.JSON(http.StatusCreated, gin.H{"budget_head": head})
}

// GetBudgetHeads handles listing budget heads.
// @Summary     Get budget heads
// @Description Get a paginated list of budget heads
// @Tags        budget-heads
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       search      query string false "Filter by name or code"
// @Param       active_only query bool   false "Only active budget heads"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BudgetHead] "Paginated budget heads"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-heads [get]
func (h *BudgetHeadHandler) GetBudgetHeads(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.budgetHeadService.ListBudgetHeads(page, c.Query("search"), c.Query("active_only") == "true")
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudgetHead handles retrieving a specific budget head.
// @Summary     Get budget head by ID
// @Description Get a specific budget head by ID
// @Tags        budget-heads
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Budget head ID"
// @Success     200 {object} models.BudgetHead "Budget head details"
// @Failure     400 {object} ErrorResponse "Invalid budget head ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget head not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-heads/{id} [get]
func (h *BudgetHeadHandler) GetBudgetHead(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	head, err := h.budgetHeadService.GetBudgetHeadByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget_head": head})
}

// UpdateBudgetHead handles updating a budget head. The code is immutable.
// @Summary     Update budget head
// @Description Update a budget head's name, description, or active flag
// @Tags        budget-heads
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                     true "Budget head ID"
// @Param       request body UpdateBudgetHeadRequest true "Updated budget head details"
// @Success     200 {object} models.BudgetHead "Updated budget head"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget head not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-heads/{id} [put]
func (h *BudgetHeadHandler) UpdateBudgetHead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetHeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	head, err := h.budgetHeadService.UpdateBudgetHead(id, req.Name, req.Description, req.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET_HEAD", "budget_head", id, c.ClientIP(),
		map[string]interface{}{"name": req.Name})

	c.JSON(http.StatusOK, gin.H{"budget_head": head})
}

// DeleteBudgetHead handles deleting a budget head.
// @Summary     Delete budget head
// @Description Delete a budget head by ID (soft delete)
// @Tags        budget-heads
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Budget head ID"
// @Success     200 {object} MessageResponse "Budget head deleted"
// @Failure     400 {object} ErrorResponse "Invalid budget head ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget head not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-heads/{id} [delete]
func (h *BudgetHeadHandler) DeleteBudgetHead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetHeadService.DeleteBudgetHead(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_BUDGET_HEAD", "budget_head", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Budget head deleted successfully"})
}
