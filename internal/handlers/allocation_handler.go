package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/pagination"
	"cbms/internal/services"
)

// AllocationHandler handles allocation management requests.
type AllocationHandler struct {
	allocationService services.AllocationServicer
	auditService      services.AuditServicer
}

// NewAllocationHandler creates a new AllocationHandler.
func NewAllocationHandler(allocationService services.AllocationServicer, auditService services.AuditServicer) *AllocationHandler {
	return &AllocationHandler{allocationService: allocationService, auditService: auditService}
}

// CreateAllocationRequest represents the request payload for a direct allocation.
type CreateAllocationRequest struct {
	DepartmentID    uint   `json:"department_id" binding:"required"`
	BudgetHeadID    uint   `json:"budget_head_id" binding:"required"`
	FinancialYear   string `json:"financial_year" binding:"required,financial_year"`
	AllocatedAmount int64  `json:"allocated_amount" binding:"required,gt=0"`
	Remarks         string `json:"remarks" binding:"max=1000"`
}

// UpdateAllocationRequest represents the request payload for updating remarks.
type UpdateAllocationRequest struct {
	Remarks string `json:"remarks" binding:"max=1000"`
}

// CreateAllocation handles creating an allocation outside the proposal flow.
// @Summary     Create an allocation
// @Description Directly allocate budget to a department and budget head
// @Tags        allocations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAllocationRequest true "Allocation details"
// @Success     201 {object} models.Allocation "Allocation created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     409 {object} ErrorResponse "Duplicate allocation"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /allocations [post]
func (h *AllocationHandler) CreateAllocation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	alloc, err := h.allocationService.CreateAllocation(req.DepartmentID, req.BudgetHeadID, req.FinancialYear, req.AllocatedAmount, req.Remarks, nil)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_ALLOCATION", "allocation", alloc.ID, c.ClientIP(),
		map[string]interface{}{"department_id": req.DepartmentID, "budget_head_id": req.BudgetHeadID, "amount": req.AllocatedAmount})

	c.JSON(http.StatusCreated, gin.H{"allocation": alloc})
}

// GetAllocations handles listing allocations.
// @Summary     Get allocations
// @Description Get a paginated, filtered list of allocations with remaining amounts
// @Tags        allocations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       department_id  query int    false "Filter by department"
// @Param       budget_head_id query int    false "Filter by budget head"
// @Param       financial_year query string false "Filter by financial year"
// @Param       page           query int    false "Page number (default 1)"
// @Param       page_size      query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Allocation] "Paginated allocations"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /allocations [get]
func (h *AllocationHandler) GetAllocations(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.AllocationFilter
	if id, err := parseQueryID(c, "department_id"); err != nil {
		respondWithError(c, err)
		return
	} else if id != nil {
		filter.DepartmentID = id
	}
	if id, err := parseQueryID(c, "budget_head_id"); err != nil {
		respondWithError(c, err)
		return
	} else if id != nil {
		filter.BudgetHeadID = id
	}
	filter.FinancialYear = c.Query("financial_year")

	result, err := h.allocationService.ListAllocations(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAllocation handles retrieving a specific allocation.
// @Summary     Get allocation by ID
// @Description Get an allocation with its remaining amount
// @Tags        allocations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Allocation ID"
// @Success     200 {object} models.Allocation "Allocation details"
// @Failure     400 {object} ErrorResponse "Invalid allocation ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Allocation not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /allocations/{id} [get]
func (h *AllocationHandler) GetAllocation(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	alloc, err := h.allocationService.GetAllocationByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"allocation": alloc})
}

// UpdateAllocation handles updating allocation remarks.
// @Summary     Update allocation remarks
// @Description Update the remarks on an allocation. Amounts are immutable; use an amendment.
// @Tags        allocations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                     true "Allocation ID"
// @Param       request body UpdateAllocationRequest true "Updated remarks"
// @Success     200 {object} models.Allocation "Updated allocation"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Allocation not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /allocations/{id} [put]
func (h *AllocationHandler) UpdateAllocation(c *gin.Context) {
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

	var req UpdateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	alloc, err := h.allocationService.UpdateRemarks(id, req.Remarks)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_ALLOCATION", "allocation", id, c.ClientIP(),
		map[string]interface{}{"remarks": req.Remarks})

	c.JSON(http.StatusOK, gin.H{"allocation": alloc})
}
