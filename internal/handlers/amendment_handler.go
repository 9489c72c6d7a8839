package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/services"
)

// AmendmentHandler handles allocation amendment requests.
type AmendmentHandler struct {
	amendmentService services.AmendmentServicer
	auditService     services.AuditServicer
}

// NewAmendmentHandler creates a new AmendmentHandler.
func NewAmendmentHandler(amendmentService services.AmendmentServicer, auditService services.AuditServicer) *AmendmentHandler {
	return &AmendmentHandler{amendmentService: amendmentService, auditService: auditService}
}

// CreateAmendmentRequest represents the request payload for requesting an amendment.
type CreateAmendmentRequest struct {
	AllocationID    uint   `json:"allocation_id" binding:"required"`
	RequestedAmount int64  `json:"requested_amount" binding:"required,gt=0"`
	ChangeReason    string `json:"change_reason" binding:"required,min=1,max=1000"`
}

// CreateAmendment handles requesting a change to an allocation amount.
// @Summary     Request an amendment
// @Description Request a change to an existing allocation's amount
// @Tags        amendments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAmendmentRequest true "Amendment details"
// @Success     201 {object} models.AllocationAmendment "Amendment created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Allocation not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /amendments [post]
func (h *AmendmentHandler) CreateAmendment(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAmendmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amendment, err := h.amendmentService.CreateAmendment(actor, req.AllocationID, req.RequestedAmount, req.ChangeReason)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "CREATE_AMENDMENT", "amendment", amendment.ID, c.ClientIP(),
		map[string]interface{}{"allocation_id": req.AllocationID, "requested_amount": req.RequestedAmount})

	c.JSON(http.StatusCreated, gin.H{"amendment": amendment})
}

// GetAmendments handles listing amendments.
// @Summary     Get amendments
// @Description Get a paginated list of amendments, optionally filtered by status
// @Tags        amendments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       status    query string false "Filter by status"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.AllocationAmendment] "Paginated amendments"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /amendments [get]
func (h *AmendmentHandler) GetAmendments(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var status *models.AmendmentStatus
	if v := c.Query("status"); v != "" {
		s := models.AmendmentStatus(v)
		status = &s
	}

	result, err := h.amendmentService.ListAmendments(page, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAmendment handles retrieving a specific amendment.
// @Summary     Get amendment by ID
// @Description Get an amendment with its allocation and change percentage
// @Tags        amendments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Amendment ID"
// @Success     200 {object} models.AllocationAmendment "Amendment details"
// @Failure     400 {object} ErrorResponse "Invalid amendment ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Amendment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /amendments/{id} [get]
func (h *AmendmentHandler) GetAmendment(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	amendment, err := h.amendmentService.GetAmendmentByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"amendment": amendment})
}

// ApproveAmendment handles approving an amendment.
// @Summary     Approve amendment
// @Description Approve a pending amendment and apply the new amount to the allocation
// @Tags        amendments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Amendment ID"
// @Success     200 {object} models.AllocationAmendment "Approved amendment"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     404 {object} ErrorResponse "Amendment not found"
// @Failure     409 {object} ErrorResponse "Already decided"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /amendments/{id}/approve [post]
func (h *AmendmentHandler) ApproveAmendment(c *gin.Context) {
	h.decide(c, "APPROVE_AMENDMENT", h.amendmentService.Approve)
}

// RejectAmendment handles rejecting an amendment.
// @Summary     Reject amendment
// @Description Reject a pending amendment, leaving the allocation unchanged
// @Tags        amendments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Amendment ID"
// @Success     200 {object} models.AllocationAmendment "Rejected amendment"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     404 {object} ErrorResponse "Amendment not found"
// @Failure     409 {object} ErrorResponse "Already decided"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /amendments/{id}/reject [post]
func (h *AmendmentHandler) RejectAmendment(c *gin.Context) {
	h.decide(c, "REJECT_AMENDMENT", h.amendmentService.Reject)
}

func (h *AmendmentHandler) decide(c *gin.Context, auditAction string, fn func(services.Actor, uint) (*models.AllocationAmendment, error)) {
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

	amendment, err := fn(actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, auditAction, "amendment", id, c.ClientIP(),
		map[string]interface{}{"status": amendment.Status})

	c.JSON(http.StatusOK, gin.H{"amendment": amendment})
}
