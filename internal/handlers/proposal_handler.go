package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/services"
)

// ProposalHandler handles budget proposal workflow requests.
type ProposalHandler struct {
	proposalService services.ProposalServicer
	auditService    services.AuditServicer
}

// NewProposalHandler creates a new ProposalHandler.
func NewProposalHandler(proposalService services.ProposalServicer, auditService services.AuditServicer) *ProposalHandler {
	return &ProposalHandler{proposalService: proposalService, auditService: auditService}
}

// ProposalItemRequest is one line item in a proposal payload.
type ProposalItemRequest struct {
	BudgetHeadID   uint   `json:"budget_head_id" binding:"required"`
	ProposedAmount int64  `json:"proposed_amount" binding:"required,gt=0"`
	Justification  string `json:"justification" binding:"required,min=1,max=1000"`
}

// CreateProposalRequest represents the request payload for creating a proposal.
type CreateProposalRequest struct {
	DepartmentID  uint                  `json:"department_id" binding:"required"`
	FinancialYear string                `json:"financial_year" binding:"required,financial_year"`
	Notes         string                `json:"notes" binding:"max=2000"`
	Items         []ProposalItemRequest `json:"items" binding:"dive"`
}

// UpdateProposalRequest represents the request payload for editing a draft.
type UpdateProposalRequest struct {
	Notes string                `json:"notes" binding:"max=2000"`
	Items []ProposalItemRequest `json:"items" binding:"dive"`
}

// RemarksRequest carries optional remarks on verify actions.
type RemarksRequest struct {
	Remarks string `json:"remarks" binding:"max=1000"`
}

// ReasonRequest carries the mandatory reason on reject actions.
type ReasonRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=1000"`
}

// AllocateItemRequest identifies the proposal item to convert into an allocation.
type AllocateItemRequest struct {
	ItemID  uint   `json:"item_id" binding:"required"`
	Remarks string `json:"remarks" binding:"max=1000"`
}

func itemInputs(items []ProposalItemRequest) []services.ProposalItemInput {
	inputs := make([]services.ProposalItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, services.ProposalItemInput{
			BudgetHeadID:   item.BudgetHeadID,
			ProposedAmount: item.ProposedAmount,
			Justification:  item.Justification,
		})
	}
	return inputs
}

// CreateProposal handles the creation of a new draft proposal.
// @Summary     Create a proposal
// @Description Create a new draft budget proposal for a department
// @Tags        proposals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateProposalRequest true "Proposal details"
// @Success     201 {object} models.BudgetProposal "Proposal created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not your department"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /proposals [post]
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	proposal, err := h.proposalService.CreateProposal(actor, req.DepartmentID, req.FinancialYear, req.Notes, itemInputs(req.Items))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "CREATE_PROPOSAL", "proposal", proposal.ID, c.ClientIP(),
		map[string]interface{}{"financial_year": req.FinancialYear, "total": proposal.TotalProposedAmount})

	c.JSON(http.StatusCreated, gin.H{"proposal": proposal})
}

// GetProposals handles listing proposals.
// @Summary     Get proposals
// @Description Get a paginated, filtered list of proposals
// @Tags        proposals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       status         query string false "Filter by status"
// @Param       department_id  query int    false "Filter by department"
// @Param       financial_year query string false "Filter by financial year"
// @Param       page           query int    false "Page number (default 1)"
// @Param       page_size      query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BudgetProposal] "Paginated proposals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /proposals [get]
func (h *ProposalHandler) GetProposals(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.ProposalFilter
	if v := c.Query("status"); v != "" {
		status := models.ProposalStatus(v)
		filter.Status = &status
	}
	if id, err := parseQueryID(c, "department_id"); err != nil {
		respondWithError(c, err)
		return
	} else if id != nil {
		filter.DepartmentID = id
	}
	filter.FinancialYear = c.Query("financial_year")

	result, err := h.proposalService.ListProposals(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProposal handles retrieving a specific proposal.
// @Summary     Get proposal by ID
// @Description Get a proposal with its items
// @Tags        proposals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Proposal ID"
// @Success     200 {object} models.BudgetProposal "Proposal details"
// @Failure     400 {object} ErrorResponse "Invalid proposal ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Proposal not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /proposals/{id} [get]
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	proposal, err := h.proposalService.GetProposalByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposal": proposal})
}

// UpdateProposal handles editing a draft proposal.
// @Summary     Update draft proposal
// @Description Replace the notes and items of a proposal still in draft
// @Tags        proposals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                   true "Proposal ID"
// @Param       request body UpdateProposalRequest true "Updated proposal"
// @Success     200 {object} models.BudgetProposal "Updated proposal"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not your department"
// @Failure     404 {object} ErrorResponse "Proposal not found"
// @Failure     409 {object} ErrorResponse "Not in draft"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /proposals/{id} [put]
func (h *ProposalHandler) UpdateProposal(c *gin.Context) {
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

	var req UpdateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	proposal, err := h.proposalService.UpdateDraft(actor, id, req.Notes, itemInputs(req.Items))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "UPDATE_PROPOSAL", "proposal", id, c.ClientIP(),
		map[string]interface{}{"total": proposal.TotalProposedAmount})

	c.JSON(http.StatusOK, gin.H{"proposal": proposal})
}

// SubmitProposal handles submitting a draft for approval.
// @Summary     Submit proposal
// @Description Submit a draft proposal for verification and approval
// @Tags        proposals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Proposal ID"
// @Success     200 {object} models.BudgetProposal "Submitted proposal"
// @Failure     400 {object} ErrorResponse "Validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not your department"
// @Failure     404 {object} ErrorResponse "Proposal not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /proposals/{id}/submit [post]
func (h *ProposalHandler) SubmitProposal(c *gin.Context) {
	h.transition(c, "SUBMIT_PROPOSAL", func(actor services.Actor, id uint) (*models.BudgetProposal, error) {
		return h.proposalService.Submit(actor, id)
	})
}

// VerifyProposal handles the verification step.
// @Summary     Verify proposal
// @Description Mark a submitted proposal as verified with remarks
// @Tags        proposals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int            true  "Proposal ID"
// @Param       request body RemarksRequest false "Verification remarks"
// @Success     200 {object} models.BudgetProposal "Verified proposal"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     404 {object} ErrorResponse "Proposal not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /proposals/{id}/verify [post]
func (h *ProposalHandler) VerifyProposal(c *gin.Context) {
	var req RemarksRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}
	h.transition(c, "VERIFY_PROPOSAL", func(actor services.Actor, id uint) (*models.BudgetProposal, error) {
		return h.proposalService.Verify(actor, id, req.Remarks)
	})
}

// ApproveProposal handles the approval step.
// @Summary     Approve proposal
// @Description Approve a submitted or verified proposal
// @Tags        proposals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Proposal ID"
// @Success     200 {object} models.BudgetProposal "Approved proposal"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     404 {object} ErrorResponse "Proposal not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /proposals/{id}/approve [post]
func (h *ProposalHandler) ApproveProposal(c *gin.Context) {
	h.transition(c, "APPROVE_PROPOSAL", func(actor services.Actor, id uint) (*models.BudgetProposal, error) {
		return h.proposalService.Approve(actor, id)
	})
}

// RejectProposal handles the rejection step.
// @Summary     Reject proposal
// @Description Reject a submitted or verified proposal with a reason
// @Tags        proposals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int           true "Proposal ID"
// @Param       request body ReasonRequest true "Rejection reason"
// @Success     200 {object} models.BudgetProposal "Rejected proposal"
// @Failure     400 {object} ErrorResponse "Reason required"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     404 {object} ErrorResponse "Proposal not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /proposals/{id}/reject [post]
func (h *ProposalHandler) RejectProposal(c *gin.Context) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	h.transition(c, "REJECT_PROPOSAL", func(actor services.Actor, id uint) (*models.BudgetProposal, error) {
		return h.proposalService.Reject(actor, id, req.Reason)
	})
}

// ResubmitProposal handles resubmitting a rejected proposal.
// @Summary     Resubmit proposal
// @Description Copy a rejected proposal into a fresh draft linked to the original
// @Tags        proposals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Proposal ID"
// @Success     201 {object} models.BudgetProposal "New draft proposal"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not your department"
// @Failure     404 {object} ErrorResponse "Proposal not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /proposals/{id}/resubmit [post]
func (h *ProposalHandler) ResubmitProposal(c *gin.Context) {
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

	draft, err := h.proposalService.Resubmit(actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "RESUBMIT_PROPOSAL", "proposal", id, c.ClientIP(),
		map[string]interface{}{"new_proposal_id": draft.ID})

	c.JSON(http.StatusCreated, gin.H{"proposal": draft})
}

// AllocateProposalItem converts one approved proposal item into an allocation.
// @Summary     Allocate from proposal item
// @Description Create an allocation from one item of an approved proposal
// @Tags        proposals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                 true "Proposal ID"
// @Param       request body AllocateItemRequest true "Item to allocate"
// @Success     201 {object} models.Allocation "Allocation created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     404 {object} ErrorResponse "Proposal or item not found"
// @Failure     409 {object} ErrorResponse "Not approved or duplicate allocation"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /proposals/{id}/allocate [post]
func (h *ProposalHandler) AllocateProposalItem(c *gin.Context) {
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

	var req AllocateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	alloc, err := h.proposalService.Allocate(actor, id, req.ItemID, req.Remarks)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "ALLOCATE_PROPOSAL_ITEM", "allocation", alloc.ID, c.ClientIP(),
		map[string]interface{}{"proposal_id": id, "item_id": req.ItemID, "amount": alloc.AllocatedAmount})

	c.JSON(http.StatusCreated, gin.H{"allocation": alloc})
}

// transition runs a workflow action shared by the submit/approve style
// endpoints and writes the audit entry.
func (h *ProposalHandler) transition(c *gin.Context, auditAction string, fn func(services.Actor, uint) (*models.BudgetProposal, error)) {
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

	proposal, err := fn(actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, auditAction, "proposal", id, c.ClientIP(),
		map[string]interface{}{"status": proposal.Status})

	c.JSON(http.StatusOK, gin.H{"proposal": proposal})
}
