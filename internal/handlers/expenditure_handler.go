package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/services"
)

// ExpenditureHandler handles expenditure workflow requests.
type ExpenditureHandler struct {
	expenditureService services.ExpenditureServicer
	auditService       services.AuditServicer
}

// NewExpenditureHandler creates a new ExpenditureHandler.
func NewExpenditureHandler(expenditureService services.ExpenditureServicer, auditService services.AuditServicer) *ExpenditureHandler {
	return &ExpenditureHandler{expenditureService: expenditureService, auditService: auditService}
}

// CreateExpenditureRequest represents the request payload for raising an expenditure.
type CreateExpenditureRequest struct {
	DepartmentID          uint   `json:"department_id" binding:"required"`
	BudgetHeadID          uint   `json:"budget_head_id" binding:"required"`
	BillNumber            string `json:"bill_number" binding:"required,min=1,max=100"`
	BillDate              string `json:"bill_date" binding:"required"`
	BillAmount            int64  `json:"bill_amount" binding:"required,gt=0"`
	PartyName             string `json:"party_name" binding:"max=255"`
	ExpenseDetails        string `json:"expense_details" binding:"max=2000"`
	OverrideJustification string `json:"override_justification" binding:"max=1000"`
}

// CreateExpenditure handles recording a new expenditure bill.
// @Summary     Create an expenditure
// @Description Record a bill against a department's allocation. Bills exceeding the
// @Description remaining allocation are refused or routed through a budget override,
// @Description depending on the overspend policy.
// @Tags        expenditures
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateExpenditureRequest true "Expenditure details"
// @Success     201 {object} models.Expenditure "Expenditure created"
// @Failure     400 {object} ErrorResponse "Invalid input or no allocation"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not your department"
// @Failure     409 {object} ErrorResponse "Exceeds remaining allocation"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenditures [post]
func (h *ExpenditureHandler) CreateExpenditure(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenditureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	billDate, err := time.Parse("2006-01-02", req.BillDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "bill_date must be in YYYY-MM-DD format"))
		return
	}

	exp, err := h.expenditureService.CreateExpenditure(actor, services.ExpenditureInput{
		DepartmentID:          req.DepartmentID,
		BudgetHeadID:          req.BudgetHeadID,
		BillNumber:            req.BillNumber,
		BillDate:              billDate,
		BillAmount:            req.BillAmount,
		PartyName:             req.PartyName,
		ExpenseDetails:        req.ExpenseDetails,
		OverrideJustification: req.OverrideJustification,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "CREATE_EXPENDITURE", "expenditure", exp.ID, c.ClientIP(),
		map[string]interface{}{"bill_number": req.BillNumber, "bill_amount": req.BillAmount})

	c.JSON(http.StatusCreated, gin.H{"expenditure": exp})
}

// GetExpenditures handles listing expenditures.
// @Summary     Get expenditures
// @Description Get a paginated, filtered list of expenditures
// @Tags        expenditures
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       status         query string false "Filter by status"
// @Param       department_id  query int    false "Filter by department"
// @Param       budget_head_id query int    false "Filter by budget head"
// @Param       financial_year query string false "Filter by financial year"
// @Param       page           query int    false "Page number (default 1)"
// @Param       page_size      query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Expenditure] "Paginated expenditures"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenditures [get]
func (h *ExpenditureHandler) GetExpenditures(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.ExpenditureFilter
	if v := c.Query("status"); v != "" {
		status := models.ExpenditureStatus(v)
		filter.Status = &status
	}
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

	result, err := h.expenditureService.ListExpenditures(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExpenditure handles retrieving a specific expenditure.
// @Summary     Get expenditure by ID
// @Description Get an expenditure with its approval steps and attachments
// @Tags        expenditures
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Expenditure ID"
// @Success     200 {object} models.Expenditure "Expenditure details"
// @Failure     400 {object} ErrorResponse "Invalid expenditure ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expenditure not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenditures/{id} [get]
func (h *ExpenditureHandler) GetExpenditure(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	exp, err := h.expenditureService.GetExpenditureByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expenditure": exp})
}

// VerifyExpenditure handles the verification step.
// @Summary     Verify expenditure
// @Description Mark a pending expenditure as verified with remarks
// @Tags        expenditures
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int            true  "Expenditure ID"
// @Param       request body RemarksRequest false "Verification remarks"
// @Success     200 {object} models.Expenditure "Verified expenditure"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     404 {object} ErrorResponse "Expenditure not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenditures/{id}/verify [post]
func (h *ExpenditureHandler) VerifyExpenditure(c *gin.Context) {
	var req RemarksRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}
	h.transition(c, "VERIFY_EXPENDITURE", func(actor services.Actor, id uint) (*models.Expenditure, error) {
		return h.expenditureService.Verify(actor, id, req.Remarks)
	})
}

// ApproveExpenditure handles the approval step.
// @Summary     Approve expenditure
// @Description Approve an expenditure and add its bill amount to the allocation's spent total.
// @Description Refused while a budget override for the expenditure is still pending.
// @Tags        expenditures
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int            true  "Expenditure ID"
// @Param       request body RemarksRequest false "Approval remarks"
// @Success     200 {object} models.Expenditure "Approved expenditure"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     404 {object} ErrorResponse "Expenditure not found"
// @Failure     409 {object} ErrorResponse "Invalid transition or override pending"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenditures/{id}/approve [post]
func (h *ExpenditureHandler) ApproveExpenditure(c *gin.Context) {
	var req RemarksRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}
	h.transition(c, "APPROVE_EXPENDITURE", func(actor services.Actor, id uint) (*models.Expenditure, error) {
		return h.expenditureService.Approve(actor, id, req.Remarks)
	})
}

// RejectExpenditure handles the rejection step.
// @Summary     Reject expenditure
// @Description Reject an expenditure with mandatory remarks
// @Tags        expenditures
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int           true "Expenditure ID"
// @Param       request body ReasonRequest true "Rejection reason"
// @Success     200 {object} models.Expenditure "Rejected expenditure"
// @Failure     400 {object} ErrorResponse "Reason required"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     404 {object} ErrorResponse "Expenditure not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenditures/{id}/reject [post]
func (h *ExpenditureHandler) RejectExpenditure(c *gin.Context) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	h.transition(c, "REJECT_EXPENDITURE", func(actor services.Actor, id uint) (*models.Expenditure, error) {
		return h.expenditureService.Reject(actor, id, req.Reason)
	})
}

// ResubmitExpenditure handles resubmitting a rejected expenditure.
// @Summary     Resubmit expenditure
// @Description Copy a rejected expenditure into a fresh submission linked to the original.
// @Description The overspend policy is re-evaluated for the new bill.
// @Tags        expenditures
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int            true  "Expenditure ID"
// @Param       request body RemarksRequest false "Resubmission remarks"
// @Success     201 {object} models.Expenditure "New expenditure"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not your department"
// @Failure     404 {object} ErrorResponse "Expenditure not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenditures/{id}/resubmit [post]
func (h *ExpenditureHandler) ResubmitExpenditure(c *gin.Context) {
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

	var req RemarksRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	fresh, err := h.expenditureService.Resubmit(actor, id, req.Remarks)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "RESUBMIT_EXPENDITURE", "expenditure", id, c.ClientIP(),
		map[string]interface{}{"new_expenditure_id": fresh.ID})

	c.JSON(http.StatusCreated, gin.H{"expenditure": fresh})
}

// UploadAttachment handles attaching a bill document to an expenditure.
// @Summary     Upload attachment
// @Description Attach a PDF or image (max 5 MB) to an expenditure
// @Tags        expenditures
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       id   path     int  true "Expenditure ID"
// @Param       file formData file true "Bill document (PDF, JPEG, or PNG)"
// @Success     201 {object} models.Attachment "Attachment stored"
// @Failure     400 {object} ErrorResponse "Missing file, unsupported type, or too large"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expenditure not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenditures/{id}/attachments [post]
func (h *ExpenditureHandler) UploadAttachment(c *gin.Context) {
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

	file, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}

	attachment, err := h.expenditureService.AddAttachment(c.Request.Context(), actor, id, file)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "UPLOAD_ATTACHMENT", "expenditure", id, c.ClientIP(),
		map[string]interface{}{"file_name": attachment.FileName, "size": attachment.Size})

	c.JSON(http.StatusCreated, gin.H{"attachment": attachment})
}

// DownloadAttachment streams an attachment back to the client.
// @Summary     Download attachment
// @Description Download a previously uploaded bill document
// @Tags        expenditures
// @Produce     application/octet-stream
// @Security    BearerAuth
// @Param       id           path int true "Expenditure ID"
// @Param       attachmentID path int true "Attachment ID"
// @Success     200 {file} binary "File contents"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Attachment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenditures/{id}/attachments/{attachmentID} [get]
func (h *ExpenditureHandler) DownloadAttachment(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	attachmentID, err := parsePathID(c, "attachmentID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	attachment, data, err := h.expenditureService.OpenAttachment(c.Request.Context(), id, attachmentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	c.Data(http.StatusOK, attachment.ContentType, data)
}

func (h *ExpenditureHandler) transition(c *gin.Context, auditAction string, fn func(services.Actor, uint) (*models.Expenditure, error)) {
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

	exp, err := fn(actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, auditAction, "expenditure", id, c.ClientIP(),
		map[string]interface{}{"status": exp.Status})

	c.JSON(http.StatusOK, gin.H{"expenditure": exp})
}
