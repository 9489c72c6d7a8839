package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/services"
)

// IncomeHandler handles income tracking requests.
type IncomeHandler struct {
	incomeService services.IncomeServicer
	auditService  services.AuditServicer
}

// NewIncomeHandler creates a new IncomeHandler.
func NewIncomeHandler(incomeService services.IncomeServicer, auditService services.AuditServicer) *IncomeHandler {
	return &IncomeHandler{incomeService: incomeService, auditService: auditService}
}

// CreateIncomeRequest represents the request payload for recording expected income.
type CreateIncomeRequest struct {
	FinancialYear   string `json:"financial_year" binding:"required,financial_year"`
	Source          string `json:"source" binding:"required,oneof=government_grant fees donation interest other"`
	Category        string `json:"category" binding:"required,oneof=recurring non_recurring"`
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	ExpectedDate    string `json:"expected_date" binding:"omitempty"`
	ReferenceNumber string `json:"reference_number" binding:"max=100"`
}

// ReceiveIncomeRequest represents the request payload for marking income received.
type ReceiveIncomeRequest struct {
	ReceivedDate string `json:"received_date" binding:"omitempty"`
}

// CreateIncome handles recording a new expected income entry.
// @Summary     Record income
// @Description Record an expected income entry for a financial year
// @Tags        income
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateIncomeRequest true "Income details"
// @Success     201 {object} models.Income "Income recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /income [post]
func (h *IncomeHandler) CreateIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := services.IncomeInput{
		FinancialYear:   req.FinancialYear,
		Source:          models.IncomeSource(req.Source),
		Category:        models.CategoryType(req.Category),
		Amount:          req.Amount,
		ReferenceNumber: req.ReferenceNumber,
	}
	if req.ExpectedDate != "" {
		expected, err := time.Parse("2006-01-02", req.ExpectedDate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "expected_date must be in YYYY-MM-DD format"))
			return
		}
		input.ExpectedDate = &expected
	}

	income, err := h.incomeService.CreateIncome(input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_INCOME", "income", income.ID, c.ClientIP(),
		map[string]interface{}{"source": req.Source, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"income": income})
}

// GetIncomeList handles listing income entries.
// @Summary     Get income entries
// @Description Get a paginated list of income entries with optional filters
// @Tags        income
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       financial_year query string false "Filter by financial year"
// @Param       status         query string false "Filter by status"
// @Param       page           query int    false "Page number (default 1)"
// @Param       page_size      query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Income] "Paginated income"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /income [get]
func (h *IncomeHandler) GetIncomeList(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var status *models.IncomeStatus
	if v := c.Query("status"); v != "" {
		s := models.IncomeStatus(v)
		status = &s
	}

	result, err := h.incomeService.ListIncome(page, c.Query("financial_year"), status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetIncome handles retrieving a specific income entry.
// @Summary     Get income by ID
// @Description Get a single income entry
// @Tags        income
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Income ID"
// @Success     200 {object} models.Income "Income details"
// @Failure     400 {object} ErrorResponse "Invalid income ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Income not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /income/{id} [get]
func (h *IncomeHandler) GetIncome(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	income, err := h.incomeService.GetIncomeByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"income": income})
}

// ReceiveIncome handles marking an income entry as received.
// @Summary     Mark income received
// @Description Mark an expected income entry as received on a given date
// @Tags        income
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                  true  "Income ID"
// @Param       request body ReceiveIncomeRequest false "Received date"
// @Success     200 {object} models.Income "Updated income"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Income not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /income/{id}/receive [post]
func (h *IncomeHandler) ReceiveIncome(c *gin.Context) {
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

	var req ReceiveIncomeRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	var receivedDate time.Time
	if req.ReceivedDate != "" {
		receivedDate, err = time.Parse("2006-01-02", req.ReceivedDate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "received_date must be in YYYY-MM-DD format"))
			return
		}
	}

	income, err := h.incomeService.MarkReceived(actor, id, receivedDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "RECEIVE_INCOME", "income", id, c.ClientIP(),
		map[string]interface{}{"status": income.Status})

	c.JSON(http.StatusOK, gin.H{"income": income})
}

// VerifyIncome handles verifying a received income entry.
// @Summary     Verify income
// @Description Verify a received income entry against bank records
// @Tags        income
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Income ID"
// @Success     200 {object} models.Income "Verified income"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     404 {object} ErrorResponse "Income not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /income/{id}/verify [post]
func (h *IncomeHandler) VerifyIncome(c *gin.Context) {
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

	income, err := h.incomeService.Verify(actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "VERIFY_INCOME", "income", id, c.ClientIP(),
		map[string]interface{}{"status": income.Status})

	c.JSON(http.StatusOK, gin.H{"income": income})
}
