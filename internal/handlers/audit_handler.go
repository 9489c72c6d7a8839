package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/pagination"
	"cbms/internal/services"
)

// AuditHandler handles audit log requests.
type AuditHandler struct {
	auditService services.AuditServicer
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService services.AuditServicer) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// GetAuditLogs handles listing audit log entries.
// @Summary     Get audit logs
// @Description Get a paginated list of audit log entries, newest first
// @Tags        audit
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       user_id   query int false "Filter by user"
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.AuditLog] "Paginated audit logs"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	userID, err := parseQueryID(c, "user_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.auditService.ListLogs(page, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
