package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
	"cbms/internal/services"
)

// SettingsHandler handles system settings requests.
type SettingsHandler struct {
	settingsService services.SettingsServicer
	auditService    services.AuditServicer
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService services.SettingsServicer, auditService services.AuditServicer) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService, auditService: auditService}
}

// UpdatePolicyRequest represents the request payload for changing the overspend policy.
type UpdatePolicyRequest struct {
	OverspendPolicy string `json:"overspend_policy" binding:"required,oneof=disallow override"`
}

// GetSettings handles reading the current system settings.
// @Summary     Get settings
// @Description Get the current overspend policy
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]string "Current settings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	policy, err := h.settingsService.OverspendPolicy()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"overspend_policy": policy})
}

// UpdateSettings handles changing the overspend policy.
// @Summary     Update settings
// @Description Switch the overspend policy between disallow and override
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdatePolicyRequest true "New policy"
// @Success     200 {object} map[string]string "Updated settings"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	policy := models.OverspendPolicy(req.OverspendPolicy)
	if err := h.settingsService.SetOverspendPolicy(policy); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_SETTINGS", "setting", 0, c.ClientIP(),
		map[string]interface{}{"overspend_policy": req.OverspendPolicy})

	c.JSON(http.StatusOK, gin.H{"overspend_policy": policy})
}
