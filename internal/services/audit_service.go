package services

import (
	"encoding/json"

	"gorm.io/gorm"

	apperrors "cbms/internal/errors"
	"cbms/internal/logger"
	"cbms/internal/models"
	"cbms/internal/pagination"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{}) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

// ListLogs returns a paginated list of audit entries, optionally filtered
// by user.
func (s *auditService) ListLogs(page pagination.PageRequest, userID *uint) (*pagination.PageResponse[models.AuditLog], error) {
	page.Defaults()

	base := s.db.Model(&models.AuditLog{})
	if userID != nil {
		base = base.Where("user_id = ?", *userID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var logs []models.AuditLog
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(logs, page.Page, page.PageSize, totalItems)
	return &result, nil
}
