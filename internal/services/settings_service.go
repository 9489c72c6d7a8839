package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
)

// settingsService reads and writes system-wide settings.
type settingsService struct {
	db *gorm.DB
}

// NewSettingsService creates a new SettingsServicer.
func NewSettingsService(db *gorm.DB) SettingsServicer {
	return &settingsService{db: db}
}

// OverspendPolicy returns the configured overspend policy, defaulting to
// disallow when no setting row exists.
func (s *settingsService) OverspendPolicy() (models.OverspendPolicy, error) {
	var setting models.Setting
	err := s.db.Where("key = ?", models.SettingOverspendPolicy).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.OverspendDisallow, nil
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	policy := models.OverspendPolicy(setting.Value)
	if policy != models.OverspendDisallow && policy != models.OverspendOverride {
		return models.OverspendDisallow, nil
	}
	return policy, nil
}

// SetOverspendPolicy stores the overspend policy.
func (s *settingsService) SetOverspendPolicy(policy models.OverspendPolicy) error {
	if policy != models.OverspendDisallow && policy != models.OverspendOverride {
		return apperrors.WithMessage(apperrors.ErrValidation, "overspend policy must be disallow or override")
	}

	setting := models.Setting{Key: models.SettingOverspendPolicy, Value: string(policy)}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
