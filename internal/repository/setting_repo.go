package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/siswa-api/internal/models"
)

// SettingRepository persists preference key/value pairs.
type SettingRepository interface {
	All(ctx context.Context) (map[string]string, error)
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository constructs a repository backed by GORM.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) All(ctx context.Context) (map[string]string, error) {
	var rows []models.Setting
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

func (r *settingRepository) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]models.Setting, 0, len(values))
	for key, value := range values {
		rows = append(rows, models.Setting{Key: key, Value: value, UpdatedAt: now})
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
}

func (r *settingRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("setting_key IN ?", keys).Delete(&models.Setting{}).Error
}

func (r *settingRepository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Setting{}).Error
}
