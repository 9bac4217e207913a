package infrastructure

import (
	"context"
	"strings"

	"github.com/subgate/subgate/core/settings/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingModel struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"column:value"`
}

func (SettingModel) TableName() string {
	return "settings"
}

type SettingsGormRepository struct {
	db *gorm.DB
}

func NewSettingsGormRepository(db *gorm.DB) *SettingsGormRepository {
	return &SettingsGormRepository{db: db}
}

func (r *SettingsGormRepository) InitSchema(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&SettingModel{}); err != nil {
		return err
	}

	// Seed defaults, keeping any value already present.
	for _, s := range domain.Defaults {
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).Create(&SettingModel{Key: s.Key, Value: s.Value}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *SettingsGormRepository) Get(ctx context.Context, key string) (string, error) {
	var m SettingModel
	if err := r.db.WithContext(ctx).First(&m, "key = ?", key).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(m.Value), nil
}

func (r *SettingsGormRepository) Set(ctx context.Context, key string, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": value}),
	}).Create(&SettingModel{
		Key:   key,
		Value: value,
	}).Error
}
