package implementation

import (
	"context"
	"encoding/json"
	"errors"

	"academic-auth-be/internal/model"
	"academic-auth-be/pkg/settings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsStore keeps per-user settings in the user_settings table.
type SettingsStore struct {
	db *gorm.DB
}

func NewSettingsStore(db *gorm.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Load(ctx context.Context, key string) (settings.Settings, bool, error) {
	var row model.UserSettings
	err := s.db.WithContext(ctx).Where("owner_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return settings.Settings{}, false, nil
	}
	if err != nil {
		return settings.Settings{}, false, err
	}
	var out settings.Settings
	if err := json.Unmarshal(row.Data, &out); err != nil {
		return settings.Settings{}, false, err
	}
	return out, true, nil
}

func (s *SettingsStore) Save(ctx context.Context, key string, v settings.Settings) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	row := model.UserSettings{OwnerKey: key, Data: datatypes.JSON(raw)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
}

// Delete removes the stored settings of key.
func (s *SettingsStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("owner_key = ?", key).Delete(&model.UserSettings{}).Error
}
