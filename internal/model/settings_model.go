package model

import (
	"time"

	"gorm.io/datatypes"
)

// UserSettings keeps one settings document per user.
type UserSettings struct {
	OwnerKey  string         `gorm:"type:varchar(64);primaryKey"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (UserSettings) TableName() string {
	return "user_settings"
}
