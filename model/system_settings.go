package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Known setting keys
const (
	SettingOnlineStatus       = "enable_online_status"
	SettingMatchNotifications = "enable_match_notifications"
)

// SystemSettings global runtime toggles
type SystemSettings struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SettingKey   string    `json:"setting_key" gorm:"unique;not null"`
	SettingValue string    `json:"setting_value" gorm:"not null"`
	Description  string    `json:"description"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (SystemSettings) TableName() string {
	return "system_settings"
}

func (s *SystemSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
