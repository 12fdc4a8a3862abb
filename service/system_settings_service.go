package service

import (
	"context"
	"fmt"
	"sync"

	"skillswap/model"

	"gorm.io/gorm"
)

// defaultSettings toggles created on first start
var defaultSettings = []model.SystemSettings{
	{SettingKey: model.SettingOnlineStatus, SettingValue: "true", Description: "Track online presence in redis"},
	{SettingKey: model.SettingMatchNotifications, SettingValue: "true", Description: "Persist match request and match accepted notifications"},
}

// SystemSettingsService runtime settings backed by the database with an in-memory cache
type SystemSettingsService struct {
	db              *gorm.DB
	settingsCache   map[string]string
	settingsCacheMu sync.RWMutex
}

func NewSystemSettingsService(db *gorm.DB) *SystemSettingsService {
	return &SystemSettingsService{
		db:            db,
		settingsCache: make(map[string]string),
	}
}

// SeedDefaults inserts missing default settings and loads the cache
func (s *SystemSettingsService) SeedDefaults(ctx context.Context) error {
	for _, def := range defaultSettings {
		setting := def
		err := s.db.WithContext(ctx).
			Where("setting_key = ?", setting.SettingKey).
			Attrs(model.SystemSettings{SettingValue: setting.SettingValue, Description: setting.Description}).
			FirstOrCreate(&setting).Error
		if err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", def.SettingKey, err)
		}
	}
	return s.LoadSettings(ctx)
}

// LoadSettings reloads every setting into the cache
func (s *SystemSettingsService) LoadSettings(ctx context.Context) error {
	var settings []model.SystemSettings
	if err := s.db.WithContext(ctx).Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load system settings: %w", err)
	}

	cache := make(map[string]string, len(settings))
	for _, setting := range settings {
		cache[setting.SettingKey] = setting.SettingValue
	}

	s.settingsCacheMu.Lock()
	s.settingsCache = cache
	s.settingsCacheMu.Unlock()

	return nil
}

// GetSetting cached value of key
func (s *SystemSettingsService) GetSetting(key string) (string, bool) {
	s.settingsCacheMu.RLock()
	defer s.settingsCacheMu.RUnlock()

	value, exists := s.settingsCache[key]
	return value, exists
}

func (s *SystemSettingsService) GetBoolSetting(key string, defaultValue bool) bool {
	value, exists := s.GetSetting(key)
	if !exists {
		return defaultValue
	}
	return value == "true"
}

// IsFeatureEnabled unknown features are off
func (s *SystemSettingsService) IsFeatureEnabled(featureKey string) bool {
	return s.GetBoolSetting(featureKey, false)
}

// UpdateSetting writes the database first, then the cache
func (s *SystemSettingsService) UpdateSetting(ctx context.Context, key, value string) error {
	result := s.db.WithContext(ctx).Model(&model.SystemSettings{}).
		Where("setting_key = ?", key).
		Update("setting_value", value)

	if result.Error != nil {
		return internal("failed to update setting", result.Error)
	}

	if result.RowsAffected == 0 {
		return notFound("setting key not found: %s", key)
	}

	s.settingsCacheMu.Lock()
	s.settingsCache[key] = value
	s.settingsCacheMu.Unlock()

	return nil
}

// GetAllSettings copy of the cache
func (s *SystemSettingsService) GetAllSettings() map[string]string {
	s.settingsCacheMu.RLock()
	defer s.settingsCacheMu.RUnlock()

	result := make(map[string]string, len(s.settingsCache))
	for k, v := range s.settingsCache {
		result[k] = v
	}

	return result
}
