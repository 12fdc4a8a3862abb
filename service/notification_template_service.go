package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"skillswap/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RenderedNotification a template filled with event values
type RenderedNotification struct {
	Title           string
	Content         *string
	Priority        int
	EnableWebsocket bool
}

// TemplateRenderer renders the active template of a notification type.
// ok is false when no active template exists.
type TemplateRenderer interface {
	Render(ctx context.Context, notifType string, vars map[string]string) (RenderedNotification, bool)
}

// templateFields columns admins may change
var templateFields = map[string]bool{
	"title":            true,
	"content_template": true,
	"priority":         true,
	"enable_websocket": true,
	"is_active":        true,
	"description":      true,
}

type NotificationTemplateService struct {
	db *gorm.DB
}

func NewNotificationTemplateService(db *gorm.DB) *NotificationTemplateService {
	return &NotificationTemplateService{db: db}
}

// GetTemplate active template of notifType
func (s *NotificationTemplateService) GetTemplate(ctx context.Context, notifType string) (*model.NotificationTemplate, error) {
	var template model.NotificationTemplate
	err := s.db.WithContext(ctx).Where("type = ? AND is_active = ?", notifType, true).First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("template %s not found", notifType)
	}
	if err != nil {
		return nil, internal("failed to load template", err)
	}
	return &template, nil
}

// RenderTemplate replaces {{key}} placeholders
func RenderTemplate(template string, vars map[string]string) string {
	result := template
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

func (s *NotificationTemplateService) Render(ctx context.Context, notifType string, vars map[string]string) (RenderedNotification, bool) {
	template, err := s.GetTemplate(ctx, notifType)
	if err != nil {
		return RenderedNotification{}, false
	}

	rendered := RenderedNotification{
		Title:           RenderTemplate(template.Title, vars),
		Priority:        template.Priority,
		EnableWebsocket: template.EnableWebsocket,
	}
	if template.ContentTemplate != nil {
		content := RenderTemplate(*template.ContentTemplate, vars)
		rendered.Content = &content
	}
	return rendered, true
}

func (s *NotificationTemplateService) CreateTemplate(ctx context.Context, req *model.NotificationTemplate) (*model.NotificationTemplate, error) {
	if req.Type == "" || req.Title == "" {
		return nil, validation("type and title are required")
	}
	if req.Priority < 0 || req.Priority > 2 {
		return nil, validation("priority must be 0, 1 or 2")
	}
	req.ID = uuid.Nil

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.NotificationTemplate{}).Where("type = ?", req.Type).Count(&count).Error; err != nil {
		return nil, internal("failed to check template", err)
	}
	if count > 0 {
		return nil, invalidState("template %s already exists", req.Type)
	}

	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, internal("failed to create template", err)
	}
	return req, nil
}

// UpdateTemplate applies a partial update limited to the editable columns
func (s *NotificationTemplateService) UpdateTemplate(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return validation("no fields to update")
	}
	for field := range updates {
		if !templateFields[field] {
			return validation("field %s cannot be updated", field)
		}
	}

	result := s.db.WithContext(ctx).Model(&model.NotificationTemplate{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return internal("failed to update template", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("template not found")
	}
	return nil
}

func (s *NotificationTemplateService) ListTemplates(ctx context.Context) ([]model.NotificationTemplate, error) {
	var templates []model.NotificationTemplate
	if err := s.db.WithContext(ctx).Order("type ASC").Find(&templates).Error; err != nil {
		return nil, internal("failed to list templates", err)
	}
	return templates, nil
}

func (s *NotificationTemplateService) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&model.NotificationTemplate{}, "id = ?", id)
	if result.Error != nil {
		return internal("failed to delete template", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("template not found")
	}
	return nil
}

// InitDefaultTemplates creates the built-in templates that are missing
func (s *NotificationTemplateService) InitDefaultTemplates(ctx context.Context) error {
	defaultTemplates := []model.NotificationTemplate{
		{
			Type:            model.NotificationMatchRequest,
			Title:           "New match request",
			ContentTemplate: stringPtr("{{peer_name}} wants to swap skills with you"),
			Priority:        1,
			EnableWebsocket: true,
			IsActive:        true,
			Description:     stringPtr("Someone liked or requested the user"),
		},
		{
			Type:            model.NotificationMatchAccepted,
			Title:           "It's a match!",
			ContentTemplate: stringPtr("You and {{peer_name}} are now connected"),
			Priority:        2,
			EnableWebsocket: true,
			IsActive:        true,
			Description:     stringPtr("Both users accepted each other"),
		},
		{
			Type:            model.NotificationSystem,
			Title:           "System Notification",
			ContentTemplate: stringPtr("{{content}}"),
			Priority:        1,
			EnableWebsocket: true,
			IsActive:        true,
			Description:     stringPtr("Announcements sent by admins"),
		},
	}

	for _, template := range defaultTemplates {
		t := template
		err := s.db.WithContext(ctx).Where("type = ?", t.Type).FirstOrCreate(&t).Error
		if err != nil {
			return fmt.Errorf("failed to create default template %s: %w", template.Type, err)
		}
	}

	return nil
}

func stringPtr(s string) *string {
	return &s
}
