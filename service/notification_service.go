package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"skillswap/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type NotificationService struct {
	db          *gorm.DB
	users       ProfileFinder
	settings    SettingsReader   // optional, notifications on when nil
	templates   TemplateRenderer // optional, built-in wording when nil
	hubNotifier HubNotifier      // Interface to send WebSocket notifications
}

// HubNotifier pushes payloads to connected websocket clients
type HubNotifier interface {
	SendNotification(userID uuid.UUID, notification interface{}) bool
	IsUserOnline(userID uuid.UUID) bool
}

// ProfileFinder looks up user profiles
type ProfileFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.UserProfile, error)
}

// SettingsReader runtime feature toggles
type SettingsReader interface {
	GetBoolSetting(key string, defaultValue bool) bool
}

// NotificationSummary unread count plus the newest notification time
type NotificationSummary struct {
	UnreadCount     int        `json:"unread_count"`
	LatestNotifTime *time.Time `json:"latest_notif_time"`
}

func NewNotificationService(db *gorm.DB, users ProfileFinder, settings SettingsReader) *NotificationService {
	return &NotificationService{
		db:       db,
		users:    users,
		settings: settings,
	}
}

// SetHubNotifier injects the websocket hub
func (s *NotificationService) SetHubNotifier(notifier HubNotifier) {
	s.hubNotifier = notifier
}

// SetTemplateRenderer makes match notifications use the admin templates
func (s *NotificationService) SetTemplateRenderer(templates TemplateRenderer) {
	s.templates = templates
}

// CreateNotification persists a notification and pushes it to the user if online
func (s *NotificationService) CreateNotification(ctx context.Context, userID uuid.UUID, notifType, title string, content *string, metadata *model.NotificationMetadata, priority int, expiresAt *time.Time) (*model.Notification, error) {
	return s.createNotification(ctx, userID, notifType, title, content, metadata, priority, expiresAt, true)
}

func (s *NotificationService) createNotification(ctx context.Context, userID uuid.UUID, notifType, title string, content *string, metadata *model.NotificationMetadata, priority int, expiresAt *time.Time, push bool) (*model.Notification, error) {
	notification := &model.Notification{
		UserID:           userID,
		NotificationType: notifType,
		Title:            title,
		Content:          content,
		IsRead:           false,
		Priority:         priority,
		ExpiresAt:        expiresAt,
	}

	if metadata != nil {
		metadataBytes, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("invalid metadata: %w", err)
		}
		notification.Metadata = metadataBytes
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	// push only to online users, the inbox keeps the rest
	if push && s.hubNotifier != nil && s.hubNotifier.IsUserOnline(userID) {
		s.hubNotifier.SendNotification(userID, notification)
	}

	return notification, nil
}

// PublishMatchEvent turns match events into inbox notifications
func (s *NotificationService) PublishMatchEvent(ctx context.Context, event MatchEvent) error {
	if s.settings != nil && !s.settings.GetBoolSetting(model.SettingMatchNotifications, true) {
		return nil
	}

	switch event.Type {
	case EventMatchRequest:
		actor := s.peerName(ctx, event.UserA)
		msg := s.render(ctx, model.NotificationMatchRequest, actor, event.Score, RenderedNotification{
			Title:    "New match request",
			Content:  stringPtr(fmt.Sprintf("%s wants to swap skills with you", actor)),
			Priority: 1,
		})
		_, err := s.createNotification(ctx, event.UserB, model.NotificationMatchRequest,
			msg.Title, msg.Content, s.matchMetadata(event.UserA, actor, event.Score), msg.Priority, nil, msg.EnableWebsocket)
		return err

	case EventMutualMatch:
		var errs []error
		for _, pair := range [][2]uuid.UUID{{event.UserA, event.UserB}, {event.UserB, event.UserA}} {
			peer := s.peerName(ctx, pair[1])
			msg := s.render(ctx, model.NotificationMatchAccepted, peer, event.Score, RenderedNotification{
				Title:    "It's a match!",
				Content:  stringPtr(fmt.Sprintf("You and %s are now connected", peer)),
				Priority: 2,
			})
			_, err := s.createNotification(ctx, pair[0], model.NotificationMatchAccepted,
				msg.Title, msg.Content, s.matchMetadata(pair[1], peer, event.Score), msg.Priority, nil, msg.EnableWebsocket)
			errs = append(errs, err)
		}
		return errors.Join(errs...)

	default:
		return nil
	}
}

// render uses the active template of notifType, or fallback when there is none
func (s *NotificationService) render(ctx context.Context, notifType, peerName string, score float64, fallback RenderedNotification) RenderedNotification {
	if s.templates != nil {
		vars := map[string]string{
			"peer_name": peerName,
			"score":     strconv.FormatFloat(score, 'f', 2, 64),
		}
		if msg, ok := s.templates.Render(ctx, notifType, vars); ok {
			return msg
		}
	}
	fallback.EnableWebsocket = true
	return fallback
}

func (s *NotificationService) peerName(ctx context.Context, id uuid.UUID) string {
	if s.users == nil {
		return "Someone"
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil || user.Name == "" {
		if err != nil {
			log.Debug().Err(err).Str("user_id", id.String()).Msg("failed to resolve peer name")
		}
		return "Someone"
	}
	return user.Name
}

func (s *NotificationService) matchMetadata(peerID uuid.UUID, peerName string, score float64) *model.NotificationMetadata {
	return &model.NotificationMetadata{
		LinkURL:  "/matches",
		PeerID:   &peerID,
		PeerName: peerName,
		Score:    score,
	}
}

// GetNotifications user's notifications, important and newest first
func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]model.Notification, error) {
	var notifications []model.Notification

	query := s.db.WithContext(ctx).
		Where("user_id = ? AND (expires_at IS NULL OR expires_at > ?)", userID, time.Now())

	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	err := query.Order("priority DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error

	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}

	return notifications, nil
}

// GetNotificationDetail returns one notification and marks it read
func (s *NotificationService) GetNotificationDetail(ctx context.Context, userID, notificationID uuid.UUID) (*model.Notification, error) {
	db := s.db.WithContext(ctx)

	var notification model.Notification
	if err := db.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("notification not found")
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	if !notification.IsRead {
		now := time.Now()
		notification.IsRead = true
		notification.ReadAt = &now

		if err := db.Model(&notification).Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
			// still return the content when only the read mark failed
			log.Warn().Err(err).Str("notification_id", notificationID.String()).Msg("failed to mark notification read")
		}
	}

	return &notification, nil
}

// MarkAllAsRead marks every unread notification of the user as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// GetUnreadCount number of unread, unexpired notifications
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ? AND (expires_at IS NULL OR expires_at > ?)", userID, false, time.Now()).
		Count(&count).Error

	return int(count), err
}

// GetNotificationSummary unread count plus latest notification time
func (s *NotificationService) GetNotificationSummary(ctx context.Context, userID uuid.UUID) (*NotificationSummary, error) {
	unread, err := s.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	var latest model.Notification
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND (expires_at IS NULL OR expires_at > ?)", userID, time.Now()).
		Order("created_at DESC").
		Limit(1).
		Find(&latest)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query latest notification: %w", result.Error)
	}

	summary := &NotificationSummary{UnreadCount: unread}
	if result.RowsAffected > 0 {
		summary.LatestNotifTime = &latest.CreatedAt
	}
	return summary, nil
}

// DeleteNotification deletes one of the user's notifications
func (s *NotificationService) DeleteNotification(ctx context.Context, userID, notificationID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&model.Notification{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return notFound("notification not found")
	}

	return nil
}

// BatchSendNotification sends one system notification to each listed user
func (s *NotificationService) BatchSendNotification(ctx context.Context, userIDs []uuid.UUID, title string, content *string, priority int) (int, error) {
	if len(userIDs) == 0 {
		return 0, validation("user_ids is required")
	}

	successCount := 0
	for _, userID := range userIDs {
		if _, err := s.CreateNotification(ctx, userID, model.NotificationSystem, title, content, nil, priority, nil); err != nil {
			// keep going for the remaining users
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to send system notification")
			continue
		}
		successCount++
	}

	return successCount, nil
}
