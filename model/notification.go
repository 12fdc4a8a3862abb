package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types
const (
	NotificationMatchRequest  = "match_request"
	NotificationMatchAccepted = "match_accepted"
	NotificationSystem        = "system"
)

// Notification notification inbox row
type Notification struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	NotificationType string          `json:"notification_type" gorm:"type:varchar(30);not null"` // 'match_request' | 'match_accepted' | 'system'
	Title            string          `json:"title" gorm:"type:varchar(200);not null"`
	Content          *string         `json:"content,omitempty" gorm:"type:text"`
	Metadata         json.RawMessage `json:"metadata,omitempty" gorm:"type:jsonb"`
	IsRead           bool            `json:"is_read" gorm:"default:false"`
	ReadAt           *time.Time      `json:"read_at,omitempty"`
	Priority         int             `json:"priority" gorm:"default:0"` // 0 normal, 1 important, 2 urgent
	CreatedAt        time.Time       `json:"created_at" gorm:"autoCreateTime"`
	ExpiresAt        *time.Time      `json:"expires_at,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// NotificationMetadata parsed form of the metadata column
type NotificationMetadata struct {
	LinkURL string `json:"link_url,omitempty"`

	// counterpart of the match event
	PeerID   *uuid.UUID `json:"peer_id,omitempty"`
	PeerName string     `json:"peer_name,omitempty"`
	Score    float64    `json:"score,omitempty"`
}
