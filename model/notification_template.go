package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationTemplate admin-editable wording of a notification type.
// Title and ContentTemplate accept {{peer_name}}, {{score}} and {{content}} placeholders.
type NotificationTemplate struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Type            string    `json:"type" gorm:"type:varchar(50);not null;uniqueIndex"` // 'match_request' | 'match_accepted' | 'system'
	Title           string    `json:"title" gorm:"type:varchar(200);not null"`
	ContentTemplate *string   `json:"content_template,omitempty" gorm:"type:text"`
	Priority        int       `json:"priority" gorm:"default:0"`
	EnableWebsocket bool      `json:"enable_websocket" gorm:"default:true"` // live push to online users
	IsActive        bool      `json:"is_active" gorm:"default:true"`
	Description     *string   `json:"description,omitempty" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (NotificationTemplate) TableName() string {
	return "notification_templates"
}

func (t *NotificationTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
