package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RelationshipBlocked user-level block between two users
const RelationshipBlocked = "blocked"

// UserRelationship user relationship table
type UserRelationship struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	TargetUserID     uuid.UUID `json:"target_user_id" gorm:"type:uuid;not null;index"`
	RelationshipType string    `json:"relationship_type" gorm:"type:varchar(20);not null"` // 'blocked'
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (UserRelationship) TableName() string {
	return "user_relationships"
}

func (r *UserRelationship) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
