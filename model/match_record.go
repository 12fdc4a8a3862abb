package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Match record statuses
const (
	MatchPending  = "pending"
	MatchAccepted = "accepted"
	MatchRejected = "rejected"
)

// MatchRecord one user's interest state toward another (one row per ordered pair)
type MatchRecord struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID       uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;uniqueIndex:ux_match_owner_counterpart,priority:1"`
	CounterpartID uuid.UUID `json:"counterpart_id" gorm:"type:uuid;not null;uniqueIndex:ux_match_owner_counterpart,priority:2;index"`
	Status        string    `json:"status" gorm:"type:varchar(20);not null"` // 'pending' | 'accepted' | 'rejected'
	IsInitiator   bool      `json:"is_initiator" gorm:"default:false"`
	Score         float64   `json:"score" gorm:"default:0"` // informational, set at creation
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (MatchRecord) TableName() string {
	return "match_records"
}

func (m *MatchRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MatchPair concurrency token for an unordered pair of users
// LowID/HighID are ordered by their string form.
type MatchPair struct {
	LowID     uuid.UUID `json:"low_id" gorm:"type:uuid;primaryKey"`
	HighID    uuid.UUID `json:"high_id" gorm:"type:uuid;primaryKey"`
	Version   int64     `json:"version" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MatchPair) TableName() string {
	return "match_pairs"
}

// Connection one direction of the symmetric connection relation
type Connection struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	PeerID    uuid.UUID `json:"peer_id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
}

func (Connection) TableName() string {
	return "connections"
}

// OrderPair returns the pair ordered by string form
func OrderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}
