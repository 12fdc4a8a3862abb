package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User status values
const (
	UserStatusOnline  = "online"
	UserStatusOffline = "offline"
	UserStatusBlocked = "blocked"
)

// SubjectSkill a subject with a level (proficiency for teach lists, desired level for learn lists)
type SubjectSkill struct {
	Subject string `json:"subject"`
	Level   int    `json:"level"` // 1..5
}

// SubjectList JSON column holding an ordered list of subjects
type SubjectList []SubjectSkill

// Value implements driver.Valuer
func (l SubjectList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *SubjectList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = SubjectList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported subject list type %T", value)
	}
	if len(data) == 0 {
		*l = SubjectList{}
		return nil
	}
	return json.Unmarshal(data, l)
}

// UserProfile user profile as seen by the matching engine
type UserProfile struct {
	ID              uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Name            string      `json:"name" gorm:"type:varchar(100)"`
	Email           string      `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	Bio             string      `json:"bio" gorm:"type:text"`
	ProfileImage    string      `json:"profile_image" gorm:"type:varchar(500)"`
	TeachSubjects   SubjectList `json:"teach_subjects" gorm:"type:text"`
	LearnSubjects   SubjectList `json:"learn_subjects" gorm:"type:text"`
	Status          string      `json:"status" gorm:"type:varchar(20);default:offline;index"` // 'online' | 'offline' | 'blocked'
	ProfileComplete bool        `json:"profile_complete" gorm:"default:false;index"`
	LastActive      time.Time   `json:"last_active"`
	CreatedAt       time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// UserSummary public subset of a profile returned in match listings
type UserSummary struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Bio           string      `json:"bio"`
	ProfileImage  string      `json:"profile_image"`
	TeachSubjects SubjectList `json:"teach_subjects,omitempty"`
	LearnSubjects SubjectList `json:"learn_subjects,omitempty"`
	LastActive    time.Time   `json:"last_active"`
}

// Summary builds the public summary of the profile
func (u *UserProfile) Summary() UserSummary {
	return UserSummary{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Bio:           u.Bio,
		ProfileImage:  u.ProfileImage,
		TeachSubjects: u.TeachSubjects,
		LearnSubjects: u.LearnSubjects,
		LastActive:    u.LastActive,
	}
}
