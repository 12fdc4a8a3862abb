package service

import (
	"context"
	"fmt"

	"skillswap/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RelationshipService struct {
	db *gorm.DB
}

func NewRelationshipService(db *gorm.DB) *RelationshipService {
	return &RelationshipService{db: db}
}

// BlockUser hides both users from each other's matching
func (s *RelationshipService) BlockUser(ctx context.Context, userID, targetUserID uuid.UUID) error {
	if userID == targetUserID {
		return validation("cannot block yourself")
	}

	blocked, err := s.IsBlocked(ctx, userID, targetUserID)
	if err != nil {
		return internal("failed to check relationship", err)
	}
	if blocked {
		return invalidState("user already blocked")
	}

	relationship := &model.UserRelationship{
		UserID:           userID,
		TargetUserID:     targetUserID,
		RelationshipType: model.RelationshipBlocked,
	}
	if err := s.db.WithContext(ctx).Create(relationship).Error; err != nil {
		return internal("failed to block user", err)
	}

	return nil
}

// UnblockUser removes a block created by userID
func (s *RelationshipService) UnblockUser(ctx context.Context, userID, targetUserID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND target_user_id = ? AND relationship_type = ?", userID, targetUserID, model.RelationshipBlocked).
		Delete(&model.UserRelationship{})

	if result.Error != nil {
		return internal("failed to unblock user", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("user not blocked")
	}

	return nil
}

// GetBlockedUsers blocks created by userID, newest first
func (s *RelationshipService) GetBlockedUsers(ctx context.Context, userID uuid.UUID) ([]model.UserRelationship, error) {
	var relationships []model.UserRelationship
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND relationship_type = ?", userID, model.RelationshipBlocked).
		Order("created_at DESC").
		Find(&relationships).Error

	if err != nil {
		return nil, internal("failed to query blocked users", err)
	}

	return relationships, nil
}

// IsBlocked reports whether userID blocked targetUserID
func (s *RelationshipService) IsBlocked(ctx context.Context, userID, targetUserID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.UserRelationship{}).
		Where("user_id = ? AND target_user_id = ? AND relationship_type = ?", userID, targetUserID, model.RelationshipBlocked).
		Count(&count).Error

	return count > 0, err
}

// IsBlockedEither reports a block in either direction
func (s *RelationshipService) IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.UserRelationship{}).
		Where("relationship_type = ?", model.RelationshipBlocked).
		Where("(user_id = ? AND target_user_id = ?) OR (user_id = ? AND target_user_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check block: %w", err)
	}
	return count > 0, nil
}

// BlockedPeers users blocked by userID or blocking userID
func (s *RelationshipService) BlockedPeers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var rels []model.UserRelationship
	err := s.db.WithContext(ctx).
		Where("relationship_type = ?", model.RelationshipBlocked).
		Where("user_id = ? OR target_user_id = ?", userID, userID).
		Find(&rels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query blocks: %w", err)
	}

	peers := make([]uuid.UUID, 0, len(rels))
	for _, rel := range rels {
		if rel.UserID == userID {
			peers = append(peers, rel.TargetUserID)
		} else {
			peers = append(peers, rel.UserID)
		}
	}
	return peers, nil
}
