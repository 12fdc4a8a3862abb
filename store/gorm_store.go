package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skillswap/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore Store backed by gorm (postgres in production)
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates the tables owned by the matching engine
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(
		&model.UserProfile{},
		&model.MatchRecord{},
		&model.MatchPair{},
		&model.Connection{},
	)
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*model.UserProfile, error) {
	var user model.UserProfile
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *GormStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.UserProfile, error) {
	var users []model.UserProfile
	if len(ids) == 0 {
		return users, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return users, nil
}

func (s *GormStore) FindEligible(ctx context.Context, filter EligibleFilter) ([]model.UserProfile, error) {
	query := s.db.WithContext(ctx).
		Where("profile_complete = ? AND status <> ?", true, model.UserStatusBlocked)
	if len(filter.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", filter.ExcludeIDs)
	}

	var users []model.UserProfile
	if err := query.Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to query eligible users: %w", err)
	}
	return users, nil
}

func (s *GormStore) SaveProfile(ctx context.Context, profile *model.UserProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	if profile.Status == "" {
		profile.Status = model.UserStatusOffline
	}
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *GormStore) SetPresence(ctx context.Context, userID uuid.UUID, online bool, at time.Time) error {
	status := model.UserStatusOffline
	if online {
		status = model.UserStatusOnline
	}
	err := s.db.WithContext(ctx).Model(&model.UserProfile{}).
		Where("id = ? AND status <> ?", userID, model.UserStatusBlocked).
		Updates(map[string]interface{}{"status": status, "last_active": at}).Error
	if err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}
	return nil
}

func (s *GormStore) RecordsByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.MatchRecord, error) {
	var recs []model.MatchRecord
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).
		Order("updated_at DESC, id").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query match records: %w", err)
	}
	return recs, nil
}

func (s *GormStore) RecordsByCounterpart(ctx context.Context, counterpartID uuid.UUID, status string) ([]model.MatchRecord, error) {
	query := s.db.WithContext(ctx).Where("counterpart_id = ?", counterpartID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var recs []model.MatchRecord
	if err := query.Order("updated_at DESC, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to query inbound match records: %w", err)
	}
	return recs, nil
}

func (s *GormStore) ConnectionIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&model.Connection{}).
		Where("user_id = ?", userID).
		Order("peer_id").
		Pluck("peer_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	return ids, nil
}

func (s *GormStore) LoadPair(ctx context.Context, userID, peerID uuid.UUID) (*PairSnapshot, error) {
	db := s.db.WithContext(ctx)
	snap := &PairSnapshot{UserID: userID, PeerID: peerID}

	var recs []model.MatchRecord
	err := db.Where("(owner_id = ? AND counterpart_id = ?) OR (owner_id = ? AND counterpart_id = ?)",
		userID, peerID, peerID, userID).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load match records: %w", err)
	}
	for i := range recs {
		rec := recs[i]
		if rec.OwnerID == userID {
			snap.Forward = &rec
		} else {
			snap.Reverse = &rec
		}
	}

	low, high := model.OrderPair(userID, peerID)
	var pairs []model.MatchPair
	if err := db.Where("low_id = ? AND high_id = ?", low, high).Limit(1).Find(&pairs).Error; err != nil {
		return nil, fmt.Errorf("failed to load pair version: %w", err)
	}
	if len(pairs) > 0 {
		snap.Version = pairs[0].Version
	}

	var count int64
	err = db.Model(&model.Connection{}).
		Where("user_id = ? AND peer_id = ?", userID, peerID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load connection: %w", err)
	}
	snap.Connected = count > 0

	return snap, nil
}

func (s *GormStore) SavePair(ctx context.Context, before, after *PairSnapshot) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpPairVersion(tx, before, now); err != nil {
			return err
		}
		if err := saveRecord(tx, before.Forward, after.Forward, now); err != nil {
			return err
		}
		if err := saveRecord(tx, before.Reverse, after.Reverse, now); err != nil {
			return err
		}

		if before.Connected == after.Connected {
			return nil
		}
		if after.Connected {
			rows := []model.Connection{
				{UserID: after.UserID, PeerID: after.PeerID, CreatedAt: now},
				{UserID: after.PeerID, PeerID: after.UserID, CreatedAt: now},
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to create connection: %w", err)
			}
			return nil
		}
		err := tx.Where("(user_id = ? AND peer_id = ?) OR (user_id = ? AND peer_id = ?)",
			after.UserID, after.PeerID, after.PeerID, after.UserID).
			Delete(&model.Connection{}).Error
		if err != nil {
			return fmt.Errorf("failed to remove connection: %w", err)
		}
		return nil
	})
}

// bumpPairVersion compare-and-swap on the pair version row
func bumpPairVersion(tx *gorm.DB, before *PairSnapshot, now time.Time) error {
	low, high := model.OrderPair(before.UserID, before.PeerID)

	if before.Version == 0 {
		pair := model.MatchPair{LowID: low, HighID: high, Version: 1, UpdatedAt: now}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&pair)
		if result.Error != nil {
			return fmt.Errorf("failed to create pair version: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}
		return nil
	}

	result := tx.Model(&model.MatchPair{}).
		Where("low_id = ? AND high_id = ? AND version = ?", low, high, before.Version).
		Updates(map[string]interface{}{
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to bump pair version: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func saveRecord(tx *gorm.DB, before, after *model.MatchRecord, now time.Time) error {
	if after == nil || !recordChanged(before, after) {
		return nil
	}

	if before == nil {
		rec := *after
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if rec.UpdatedAt.IsZero() {
			rec.UpdatedAt = now
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to create match record: %w", err)
		}
		return nil
	}

	err := tx.Model(&model.MatchRecord{}).
		Where("id = ?", before.ID).
		Updates(map[string]interface{}{
			"status":       after.Status,
			"is_initiator": after.IsInitiator,
			"score":        after.Score,
			"updated_at":   after.UpdatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update match record: %w", err)
	}
	return nil
}
