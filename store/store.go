package store

import (
	"context"
	"errors"
	"time"

	"skillswap/model"

	"github.com/google/uuid"
)

var (
	// ErrNotFound no user with the given id
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict the pair changed between LoadPair and SavePair
	ErrVersionConflict = errors.New("pair version conflict")
)

// EligibleFilter selection predicate for candidate users.
// Candidates always have a complete profile and a non-blocked status.
type EligibleFilter struct {
	ExcludeIDs []uuid.UUID
}

// PairSnapshot match state of an unordered pair, seen from UserID.
type PairSnapshot struct {
	UserID    uuid.UUID
	PeerID    uuid.UUID
	Forward   *model.MatchRecord // UserID -> PeerID, nil if absent
	Reverse   *model.MatchRecord // PeerID -> UserID, nil if absent
	Connected bool
	Version   int64 // 0 when the pair has never been written
}

// Clone deep copy, records included
func (p *PairSnapshot) Clone() *PairSnapshot {
	c := *p
	if p.Forward != nil {
		f := *p.Forward
		c.Forward = &f
	}
	if p.Reverse != nil {
		r := *p.Reverse
		c.Reverse = &r
	}
	return &c
}

// Store user store plus match state persistence
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.UserProfile, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.UserProfile, error)
	FindEligible(ctx context.Context, filter EligibleFilter) ([]model.UserProfile, error)
	SaveProfile(ctx context.Context, profile *model.UserProfile) error
	SetPresence(ctx context.Context, userID uuid.UUID, online bool, at time.Time) error

	RecordsByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.MatchRecord, error)
	RecordsByCounterpart(ctx context.Context, counterpartID uuid.UUID, status string) ([]model.MatchRecord, error)
	ConnectionIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// LoadPair reads both records, the connection flag and the pair version.
	LoadPair(ctx context.Context, userID, peerID uuid.UUID) (*PairSnapshot, error)
	// SavePair writes every difference between before and after atomically,
	// provided the pair version still equals before.Version. Otherwise it
	// returns ErrVersionConflict and writes nothing.
	SavePair(ctx context.Context, before, after *PairSnapshot) error
}

func recordChanged(before, after *model.MatchRecord) bool {
	if before == nil || after == nil {
		return before != after
	}
	return before.Status != after.Status ||
		before.IsInitiator != after.IsInitiator ||
		before.Score != after.Score ||
		!before.UpdatedAt.Equal(after.UpdatedAt)
}
