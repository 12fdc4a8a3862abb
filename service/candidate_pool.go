package service

import (
	"context"
	"errors"

	"skillswap/model"
	"skillswap/store"

	"github.com/google/uuid"
)

// BlockLister user-level blocks, in either direction
type BlockLister interface {
	BlockedPeers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error)
}

// Pool requester plus the users eligible to be ranked for them
type Pool struct {
	Requester  *model.UserProfile
	Candidates []model.UserProfile
	Statuses   map[uuid.UUID]string // requester's pending records toward candidates
}

// CandidatePoolBuilder selects eligible candidates for a requester
type CandidatePoolBuilder struct {
	store  store.Store
	blocks BlockLister // optional
}

func NewCandidatePoolBuilder(st store.Store, blocks BlockLister) *CandidatePoolBuilder {
	return &CandidatePoolBuilder{store: st, blocks: blocks}
}

// BuildPool eligible users minus self, connections, users the requester
// already answered (rejected or accepted) and blocks in either direction.
func (b *CandidatePoolBuilder) BuildPool(ctx context.Context, requesterID uuid.UUID) (*Pool, error) {
	requester, err := b.store.FindByID(ctx, requesterID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("user %s not found", requesterID)
	}
	if err != nil {
		return nil, internal("failed to load user", err)
	}

	exclude := []uuid.UUID{requesterID}

	connections, err := b.store.ConnectionIDs(ctx, requesterID)
	if err != nil {
		return nil, internal("failed to load connections", err)
	}
	exclude = append(exclude, connections...)

	records, err := b.store.RecordsByOwner(ctx, requesterID)
	if err != nil {
		return nil, internal("failed to load match records", err)
	}
	statuses := make(map[uuid.UUID]string)
	for _, rec := range records {
		if rec.Status == model.MatchPending {
			statuses[rec.CounterpartID] = rec.Status
			continue
		}
		exclude = append(exclude, rec.CounterpartID)
	}

	if b.blocks != nil {
		blocked, err := b.blocks.BlockedPeers(ctx, requesterID)
		if err != nil {
			return nil, internal("failed to load blocked users", err)
		}
		exclude = append(exclude, blocked...)
	}

	candidates, err := b.store.FindEligible(ctx, store.EligibleFilter{ExcludeIDs: exclude})
	if err != nil {
		return nil, internal("failed to load candidates", err)
	}

	return &Pool{Requester: requester, Candidates: candidates, Statuses: statuses}, nil
}
