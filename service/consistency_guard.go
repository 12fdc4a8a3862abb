package service

import (
	"context"
	"errors"

	"skillswap/metrics"
	"skillswap/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultGuardAttempts = 3

// MutateFunc computes the new pair state in place.
// It returns false when nothing needs to be written; an error aborts without writing.
type MutateFunc func(state *store.PairSnapshot) (bool, error)

// ConsistencyGuard runs read-modify-write cycles on one pair: load both records,
// mutate a copy, commit with compare-and-swap on the pair version and retry on conflict.
type ConsistencyGuard struct {
	store       store.Store
	locker      PairLocker // optional
	maxAttempts int
}

func NewConsistencyGuard(st store.Store, locker PairLocker, maxAttempts int) *ConsistencyGuard {
	if maxAttempts <= 0 {
		maxAttempts = defaultGuardAttempts
	}
	return &ConsistencyGuard{store: st, locker: locker, maxAttempts: maxAttempts}
}

// Apply returns the committed state, or the current state when fn made no change.
func (g *ConsistencyGuard) Apply(ctx context.Context, userID, peerID uuid.UUID, fn MutateFunc) (*store.PairSnapshot, error) {
	if g.locker != nil {
		unlock, err := g.locker.Lock(ctx, userID, peerID)
		if err != nil {
			if errors.Is(err, ErrLockTimeout) {
				return nil, newError(CodeConcurrencyConflict, "pair is busy, please retry", err)
			}
			return nil, internal("failed to lock pair", err)
		}
		defer unlock()
	}

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, internal("request cancelled", err)
		}

		before, err := g.store.LoadPair(ctx, userID, peerID)
		if err != nil {
			return nil, internal("failed to load match state", err)
		}

		after := before.Clone()
		changed, err := fn(after)
		if err != nil {
			return nil, err
		}
		if !changed {
			metrics.RecordGuardAttempts(attempt)
			return before, nil
		}

		err = g.store.SavePair(ctx, before, after)
		if err == nil {
			metrics.RecordGuardAttempts(attempt)
			after.Version = before.Version + 1
			return after, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return nil, internal("failed to save match state", err)
		}

		metrics.RecordGuardConflict(attempt == g.maxAttempts)
		log.Warn().
			Str("user_id", userID.String()).
			Str("peer_id", peerID.String()).
			Int("attempt", attempt).
			Msg("pair version conflict")
	}

	return nil, newError(CodeConcurrencyConflict, "concurrent update, please retry", store.ErrVersionConflict)
}
