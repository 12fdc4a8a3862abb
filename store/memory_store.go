package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"skillswap/model"

	"github.com/google/uuid"
)

type ownedPair struct {
	owner       uuid.UUID
	counterpart uuid.UUID
}

type pairKey struct {
	low  uuid.UUID
	high uuid.UUID
}

func newPairKey(a, b uuid.UUID) pairKey {
	low, high := model.OrderPair(a, b)
	return pairKey{low: low, high: high}
}

// MemoryStore in-process Store, all state behind a single mutex
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]model.UserProfile
	records     map[ownedPair]model.MatchRecord
	versions    map[pairKey]int64
	connections map[uuid.UUID]map[uuid.UUID]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[uuid.UUID]model.UserProfile),
		records:     make(map[ownedPair]model.MatchRecord),
		versions:    make(map[pairKey]int64),
		connections: make(map[uuid.UUID]map[uuid.UUID]time.Time),
	}
}

func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]model.UserProfile, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (s *MemoryStore) FindEligible(ctx context.Context, filter EligibleFilter) ([]model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	excluded := make(map[uuid.UUID]struct{}, len(filter.ExcludeIDs))
	for _, id := range filter.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	users := make([]model.UserProfile, 0, len(s.users))
	for id, u := range s.users {
		if _, skip := excluded[id]; skip {
			continue
		}
		if !u.ProfileComplete || u.Status == model.UserStatusBlocked {
			continue
		}
		users = append(users, u)
	}
	// map iteration order is random
	sort.Slice(users, func(i, j int) bool { return users[i].ID.String() < users[j].ID.String() })
	return users, nil
}

func (s *MemoryStore) SaveProfile(ctx context.Context, profile *model.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	if profile.Status == "" {
		profile.Status = model.UserStatusOffline
	}
	s.users[profile.ID] = *profile
	return nil
}

func (s *MemoryStore) SetPresence(ctx context.Context, userID uuid.UUID, online bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok || u.Status == model.UserStatusBlocked {
		return nil
	}
	u.Status = model.UserStatusOffline
	if online {
		u.Status = model.UserStatusOnline
	}
	u.LastActive = at
	s.users[userID] = u
	return nil
}

func (s *MemoryStore) RecordsByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.MatchRecord
	for k, rec := range s.records {
		if k.owner == ownerID {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) RecordsByCounterpart(ctx context.Context, counterpartID uuid.UUID, status string) ([]model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.MatchRecord
	for k, rec := range s.records {
		if k.counterpart == counterpartID && (status == "" || rec.Status == status) {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) ConnectionIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	peers := s.connections[userID]
	ids := make([]uuid.UUID, 0, len(peers))
	for id := range peers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (s *MemoryStore) LoadPair(ctx context.Context, userID, peerID uuid.UUID) (*PairSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &PairSnapshot{
		UserID:  userID,
		PeerID:  peerID,
		Version: s.versions[newPairKey(userID, peerID)],
	}
	if rec, ok := s.records[ownedPair{owner: userID, counterpart: peerID}]; ok {
		snap.Forward = &rec
	}
	if rec, ok := s.records[ownedPair{owner: peerID, counterpart: userID}]; ok {
		snap.Reverse = &rec
	}
	_, snap.Connected = s.connections[userID][peerID]
	return snap, nil
}

func (s *MemoryStore) SavePair(ctx context.Context, before, after *PairSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := newPairKey(before.UserID, before.PeerID)
	if s.versions[key] != before.Version {
		return ErrVersionConflict
	}

	now := time.Now()
	s.putRecord(before.Forward, after.Forward, now)
	s.putRecord(before.Reverse, after.Reverse, now)

	if before.Connected != after.Connected {
		if after.Connected {
			s.link(after.UserID, after.PeerID, now)
			s.link(after.PeerID, after.UserID, now)
		} else {
			delete(s.connections[after.UserID], after.PeerID)
			delete(s.connections[after.PeerID], after.UserID)
		}
	}

	s.versions[key] = before.Version + 1
	return nil
}

func (s *MemoryStore) putRecord(before, after *model.MatchRecord, now time.Time) {
	if after == nil || !recordChanged(before, after) {
		return
	}
	rec := *after
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	s.records[ownedPair{owner: rec.OwnerID, counterpart: rec.CounterpartID}] = rec
}

func (s *MemoryStore) link(userID, peerID uuid.UUID, at time.Time) {
	if s.connections[userID] == nil {
		s.connections[userID] = make(map[uuid.UUID]time.Time)
	}
	s.connections[userID][peerID] = at
}

func sortRecords(recs []model.MatchRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].UpdatedAt.Equal(recs[j].UpdatedAt) {
			return recs[i].UpdatedAt.After(recs[j].UpdatedAt)
		}
		return recs[i].ID.String() < recs[j].ID.String()
	})
}
