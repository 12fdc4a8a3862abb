package store

import (
	"context"
	"testing"
	"time"

	"skillswap/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite behaviour shared by every Store implementation
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("FindByID", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		u := seedUser(t, s, "alice", true)
		got, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Name)
		assert.Equal(t, model.UserStatusOffline, got.Status)
		require.Len(t, got.TeachSubjects, 1)
		assert.Equal(t, "go", got.TeachSubjects[0].Subject)

		_, err = s.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("FindEligible", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a := seedUser(t, s, "a", true)
		b := seedUser(t, s, "b", true)
		seedUser(t, s, "incomplete", false)
		blocked := &model.UserProfile{Name: "blocked", Email: "blocked@test.local", ProfileComplete: true, Status: model.UserStatusBlocked}
		require.NoError(t, s.SaveProfile(ctx, blocked))

		users, err := s.FindEligible(ctx, EligibleFilter{ExcludeIDs: []uuid.UUID{a.ID}})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, b.ID, users[0].ID)
	})

	t.Run("SetPresence", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		at := time.Now().Add(-time.Minute).UTC()

		u := seedUser(t, s, "online", true)
		require.NoError(t, s.SetPresence(ctx, u.ID, true, at))
		got, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, model.UserStatusOnline, got.Status)
		assert.WithinDuration(t, at, got.LastActive, time.Second)

		blocked := &model.UserProfile{Name: "blocked", Email: "b2@test.local", ProfileComplete: true, Status: model.UserStatusBlocked}
		require.NoError(t, s.SaveProfile(ctx, blocked))
		require.NoError(t, s.SetPresence(ctx, blocked.ID, true, at))
		got, err = s.FindByID(ctx, blocked.ID)
		require.NoError(t, err)
		assert.Equal(t, model.UserStatusBlocked, got.Status)
	})

	t.Run("SavePairLifecycle", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := seedUser(t, s, "a", true)
		b := seedUser(t, s, "b", true)

		before, err := s.LoadPair(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.Nil(t, before.Forward)
		assert.Nil(t, before.Reverse)
		assert.False(t, before.Connected)
		assert.Equal(t, int64(0), before.Version)

		// a likes b
		after := before.Clone()
		after.Forward = &model.MatchRecord{OwnerID: a.ID, CounterpartID: b.ID, Status: model.MatchPending, IsInitiator: true, Score: 0.5}
		require.NoError(t, s.SavePair(ctx, before, after))

		inbound, err := s.RecordsByCounterpart(ctx, b.ID, model.MatchPending)
		require.NoError(t, err)
		require.Len(t, inbound, 1)
		assert.Equal(t, a.ID, inbound[0].OwnerID)

		// b accepts, seen from b
		before, err = s.LoadPair(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), before.Version)
		require.NotNil(t, before.Reverse)
		assert.True(t, before.Reverse.IsInitiator)

		after = before.Clone()
		now := time.Now()
		after.Forward = &model.MatchRecord{OwnerID: b.ID, CounterpartID: a.ID, Status: model.MatchAccepted, UpdatedAt: now}
		after.Reverse.Status = model.MatchAccepted
		after.Reverse.UpdatedAt = now
		after.Connected = true
		require.NoError(t, s.SavePair(ctx, before, after))

		for _, pair := range [][2]uuid.UUID{{a.ID, b.ID}, {b.ID, a.ID}} {
			ids, err := s.ConnectionIDs(ctx, pair[0])
			require.NoError(t, err)
			assert.Equal(t, []uuid.UUID{pair[1]}, ids)
		}

		snap, err := s.LoadPair(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.True(t, snap.Connected)
		assert.Equal(t, int64(2), snap.Version)
		assert.Equal(t, model.MatchAccepted, snap.Forward.Status)
		assert.Equal(t, model.MatchAccepted, snap.Reverse.Status)

		// a disconnects
		after = snap.Clone()
		after.Forward.Status = model.MatchRejected
		after.Forward.UpdatedAt = time.Now()
		after.Connected = false
		require.NoError(t, s.SavePair(ctx, snap, after))

		for _, id := range []uuid.UUID{a.ID, b.ID} {
			ids, err := s.ConnectionIDs(ctx, id)
			require.NoError(t, err)
			assert.Empty(t, ids)
		}
		owned, err := s.RecordsByOwner(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, owned, 1)
		assert.Equal(t, model.MatchRejected, owned[0].Status)
	})

	t.Run("SavePairStaleVersion", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := seedUser(t, s, "a", true)
		b := seedUser(t, s, "b", true)

		first, err := s.LoadPair(ctx, a.ID, b.ID)
		require.NoError(t, err)
		second, err := s.LoadPair(ctx, b.ID, a.ID)
		require.NoError(t, err)

		afterFirst := first.Clone()
		afterFirst.Forward = &model.MatchRecord{OwnerID: a.ID, CounterpartID: b.ID, Status: model.MatchPending, IsInitiator: true}
		require.NoError(t, s.SavePair(ctx, first, afterFirst))

		afterSecond := second.Clone()
		afterSecond.Forward = &model.MatchRecord{OwnerID: b.ID, CounterpartID: a.ID, Status: model.MatchPending, IsInitiator: true}
		err = s.SavePair(ctx, second, afterSecond)
		assert.ErrorIs(t, err, ErrVersionConflict)

		owned, err := s.RecordsByOwner(ctx, b.ID)
		require.NoError(t, err)
		assert.Empty(t, owned)

		// stale update on an existing version row
		stale, err := s.LoadPair(ctx, a.ID, b.ID)
		require.NoError(t, err)
		bump := stale.Clone()
		bump.Forward.UpdatedAt = time.Now().Add(time.Second)
		require.NoError(t, s.SavePair(ctx, stale, bump))
		assert.ErrorIs(t, s.SavePair(ctx, stale, bump), ErrVersionConflict)
	})
}

func seedUser(t *testing.T, s Store, name string, complete bool) *model.UserProfile {
	t.Helper()
	u := &model.UserProfile{
		Name:            name,
		Email:           name + "-" + uuid.NewString()[:8] + "@test.local",
		TeachSubjects:   model.SubjectList{{Subject: "go", Level: 4}},
		LearnSubjects:   model.SubjectList{{Subject: "piano", Level: 2}},
		ProfileComplete: complete,
	}
	require.NoError(t, s.SaveProfile(context.Background(), u))
	return u
}

func TestPairSnapshot_CloneIsDeep(t *testing.T) {
	snap := &PairSnapshot{
		Forward: &model.MatchRecord{Status: model.MatchPending},
		Reverse: &model.MatchRecord{Status: model.MatchPending},
	}
	c := snap.Clone()
	c.Forward.Status = model.MatchAccepted
	c.Reverse.Status = model.MatchRejected
	c.Connected = true

	assert.Equal(t, model.MatchPending, snap.Forward.Status)
	assert.Equal(t, model.MatchPending, snap.Reverse.Status)
	assert.False(t, snap.Connected)
}
