package store

import (
	"context"
	"testing"

	"skillswap/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestMemoryStore_SavePairHonoursContext(t *testing.T) {
	s := NewMemoryStore()
	a := seedUser(t, s, "a", true)
	b := seedUser(t, s, "b", true)

	before, err := s.LoadPair(context.Background(), a.ID, b.ID)
	require.NoError(t, err)
	after := before.Clone()
	after.Forward = &model.MatchRecord{OwnerID: a.ID, CounterpartID: b.ID, Status: model.MatchPending}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.SavePair(ctx, before, after), context.Canceled)

	snap, err := s.LoadPair(context.Background(), a.ID, b.ID)
	require.NoError(t, err)
	assert.Nil(t, snap.Forward)
	assert.Equal(t, int64(0), snap.Version)
}
