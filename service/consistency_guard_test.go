package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"skillswap/model"
	"skillswap/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// conflictStore fails the first n SavePair calls with a version conflict
type conflictStore struct {
	*store.MemoryStore
	mu        sync.Mutex
	conflicts int
	saves     int
	loadErr   error
}

func (s *conflictStore) LoadPair(ctx context.Context, userID, peerID uuid.UUID) (*store.PairSnapshot, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.MemoryStore.LoadPair(ctx, userID, peerID)
}

func (s *conflictStore) SavePair(ctx context.Context, before, after *store.PairSnapshot) error {
	s.mu.Lock()
	s.saves++
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		return store.ErrVersionConflict
	}
	s.mu.Unlock()
	return s.MemoryStore.SavePair(ctx, before, after)
}

// openRequest creates a pending forward record, counting invocations
func openRequest(calls *int) MutateFunc {
	return func(state *store.PairSnapshot) (bool, error) {
		*calls++
		if state.Forward != nil {
			return false, nil
		}
		state.Forward = &model.MatchRecord{OwnerID: state.UserID, CounterpartID: state.PeerID, Status: model.MatchPending}
		return true, nil
	}
}

func TestConsistencyGuard_RetriesConflicts(t *testing.T) {
	st := &conflictStore{MemoryStore: store.NewMemoryStore(), conflicts: 2}
	guard := NewConsistencyGuard(st, nil, 3)
	a, b := uuid.New(), uuid.New()

	calls := 0
	state, err := guard.Apply(context.Background(), a, b, openRequest(&calls))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, st.saves)
	assert.Equal(t, int64(1), state.Version)
	assert.Equal(t, model.MatchPending, state.Forward.Status)
}

func TestConsistencyGuard_ExhaustedAttempts(t *testing.T) {
	st := &conflictStore{MemoryStore: store.NewMemoryStore(), conflicts: 3}
	guard := NewConsistencyGuard(st, nil, 3)
	a, b := uuid.New(), uuid.New()

	_, err := guard.Apply(context.Background(), a, b, openRequest(new(int)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	snap, err := st.LoadPair(context.Background(), a, b)
	require.NoError(t, err)
	assert.Nil(t, snap.Forward)
	assert.Equal(t, int64(0), snap.Version)
}

func TestConsistencyGuard_MutateErrorWritesNothing(t *testing.T) {
	st := &conflictStore{MemoryStore: store.NewMemoryStore()}
	guard := NewConsistencyGuard(st, nil, 0)
	a, b := uuid.New(), uuid.New()

	_, err := guard.Apply(context.Background(), a, b, func(state *store.PairSnapshot) (bool, error) {
		state.Forward = &model.MatchRecord{OwnerID: a, CounterpartID: b, Status: model.MatchRejected}
		return true, invalidState("no pending request")
	})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 0, st.saves)

	owned, err := st.RecordsByOwner(context.Background(), a)
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func TestConsistencyGuard_NoChangeSkipsWrite(t *testing.T) {
	st := &conflictStore{MemoryStore: store.NewMemoryStore()}
	guard := NewConsistencyGuard(st, nil, 3)

	state, err := guard.Apply(context.Background(), uuid.New(), uuid.New(), func(*store.PairSnapshot) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), state.Version)
	assert.Equal(t, 0, st.saves)
}

func TestConsistencyGuard_StoreFailures(t *testing.T) {
	st := &conflictStore{MemoryStore: store.NewMemoryStore(), loadErr: errors.New("connection reset")}
	guard := NewConsistencyGuard(st, nil, 3)

	_, err := guard.Apply(context.Background(), uuid.New(), uuid.New(), openRequest(new(int)))
	assert.ErrorIs(t, err, ErrInternal)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st.loadErr = nil
	_, err = guard.Apply(ctx, uuid.New(), uuid.New(), openRequest(new(int)))
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, context.Canceled)
}

// busyLocker never grants the lock
type busyLocker struct{}

func (busyLocker) Lock(ctx context.Context, a, b uuid.UUID) (func(), error) {
	return nil, ErrLockTimeout
}

func TestConsistencyGuard_LockTimeoutIsConflict(t *testing.T) {
	guard := NewConsistencyGuard(store.NewMemoryStore(), busyLocker{}, 3)

	_, err := guard.Apply(context.Background(), uuid.New(), uuid.New(), openRequest(new(int)))
	assert.Equal(t, CodeConcurrencyConflict, ErrorCode(err))
	assert.ErrorIs(t, err, ErrLockTimeout)
}
