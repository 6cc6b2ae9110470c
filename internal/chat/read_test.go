package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readPosition(t *testing.T, store *fakeStore, userID, roomID int64) *int64 {
	t.Helper()
	m, err := store.GetMembership(context.Background(), userID, roomID)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m.LastReadMessageID
}

func TestReadUpToAdvances(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1)
	store.addMembership(100, 10, 1)
	svc := newTestService(store, &fakeLocker{}, &fakeFanout{})

	require.NoError(t, svc.ReadUpTo(context.Background(), 10, 1, 5))

	pos := readPosition(t, store, 10, 1)
	require.NotNil(t, pos)
	assert.Equal(t, int64(5), *pos)
}

func TestReadUpToRegressionIsSilentNoOp(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1)
	store.addMembership(100, 10, 1)
	svc := newTestService(store, &fakeLocker{}, &fakeFanout{})

	require.NoError(t, svc.ReadUpTo(context.Background(), 10, 1, 9))
	require.NoError(t, svc.ReadUpTo(context.Background(), 10, 1, 5), "stale receipt is not an error")

	pos := readPosition(t, store, 10, 1)
	require.NotNil(t, pos)
	assert.Equal(t, int64(9), *pos, "position never decreases")
}

func TestReadUpToEqualPositionIsNoOp(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1)
	store.addMembership(100, 10, 1)
	svc := newTestService(store, &fakeLocker{}, &fakeFanout{})

	require.NoError(t, svc.ReadUpTo(context.Background(), 10, 1, 9))
	require.NoError(t, svc.ReadUpTo(context.Background(), 10, 1, 9))

	pos := readPosition(t, store, 10, 1)
	require.NotNil(t, pos)
	assert.Equal(t, int64(9), *pos)
}

func TestReadUpToNotAMember(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1)
	svc := newTestService(store, &fakeLocker{}, &fakeFanout{})

	err := svc.ReadUpTo(context.Background(), 10, 1, 5)
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestReadUpToInvalidID(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1)
	store.addMembership(100, 10, 1)
	svc := newTestService(store, &fakeLocker{}, &fakeFanout{})

	assert.ErrorIs(t, svc.ReadUpTo(context.Background(), 10, 1, 0), ErrInvalidRead)
}

func TestReadUpToRetriesVersionRace(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1)
	store.addMembership(100, 10, 1)
	store.casPreempts = 1 // first CAS loses to a concurrent device
	svc := newTestService(store, &fakeLocker{}, &fakeFanout{})

	require.NoError(t, svc.ReadUpTo(context.Background(), 10, 1, 7), "retry absorbs a single version race")

	pos := readPosition(t, store, 10, 1)
	require.NotNil(t, pos)
	assert.Equal(t, int64(7), *pos)
}

func TestReadUpToExhaustedRetriesIsBusy(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1)
	store.addMembership(100, 10, 1)
	store.casPreempts = 10 // every attempt loses
	svc := newTestService(store, &fakeLocker{}, &fakeFanout{})

	assert.ErrorIs(t, svc.ReadUpTo(context.Background(), 10, 1, 7), ErrBusy)
}

func TestReadUpToConcurrentConvergesToMax(t *testing.T) {
	store := newFakeStore()
	store.addRoom(1)
	store.addMembership(100, 10, 1)
	svc := newTestService(store, &fakeLocker{}, &fakeFanout{})

	var wg sync.WaitGroup
	for _, id := range []int64{5, 9} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			// Either interleaving is fine; neither call may fail.
			assert.NoError(t, svc.ReadUpTo(context.Background(), 10, 1, id))
		}(id)
	}
	wg.Wait()

	pos := readPosition(t, store, 10, 1)
	require.NotNil(t, pos)
	assert.Equal(t, int64(9), *pos, "concurrent receipts converge to the max")
}
