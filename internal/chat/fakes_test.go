package chat

import (
	"context"
	"sync"
	"time"

	"chatd/internal/lock"
	"chatd/internal/models"
)

// fakeStore is an in-memory Store. CAS semantics mirror the SQL
// implementation: the update applies only when the version still matches,
// and every applied update bumps the version.
type fakeStore struct {
	mu          sync.Mutex
	rooms       map[int64]*models.Room
	users       map[int64]*models.User
	memberships map[int64]*models.Membership // by membership id
	messages    []models.Message
	nextMsgID   int64

	insertErr error
	// casPreempts makes the next N compare-and-set calls lose the version
	// race, as if another device updated the row in between.
	casPreempts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:       make(map[int64]*models.Room),
		users:       make(map[int64]*models.User),
		memberships: make(map[int64]*models.Membership),
	}
}

func (s *fakeStore) addRoom(id int64) {
	s.rooms[id] = &models.Room{ID: id, Kind: models.RoomKindGroup, Title: "room", Timestamps: models.NewTimestamps(time.Now())}
}

func (s *fakeStore) addUser(id int64) {
	s.users[id] = &models.User{ID: id, Name: "user", Email: "user@example.com"}
}

func (s *fakeStore) addMembership(id, userID, roomID int64) *models.Membership {
	m := &models.Membership{ID: id, RoomID: roomID, UserID: userID, Timestamps: models.NewTimestamps(time.Now())}
	s.memberships[id] = m
	return m
}

func (s *fakeStore) GetRoom(_ context.Context, roomID int64) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

func (s *fakeStore) GetUser(_ context.Context, userID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *fakeStore) GetMembership(_ context.Context, userID, roomID int64) (*models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.memberships {
		if m.UserID == userID && m.RoomID == roomID {
			cp := *m
			if m.LastReadMessageID != nil {
				v := *m.LastReadMessageID
				cp.LastReadMessageID = &v
			}
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) InsertMessage(_ context.Context, roomID, senderID int64, contentType, content string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.nextMsgID++
	m := models.Message{
		ID:          s.nextMsgID,
		RoomID:      roomID,
		SenderID:    senderID,
		ContentType: contentType,
		Content:     content,
		Timestamps:  models.NewTimestamps(time.Now()),
	}
	s.messages = append(s.messages, m)
	return &m, nil
}

func (s *fakeStore) CompareAndSetReadPosition(_ context.Context, membershipID, messageID, expectedVersion int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[membershipID]
	if !ok {
		return false, nil
	}
	if s.casPreempts > 0 {
		s.casPreempts--
		m.Version++
		return false, nil
	}
	if m.Version != expectedVersion {
		return false, nil
	}
	v := messageID
	m.LastReadMessageID = &v
	now := time.Now()
	m.LastReadAt = &now
	m.Version++
	return true, nil
}

func (s *fakeStore) ListMessages(_ context.Context, roomID, beforeID int64, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := s.messages[i]
		if m.RoomID != roomID {
			continue
		}
		if beforeID > 0 && m.ID >= beforeID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *fakeStore) RoomMemberIDs(_ context.Context, roomID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, m := range s.memberships {
		if m.RoomID == roomID {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

func (s *fakeStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// fakeLocker hands out leases immediately, or refuses when held is set.
type fakeLocker struct {
	mu       sync.Mutex
	held     bool
	acquired int
	released int
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _, _ time.Duration) (*lock.Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil, lock.ErrNotAcquired
	}
	l.acquired++
	return &lock.Lease{Key: key, Token: "test"}, nil
}

func (l *fakeLocker) Release(_ context.Context, _ *lock.Lease) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released++
	return nil
}

// fakeFanout records every dispatched event.
type fakeFanout struct {
	mu     sync.Mutex
	events []DeliveryEvent
}

func (f *fakeFanout) Dispatch(evt DeliveryEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
}

func (f *fakeFanout) all() []DeliveryEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]DeliveryEvent(nil), f.events...)
}
