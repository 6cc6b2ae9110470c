// Package chat is the message delivery and read-tracking core: the commit
// pipeline that serializes writes per room, the post-commit fan-out, and the
// monotone read-position tracker. Storage is authoritative; real-time
// delivery is best effort on top of it.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"chatd/internal/lock"
	"chatd/internal/models"
)

// DefaultContentType is applied when the sender does not tag the message.
const DefaultContentType = "TEXT"

// readRetries bounds the optimistic compare-and-set loop in ReadUpTo.
const readRetries = 3

// Fanout receives the delivery event for every committed message.
type Fanout interface {
	Dispatch(evt DeliveryEvent)
}

// Service implements the send, read and read-position operations.
type Service struct {
	store  Store
	locks  lock.Locker
	fanout Fanout
	log    logrus.FieldLogger

	// instanceID stamps delivery events so this instance can recognize its
	// own events coming back from the broker.
	instanceID string

	lockWait  time.Duration
	lockLease time.Duration
}

func NewService(store Store, locks lock.Locker, fanout Fanout, instanceID string, lockWait, lockLease time.Duration, log logrus.FieldLogger) *Service {
	return &Service{
		store:      store,
		locks:      locks,
		fanout:     fanout,
		instanceID: instanceID,
		lockWait:   lockWait,
		lockLease:  lockLease,
		log:        log,
	}
}

func roomLockKey(roomID int64) string {
	return fmt.Sprintf("room:%d:send", roomID)
}

// Send commits a message to a room and hands the delivery event to fan-out.
//
// The per-room lock establishes a total order of commits per room across all
// instances: without it, concurrent writers could commit in one order and
// fan out in another. The event is dispatched only after the insert
// transaction has committed, so a crash in between loses delivery, never
// exposes an uncommitted write.
func (s *Service) Send(ctx context.Context, senderID, roomID int64, content, contentType string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if contentType == "" {
		contentType = DefaultContentType
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	membership, err := s.store.GetMembership(ctx, senderID, room.ID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, ErrNotAMember
	}
	if _, err := s.store.GetUser(ctx, senderID); err != nil {
		return nil, err
	}

	lease, err := s.locks.Acquire(ctx, roomLockKey(room.ID), s.lockWait, s.lockLease)
	if err == lock.ErrNotAcquired {
		return nil, ErrBusy
	} else if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), lease); err != nil {
			s.log.WithError(err).WithField("room_id", room.ID).Warn("room lock release failed")
		}
	}()

	msg, err := s.store.InsertMessage(ctx, room.ID, senderID, contentType, content)
	if err != nil {
		return nil, err
	}

	// Post-commit only. Fan-out failure is the dispatcher's problem, never
	// the sender's; the write already succeeded.
	s.fanout.Dispatch(NewDeliveryEvent(msg, s.instanceID))

	return msg, nil
}

// GetMessages returns a page of the room's history, newest first. Read path,
// no locking: persisted order is already fixed by the commit pipeline.
func (s *Service) GetMessages(ctx context.Context, userID, roomID, beforeID int64, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	membership, err := s.store.GetMembership(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, ErrNotAMember
	}
	return s.store.ListMessages(ctx, roomID, beforeID, limit)
}

// ReadUpTo advances the member's read position to messageID if that is ahead
// of the stored one. Many devices race to report "read up to N" for the same
// membership; the version check plus retry makes the outcome the monotone max
// of all reported positions. A position at or behind the stored one is a
// silent no-op, which tolerates out-of-order receipts.
func (s *Service) ReadUpTo(ctx context.Context, userID, roomID, messageID int64) error {
	if messageID <= 0 {
		return ErrInvalidRead
	}

	for attempt := 0; attempt < readRetries; attempt++ {
		m, err := s.store.GetMembership(ctx, userID, roomID)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotAMember
		}
		if m.LastReadMessageID != nil && *m.LastReadMessageID >= messageID {
			return nil
		}
		ok, err := s.store.CompareAndSetReadPosition(ctx, m.ID, messageID, m.Version)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		// Lost the version race; re-read and compare again.
	}
	return ErrBusy
}
