package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatd/internal/models"
)

// fakePusher records pushes per user; only users in live get a channel.
type fakePusher struct {
	mu   sync.Mutex
	live map[int64]bool
	got  map[int64][][]byte
}

func newFakePusher(liveUsers ...int64) *fakePusher {
	live := make(map[int64]bool)
	for _, id := range liveUsers {
		live[id] = true
	}
	return &fakePusher{live: live, got: make(map[int64][][]byte)}
}

func (p *fakePusher) Send(userID int64, payload []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.live[userID] {
		return false
	}
	p.got[userID] = append(p.got[userID], payload)
	return true
}

func (p *fakePusher) payloads(userID int64) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.got[userID]...)
}

type fakePublisher struct {
	mu       sync.Mutex
	err      error
	topics   []string
	keys     []string
	payloads [][]byte
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, key)
	p.payloads = append(p.payloads, payload)
	return nil
}

func testEvent(origin string) DeliveryEvent {
	return NewDeliveryEvent(&models.Message{
		ID:          42,
		RoomID:      1,
		SenderID:    10,
		ContentType: "TEXT",
		Content:     "hi",
		Timestamps:  models.NewTimestamps(time.Now()),
	}, origin)
}

func newTestDispatcher(pusher *fakePusher, members MemberSource, pub *fakePublisher) *Dispatcher {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	if pub == nil {
		// a typed nil in the interface would defeat the nil check
		return NewDispatcher("instance-a", pusher, members, nil, log)
	}
	return NewDispatcher("instance-a", pusher, members, pub, log)
}

func TestDispatchDeliversLocallyAndPublishes(t *testing.T) {
	store := newFakeStore()
	store.addMembership(100, 10, 1)
	store.addMembership(101, 11, 1)
	pusher := newFakePusher(10, 11)
	pub := &fakePublisher{}
	d := newTestDispatcher(pusher, store, pub)

	d.Dispatch(testEvent(d.InstanceID()))

	for _, userID := range []int64{10, 11} {
		payloads := pusher.payloads(userID)
		require.Len(t, payloads, 1, "user %d got a push", userID)
		var wire WireMessage
		require.NoError(t, json.Unmarshal(payloads[0], &wire))
		assert.Equal(t, int64(42), wire.ID)
		assert.Equal(t, "hi", wire.Content)
		assert.Equal(t, int64(1), wire.SeenCount)
	}

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, TopicMessages, pub.topics[0])
	assert.Equal(t, "1", pub.keys[0], "partitioned by room id")
	evt, err := DecodeDeliveryEvent(pub.payloads[0])
	require.NoError(t, err)
	assert.Equal(t, "instance-a", evt.Origin)
}

func TestDispatchSkipsDisconnectedMembers(t *testing.T) {
	store := newFakeStore()
	store.addMembership(100, 10, 1)
	store.addMembership(101, 11, 1)
	pusher := newFakePusher(11) // only 11 connected here
	d := newTestDispatcher(pusher, store, &fakePublisher{})

	d.Dispatch(testEvent(d.InstanceID()))

	assert.Empty(t, pusher.payloads(10))
	assert.Len(t, pusher.payloads(11), 1)
}

func TestDispatchLocalDeliveryIndependentOfBroker(t *testing.T) {
	store := newFakeStore()
	store.addMembership(100, 10, 1)
	pusher := newFakePusher(10)
	pub := &fakePublisher{err: errors.New("broker down")}
	d := newTestDispatcher(pusher, store, pub)

	d.Dispatch(testEvent(d.InstanceID()))

	assert.Len(t, pusher.payloads(10), 1, "same-instance participants are not starved by a transport outage")
}

func TestDispatchWithoutBroker(t *testing.T) {
	store := newFakeStore()
	store.addMembership(100, 10, 1)
	pusher := newFakePusher(10)
	d := newTestDispatcher(pusher, store, nil)

	d.Dispatch(testEvent(d.InstanceID()))

	assert.Len(t, pusher.payloads(10), 1)
}

func TestHandleBrokerPayloadSkipsOwnEvents(t *testing.T) {
	store := newFakeStore()
	store.addMembership(100, 10, 1)
	pusher := newFakePusher(10)
	d := newTestDispatcher(pusher, store, &fakePublisher{})

	d.HandleBrokerPayload(context.Background(), testEvent("instance-a").Encode())

	assert.Empty(t, pusher.payloads(10), "the local path already delivered this event")
}

func TestHandleBrokerPayloadDeliversRemoteEvents(t *testing.T) {
	store := newFakeStore()
	store.addMembership(100, 10, 1)
	pusher := newFakePusher(10)
	d := newTestDispatcher(pusher, store, &fakePublisher{})

	d.HandleBrokerPayload(context.Background(), testEvent("instance-b").Encode())

	require.Len(t, pusher.payloads(10), 1)
	var wire WireMessage
	require.NoError(t, json.Unmarshal(pusher.payloads(10)[0], &wire))
	assert.Equal(t, int64(42), wire.ID)
}

func TestHandleBrokerPayloadDropsGarbage(t *testing.T) {
	store := newFakeStore()
	store.addMembership(100, 10, 1)
	pusher := newFakePusher(10)
	d := newTestDispatcher(pusher, store, &fakePublisher{})

	d.HandleBrokerPayload(context.Background(), []byte("{not json"))

	assert.Empty(t, pusher.payloads(10))
}
