package chat

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"chatd/internal/broker"
)

// deliverTimeout bounds the member lookup during a fan-out pass.
const deliverTimeout = 5 * time.Second

// Pusher is the local push side of fan-out; satisfied by ws.Registry.
type Pusher interface {
	Send(userID int64, payload []byte) bool
}

// MemberSource resolves which identities should see a room's events.
type MemberSource interface {
	RoomMemberIDs(ctx context.Context, roomID int64) ([]int64, error)
}

// Dispatcher fans a committed message out to connected clients: directly for
// clients on this instance, via the broker for every other instance. The two
// paths are independent; a broker outage only degrades cross-instance
// delivery, local participants still get their push.
type Dispatcher struct {
	instanceID string
	registry   Pusher
	members    MemberSource
	publisher  broker.Publisher
	log        logrus.FieldLogger
}

func NewDispatcher(instanceID string, registry Pusher, members MemberSource, publisher broker.Publisher, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		instanceID: instanceID,
		registry:   registry,
		members:    members,
		publisher:  publisher,
		log:        log,
	}
}

// InstanceID identifies this instance on outbound events.
func (d *Dispatcher) InstanceID() string {
	return d.instanceID
}

// Dispatch takes a post-commit event, pushes it to local connections and
// publishes it for the other instances. Called by the commit pipeline after
// durability; must never fail the send, so transport errors are only logged.
func (d *Dispatcher) Dispatch(evt DeliveryEvent) {
	d.deliverLocal(evt)

	if d.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()
	key := strconv.FormatInt(evt.Message.RoomID, 10)
	if err := d.publisher.Publish(ctx, TopicMessages, key, evt.Encode()); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"room_id":    evt.Message.RoomID,
			"message_id": evt.Message.ID,
		}).Error("broker publish failed, cross-instance delivery degraded")
	}
}

// HandleBrokerPayload is the consumer side: one invocation per event per
// instance. Self-originated events are skipped because Dispatch already
// delivered them locally.
func (d *Dispatcher) HandleBrokerPayload(ctx context.Context, payload []byte) {
	evt, err := DecodeDeliveryEvent(payload)
	if err != nil {
		d.log.WithError(err).Warn("dropping undecodable delivery event")
		return
	}
	if evt.Origin == d.instanceID {
		return
	}
	d.deliverLocal(evt)
}

// deliverLocal pushes the wire payload to every room member with a live
// channel on this instance. Members without a channel here are simply
// skipped; a failed push is fire-and-forget.
func (d *Dispatcher) deliverLocal(evt DeliveryEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	memberIDs, err := d.members.RoomMemberIDs(ctx, evt.Message.RoomID)
	if err != nil {
		d.log.WithError(err).WithField("room_id", evt.Message.RoomID).Error("member lookup failed, local delivery skipped")
		return
	}

	payload, err := json.Marshal(evt.Message)
	if err != nil {
		d.log.WithError(err).Error("delivery event marshal failed")
		return
	}

	delivered := 0
	for _, id := range memberIDs {
		if d.registry.Send(id, payload) {
			delivered++
		}
	}
	d.log.WithFields(logrus.Fields{
		"room_id":    evt.Message.RoomID,
		"message_id": evt.Message.ID,
		"delivered":  delivered,
	}).Debug("local fan-out complete")
}
