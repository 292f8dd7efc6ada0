package shipments

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/shipping-service/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipping-service/pkg/errors"
	"github.com/angelmondragon/shipping-service/pkg/messaging"
	"github.com/angelmondragon/shipping-service/pkg/metrics"
)

const defaultGroupFallback = "default"

// EventPublisher turns committed store mutations into queue messages.
//
// On FIFO queues every message gets a group key (the owning user, or the fallback) and a
// deduplication key that is unique per logical event: the shipment id for CREATE and
// id-<unix nanos> for everything else. The timestamp is forced to increase monotonically
// so two events for one shipment never share a key within a process.
type EventPublisher struct {
	queue         messaging.Queue
	groupFallback string
	now           func() time.Time
	lastStamp     atomic.Int64
	metrics       *metrics.PublishMetrics
}

type PublisherOption func(*EventPublisher)

func WithGroupFallback(group string) PublisherOption {
	return func(p *EventPublisher) {
		if group != "" {
			p.groupFallback = group
		}
	}
}

func WithPublisherClock(now func() time.Time) PublisherOption {
	return func(p *EventPublisher) {
		if now != nil {
			p.now = now
		}
	}
}

func WithPublishMetrics(m *metrics.PublishMetrics) PublisherOption {
	return func(p *EventPublisher) { p.metrics = m }
}

func NewEventPublisher(queue messaging.Queue, opts ...PublisherOption) (*EventPublisher, error) {
	if queue == nil {
		return nil, errors.New("event queue is required")
	}
	p := &EventPublisher{
		queue:         queue,
		groupFallback: defaultGroupFallback,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *EventPublisher) PublishCreate(ctx context.Context, s Shipment) error {
	return p.publish(ctx, enums.QueueActionCreate, s)
}

func (p *EventPublisher) PublishStatusUpdate(ctx context.Context, s Shipment) error {
	return p.publish(ctx, enums.QueueActionUpdateStatus, s)
}

func (p *EventPublisher) PublishProcess(ctx context.Context, s Shipment) error {
	return p.publish(ctx, enums.QueueActionProcess, s)
}

func (p *EventPublisher) PublishDelete(ctx context.Context, s Shipment) error {
	return p.publish(ctx, enums.QueueActionDelete, s)
}

func (p *EventPublisher) publish(ctx context.Context, action enums.QueueAction, s Shipment) error {
	body, err := EncodeEvent(action, s)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode queue event")
	}
	msg := messaging.Message{
		Body: body,
		Attributes: map[string]string{
			messaging.AttrAction:     action.String(),
			messaging.AttrShipmentID: s.ID,
		},
	}
	if p.queue.FIFO() {
		msg.GroupKey = p.groupKey(s)
		msg.DedupKey = p.dedupKey(action, s.ID)
	}
	if _, err := p.queue.Send(ctx, msg); err != nil {
		p.metrics.IncEvent(action.String(), metrics.OutcomeFailure)
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeTransport, err, "send queue event")
		}
		return err
	}
	p.metrics.IncEvent(action.String(), metrics.OutcomeSuccess)
	return nil
}

func (p *EventPublisher) groupKey(s Shipment) string {
	if s.UserID != "" {
		return s.UserID
	}
	return p.groupFallback
}

func (p *EventPublisher) dedupKey(action enums.QueueAction, id string) string {
	if action == enums.QueueActionCreate {
		return id
	}
	return id + "-" + strconv.FormatInt(p.nextStamp(), 10)
}

func (p *EventPublisher) nextStamp() int64 {
	for {
		prev := p.lastStamp.Load()
		next := p.now().UnixNano()
		if next <= prev {
			next = prev + 1
		}
		if p.lastStamp.CompareAndSwap(prev, next) {
			return next
		}
	}
}
