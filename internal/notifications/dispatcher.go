package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/angelmondragon/shipping-service/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipping-service/pkg/errors"
	"github.com/angelmondragon/shipping-service/pkg/logger"
	"github.com/angelmondragon/shipping-service/pkg/messaging"
	"github.com/angelmondragon/shipping-service/pkg/metrics"
)

const defaultNotificationGroup = "shipment-notifications"

// Notification is one human readable alert. DedupKey is optional; a fresh key is generated
// per call when it is empty.
type Notification struct {
	Subject    string
	Body       string
	EventType  enums.NotificationEventType
	ShipmentID string
	DedupKey   string
}

// Dispatcher publishes notifications to the broadcast topic. On FIFO topics every
// notification shares one group so subscribers see them in publish order.
type Dispatcher struct {
	topic   messaging.Topic
	group   string
	newKey  func() string
	logg    *logger.Logger
	metrics *metrics.PublishMetrics
}

type DispatcherOption func(*Dispatcher)

func WithGroupKey(group string) DispatcherOption {
	return func(d *Dispatcher) {
		if group != "" {
			d.group = group
		}
	}
}

func WithDispatchMetrics(m *metrics.PublishMetrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func withKeyGenerator(gen func() string) DispatcherOption {
	return func(d *Dispatcher) { d.newKey = gen }
}

func NewDispatcher(topic messaging.Topic, logg *logger.Logger, opts ...DispatcherOption) (*Dispatcher, error) {
	if topic == nil {
		return nil, errors.New("notification topic required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	d := &Dispatcher{
		topic:  topic,
		group:  defaultNotificationGroup,
		newKey: uuid.NewString,
		logg:   logg,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// SendNotification publishes a plain message with a subject and a fresh deduplication key.
func (d *Dispatcher) SendNotification(ctx context.Context, message, subject string) error {
	_, err := d.Send(ctx, Notification{Subject: subject, Body: message})
	return err
}

// Send publishes n and returns the transport message id. Failures are logged and returned.
func (d *Dispatcher) Send(ctx context.Context, n Notification) (string, error) {
	attrs := map[string]string{}
	if n.EventType != "" {
		attrs[messaging.AttrEventType] = n.EventType.String()
	}
	if n.ShipmentID != "" {
		attrs[messaging.AttrShipmentID] = n.ShipmentID
	}
	out := messaging.Notification{
		Subject:    n.Subject,
		Body:       n.Body,
		Attributes: attrs,
	}
	if d.topic.FIFO() {
		out.GroupKey = d.group
		out.DedupKey = n.DedupKey
		if out.DedupKey == "" {
			out.DedupKey = d.newKey()
		}
	}

	logCtx := d.logg.WithFields(ctx, map[string]any{
		"subject":     n.Subject,
		"event_type":  n.EventType,
		"shipment_id": n.ShipmentID,
	})
	id, err := d.topic.Publish(ctx, out)
	if err != nil {
		d.metrics.IncNotification(n.EventType.String(), metrics.OutcomeFailure)
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeTransport, err, "publish notification")
		}
		d.logg.Error(logCtx, "notification publish failed", err)
		return "", err
	}
	d.metrics.IncNotification(n.EventType.String(), metrics.OutcomeSuccess)
	d.logg.Info(d.logg.WithField(logCtx, "notification_id", id), "notification sent")
	return id, nil
}
