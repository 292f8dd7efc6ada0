package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/shipping-service/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipping-service/pkg/errors"
	"github.com/angelmondragon/shipping-service/pkg/logger"
	"github.com/angelmondragon/shipping-service/pkg/messaging"
)

type failingTopic struct {
	fifo bool
	err  error
}

func (f failingTopic) Publish(context.Context, messaging.Notification) (string, error) {
	return "", f.err
}

func (f failingTopic) FIFO() bool { return f.fifo }

func TestSendNotificationFIFOAttachesGroupAndFreshKeys(t *testing.T) {
	topic := messaging.NewMemoryTopic(messaging.WithFIFO(true))
	d, err := NewDispatcher(topic, logger.Nop())
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	ctx := context.Background()

	if err := d.SendNotification(ctx, "El envío S1 ha sido eliminado", subjectDeleted); err != nil {
		t.Fatalf("SendNotification: %v", err)
	}
	if err := d.SendNotification(ctx, "El envío S1 ha sido eliminado", subjectDeleted); err != nil {
		t.Fatalf("SendNotification: %v", err)
	}

	published := topic.Published()
	if len(published) != 2 {
		t.Fatalf("identical calls must not be collapsed, got %d notifications", len(published))
	}
	for _, n := range published {
		if n.GroupKey != defaultNotificationGroup {
			t.Fatalf("unexpected group %q", n.GroupKey)
		}
		if n.DedupKey == "" {
			t.Fatal("fifo notifications need a dedup key")
		}
	}
	if published[0].DedupKey == published[1].DedupKey {
		t.Fatalf("dedup keys must be fresh per call, both were %q", published[0].DedupKey)
	}
}

func TestSendKeepsCallerDedupKey(t *testing.T) {
	topic := messaging.NewMemoryTopic(messaging.WithFIFO(true))
	d, _ := NewDispatcher(topic, logger.Nop(), WithGroupKey("alerts"), withKeyGenerator(func() string { return "generated" }))

	_, err := d.Send(context.Background(), Notification{
		Subject:    subjectStatusUpdated,
		Body:       "b",
		EventType:  enums.NotificationShipmentStatusUpdate,
		ShipmentID: "S1",
		DedupKey:   "notification-S1-1",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	n := topic.Published()[0]
	if n.DedupKey != "notification-S1-1" || n.GroupKey != "alerts" {
		t.Fatalf("unexpected keys %+v", n)
	}
	if n.Attributes[messaging.AttrEventType] != "SHIPMENT_STATUS_UPDATE" || n.Attributes[messaging.AttrShipmentID] != "S1" {
		t.Fatalf("unexpected attributes %+v", n.Attributes)
	}
}

func TestSendStandardTopicOmitsKeys(t *testing.T) {
	topic := messaging.NewMemoryTopic()
	d, _ := NewDispatcher(topic, logger.Nop())
	if err := d.SendNotification(context.Background(), "m", "s"); err != nil {
		t.Fatalf("SendNotification: %v", err)
	}
	n := topic.Published()[0]
	if n.GroupKey != "" || n.DedupKey != "" {
		t.Fatalf("standard topics must not receive ordering keys: %+v", n)
	}
}

func TestSendReturnsTransportErrors(t *testing.T) {
	d, _ := NewDispatcher(failingTopic{err: errors.New("sns throttled")}, logger.Nop())
	err := d.SendNotification(context.Background(), "m", "s")
	if !pkgerrors.IsCode(err, pkgerrors.CodeTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestNewDispatcherValidates(t *testing.T) {
	if _, err := NewDispatcher(nil, logger.Nop()); err == nil {
		t.Fatal("expected error for nil topic")
	}
	if _, err := NewDispatcher(messaging.NewMemoryTopic(), nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}
