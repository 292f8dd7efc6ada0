package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/angelmondragon/shipping-service/api/controllers"
	"github.com/angelmondragon/shipping-service/pkg/config"
	"github.com/angelmondragon/shipping-service/pkg/logger"
	"github.com/angelmondragon/shipping-service/pkg/messaging"
	"github.com/angelmondragon/shipping-service/pkg/pubsub"
	"github.com/angelmondragon/shipping-service/pkg/sns"
	"github.com/angelmondragon/shipping-service/pkg/sqs"
)

// transport is the queue/topic pair selected by SHIPPING_TRANSPORT_DRIVER.
type transport struct {
	driver  string
	queue   messaging.Queue
	topic   messaging.Topic
	pingers map[string]controllers.Pinger
	closers []func() error
}

func (t *transport) Close() error {
	var err error
	for i := len(t.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, t.closers[i]())
	}
	return err
}

func newTransport(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*transport, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Transport.Driver))
	t := &transport{driver: driver, pingers: map[string]controllers.Pinger{}}

	switch driver {
	case config.TransportMemory:
		queue := messaging.NewMemoryQueue(
			messaging.WithFIFO(cfg.Transport.QueueFIFO),
			messaging.WithVisibilityTimeout(cfg.Transport.MemoryVisibilityTimeout),
		)
		t.queue = queue
		t.topic = messaging.NewMemoryTopic(messaging.WithFIFO(cfg.Transport.TopicFIFO))
		t.closers = append(t.closers, queue.Close)
	case config.TransportAWS:
		queue, err := sqs.NewQueue(ctx, cfg.AWS, cfg.Transport.QueueFIFO, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap sqs: %w", err)
		}
		topic, err := sns.NewTopic(ctx, cfg.AWS, cfg.Transport.TopicFIFO, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap sns: %w", err)
		}
		t.queue, t.topic = queue, topic
		t.pingers["sqs"] = queue
		t.pingers["sns"] = topic
	case config.TransportGCP:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap pubsub: %w", err)
		}
		t.queue = client.EventsQueue(cfg.Transport.QueueFIFO)
		t.topic = client.NotificationTopic(cfg.Transport.TopicFIFO)
		t.pingers["pubsub"] = client
		t.closers = append(t.closers, client.Close)
	default:
		return nil, fmt.Errorf("unknown transport driver %q", cfg.Transport.Driver)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"driver":     driver,
		"queue_fifo": t.queue.FIFO(),
		"topic_fifo": t.topic.FIFO(),
	}), "message transport ready")
	return t, nil
}
