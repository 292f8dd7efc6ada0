package notifications

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/shipping-service/internal/shipments"
	"github.com/angelmondragon/shipping-service/pkg/enums"
	"github.com/angelmondragon/shipping-service/pkg/logger"
	"github.com/angelmondragon/shipping-service/pkg/messaging"
	"github.com/angelmondragon/shipping-service/pkg/metrics"
)

const (
	consumerName = "shipment-notifications"

	defaultPollInterval   = 30 * time.Second
	defaultBatchSize      = 10
	defaultWaitTime       = 20 * time.Second
	defaultConcurrency    = 4
	defaultHandlerTimeout = 15 * time.Second
)

type notifier interface {
	Send(ctx context.Context, n Notification) (string, error)
}

// guard remembers which logical events were already notified. Optional.
type guard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, messageKey string) (bool, error)
	Delete(ctx context.Context, consumer, messageKey string) error
}

// ConsumerParams configure the queue consumer.
type ConsumerParams struct {
	Queue          messaging.Queue
	Notifier       notifier
	Guard          guard
	Logger         *logger.Logger
	Metrics        *metrics.ConsumerMetrics
	PollInterval   time.Duration
	BatchSize      int
	WaitTime       time.Duration
	Concurrency    int
	HandlerTimeout time.Duration
}

// Consumer drains the shipment events queue and turns each event into one notification.
// A message is deleted only after its own notification was published, or when it can never
// be handled (malformed) or was already handled (guard hit).
type Consumer struct {
	queue          messaging.Queue
	notifier       notifier
	guard          guard
	logg           *logger.Logger
	metrics        *metrics.ConsumerMetrics
	pollInterval   time.Duration
	batchSize      int
	waitTime       time.Duration
	concurrency    int
	handlerTimeout time.Duration
}

// NewConsumer builds a queue consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Queue == nil {
		return nil, fmt.Errorf("event queue required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	c := &Consumer{
		queue:          params.Queue,
		notifier:       params.Notifier,
		guard:          params.Guard,
		logg:           params.Logger,
		metrics:        params.Metrics,
		pollInterval:   params.PollInterval,
		batchSize:      params.BatchSize,
		waitTime:       params.WaitTime,
		concurrency:    params.Concurrency,
		handlerTimeout: params.HandlerTimeout,
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.batchSize <= 0 {
		c.batchSize = defaultBatchSize
	}
	if c.waitTime < 0 {
		c.waitTime = defaultWaitTime
	}
	if c.concurrency <= 0 {
		c.concurrency = defaultConcurrency
	}
	if c.handlerTimeout <= 0 {
		c.handlerTimeout = defaultHandlerTimeout
	}
	return c, nil
}

// Run polls until ctx is canceled. The first cycle starts immediately; cycles never overlap and
// a cycle that is already processing a batch finishes it before Run returns.
func (c *Consumer) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.logg.Info(c.logg.WithFields(ctx, map[string]any{
		"poll_interval": c.pollInterval.String(),
		"batch_size":    c.batchSize,
		"fifo":          c.queue.FIFO(),
	}), "shipment consumer started")

	c.PollOnce(ctx)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.logg.Info(ctx, "shipment consumer context canceled")
			return ctx.Err()
		case <-ticker.C:
			c.PollOnce(ctx)
		}
	}
}

// CycleResult summarizes one poll cycle.
type CycleResult struct {
	Received   int
	Notified   int
	Dropped    int
	Duplicates int
	Failed     int
	Err        error
}

type outcome int

const (
	outcomeNotified outcome = iota
	outcomeDropped
	outcomeDuplicate
	outcomeFailed
)

// PollOnce runs a single receive-and-process cycle. Receiving honors ctx; once a batch is in
// hand it is processed to completion even if ctx is canceled meanwhile.
func (c *Consumer) PollOnce(ctx context.Context) CycleResult {
	start := time.Now()
	defer func() { c.metrics.ObserveCycle(time.Since(start)) }()

	batch, err := c.queue.Receive(ctx, messaging.ReceiveOptions{
		MaxMessages: c.batchSize,
		WaitTime:    c.waitTime,
	})
	if err != nil {
		if ctx.Err() != nil {
			return CycleResult{}
		}
		c.metrics.IncReceiveFailure()
		c.logg.Error(ctx, "receive shipment events failed", err)
		return CycleResult{Err: err}
	}
	if len(batch) == 0 {
		return CycleResult{}
	}
	c.metrics.AddReceived(len(batch))

	procCtx := context.WithoutCancel(ctx)
	outcomes := make([]outcome, len(batch))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for _, lane := range lanes(batch) {
		g.Go(func() error {
			for _, idx := range lane {
				outcomes[idx] = c.handle(procCtx, batch[idx])
			}
			return nil
		})
	}
	_ = g.Wait()

	result := CycleResult{Received: len(batch)}
	for _, o := range outcomes {
		switch o {
		case outcomeNotified:
			result.Notified++
		case outcomeDropped:
			result.Dropped++
		case outcomeDuplicate:
			result.Duplicates++
		case outcomeFailed:
			result.Failed++
		}
	}
	c.logg.Info(c.logg.WithFields(ctx, map[string]any{
		"received":    result.Received,
		"notified":    result.Notified,
		"dropped":     result.Dropped,
		"duplicates":  result.Duplicates,
		"failed":      result.Failed,
		"duration_ms": time.Since(start).Milliseconds(),
	}), "shipment event batch processed")
	return result
}

// lanes groups batch indexes by ordering group, keeping receive order inside each lane.
// Messages without a group each get their own lane.
func lanes(batch []messaging.Delivery) [][]int {
	var out [][]int
	byGroup := map[string]int{}
	for i, d := range batch {
		if d.GroupKey == "" {
			out = append(out, []int{i})
			continue
		}
		pos, ok := byGroup[d.GroupKey]
		if !ok {
			pos = len(out)
			byGroup[d.GroupKey] = pos
			out = append(out, nil)
		}
		out[pos] = append(out[pos], i)
	}
	return out
}

func (c *Consumer) handle(ctx context.Context, d messaging.Delivery) outcome {
	ctx, cancel := context.WithTimeout(ctx, c.handlerTimeout)
	defer cancel()

	logCtx := c.logg.WithFields(c.logg.WithMessageID(ctx, d.ID), map[string]any{
		"receive_count": d.ReceiveCount,
		"group_key":     d.GroupKey,
	})

	evt, err := shipments.DecodeQueueEvent(d.Body)
	if err != nil {
		c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "dropping malformed shipment event")
		c.metrics.IncProcessed("", metrics.OutcomeMalformed)
		c.ack(logCtx, d)
		return outcomeDropped
	}
	logCtx = c.logg.WithFields(c.logg.WithShipmentID(logCtx, evt.ID), map[string]any{"action": evt.Action.String()})
	action := actionLabel(evt.Action)

	key := eventKey(d)
	if c.guard != nil {
		already, err := c.guard.CheckAndMarkProcessed(ctx, consumerName, key)
		if err != nil {
			c.logg.Error(logCtx, "idempotency check failed", err)
			c.metrics.IncProcessed(action, metrics.OutcomeFailure)
			return outcomeFailed
		}
		if already {
			c.logg.Info(logCtx, "shipment event already handled")
			c.metrics.IncProcessed(action, metrics.OutcomeDuplicate)
			c.ack(logCtx, d)
			return outcomeDuplicate
		}
	}

	n := ForEvent(evt)
	n.DedupKey = "notification-" + key
	if _, err := c.notifier.Send(ctx, n); err != nil {
		if c.guard != nil {
			if delErr := c.guard.Delete(ctx, consumerName, key); delErr != nil {
				c.logg.Error(logCtx, "failed to clear idempotency mark", delErr)
			}
		}
		c.logg.Error(logCtx, "shipment notification failed; leaving message for redelivery", err)
		c.metrics.IncProcessed(action, metrics.OutcomeFailure)
		return outcomeFailed
	}

	c.metrics.IncProcessed(action, metrics.OutcomeSuccess)
	c.ack(logCtx, d)
	return outcomeNotified
}

func (c *Consumer) ack(ctx context.Context, d messaging.Delivery) {
	if err := c.queue.Delete(ctx, d.ReceiptHandle); err != nil {
		c.metrics.IncDeleteFailure()
		c.logg.Error(ctx, "failed to delete shipment event", err)
	}
}

// actionLabel keeps the metric label set bounded when payloads carry arbitrary actions.
func actionLabel(a enums.QueueAction) string {
	if a.IsValid() {
		return a.String()
	}
	return metrics.LabelUnknown
}

// eventKey identifies the logical event across redeliveries.
func eventKey(d messaging.Delivery) string {
	if d.DedupKey != "" {
		return d.DedupKey
	}
	return d.ID
}
