package pubsub

import (
	"context"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pkgerrors "github.com/angelmondragon/shipping-service/pkg/errors"
	"github.com/angelmondragon/shipping-service/pkg/messaging"
)

const maxPullMessages = 1000

type subscriberAPI interface {
	Pull(ctx context.Context, req *pubsubpb.PullRequest, opts ...gax.CallOption) (*pubsubpb.PullResponse, error)
	Acknowledge(ctx context.Context, req *pubsubpb.AcknowledgeRequest, opts ...gax.CallOption) error
}

// Queue implements messaging.Queue with a topic for sends and a pull subscription for receives.
// Ordering keys stand in for FIFO groups; deduplication keys travel as an attribute.
type Queue struct {
	pub          publisher
	sub          subscriberAPI
	subscription string
	fifo         bool
}

func newQueue(pub publisher, sub subscriberAPI, subscription string, fifo bool) *Queue {
	return &Queue{pub: pub, sub: sub, subscription: subscription, fifo: fifo}
}

func (q *Queue) FIFO() bool { return q.fifo }

func (q *Queue) Send(ctx context.Context, msg messaging.Message) (string, error) {
	attrs := messaging.CloneAttributes(msg.Attributes)
	if msg.DedupKey != "" {
		attrs[messaging.AttrDedupKey] = msg.DedupKey
	}
	out := &gcppubsub.Message{Data: msg.Body, Attributes: attrs}
	if q.fifo {
		if msg.GroupKey == "" || msg.DedupKey == "" {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "ordered queues require group and deduplication keys")
		}
		out.OrderingKey = msg.GroupKey
	}
	id, err := publish(ctx, q.pub, out)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeTransport, err, "pubsub publish event")
	}
	return id, nil
}

// Receive pulls up to MaxMessages. WaitTime bounds the pull; an expired wait is an empty batch.
func (q *Queue) Receive(ctx context.Context, opts messaging.ReceiveOptions) ([]messaging.Delivery, error) {
	max := opts.MaxMessages
	if max <= 0 || max > maxPullMessages {
		max = maxPullMessages
	}
	pullCtx := ctx
	if opts.WaitTime > 0 {
		var cancel context.CancelFunc
		pullCtx, cancel = context.WithTimeout(ctx, opts.WaitTime)
		defer cancel()
	}

	resp, err := q.sub.Pull(pullCtx, &pubsubpb.PullRequest{
		Subscription: q.subscription,
		MaxMessages:  int32(max),
	})
	if err != nil {
		if ctx.Err() == nil && isWaitExpired(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "pubsub pull")
	}

	deliveries := make([]messaging.Delivery, 0, len(resp.GetReceivedMessages()))
	for _, rm := range resp.GetReceivedMessages() {
		m := rm.GetMessage()
		attrs := messaging.CloneAttributes(m.GetAttributes())
		receiveCount := int(rm.GetDeliveryAttempt())
		if receiveCount == 0 {
			receiveCount = 1
		}
		deliveries = append(deliveries, messaging.Delivery{
			ID:            m.GetMessageId(),
			Body:          m.GetData(),
			ReceiptHandle: rm.GetAckId(),
			GroupKey:      m.GetOrderingKey(),
			DedupKey:      attrs[messaging.AttrDedupKey],
			Attributes:    attrs,
			ReceiveCount:  receiveCount,
		})
	}
	return deliveries, nil
}

func (q *Queue) Delete(ctx context.Context, receiptHandle string) error {
	if receiptHandle == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "receipt handle required")
	}
	err := q.sub.Acknowledge(ctx, &pubsubpb.AcknowledgeRequest{
		Subscription: q.subscription,
		AckIds:       []string{receiptHandle},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "pubsub acknowledge")
	}
	return nil
}

func isWaitExpired(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return status.Code(err) == codes.DeadlineExceeded
}
