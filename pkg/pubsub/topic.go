package pubsub

import (
	"context"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	pkgerrors "github.com/angelmondragon/shipping-service/pkg/errors"
	"github.com/angelmondragon/shipping-service/pkg/messaging"
)

// Topic implements messaging.Topic on a Pub/Sub topic.
type Topic struct {
	pub  publisher
	fifo bool
}

func newTopic(pub publisher, fifo bool) *Topic {
	return &Topic{pub: pub, fifo: fifo}
}

func (t *Topic) FIFO() bool { return t.fifo }

func (t *Topic) Publish(ctx context.Context, n messaging.Notification) (string, error) {
	attrs := messaging.CloneAttributes(n.Attributes)
	if n.Subject != "" {
		attrs[messaging.AttrSubject] = n.Subject
	}
	if n.DedupKey != "" {
		attrs[messaging.AttrDedupKey] = n.DedupKey
	}
	msg := &gcppubsub.Message{Data: []byte(n.Body), Attributes: attrs}
	if t.fifo {
		if n.GroupKey == "" || n.DedupKey == "" {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "ordered topics require group and deduplication keys")
		}
		msg.OrderingKey = n.GroupKey
	}
	id, err := publish(ctx, t.pub, msg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeTransport, err, "pubsub publish notification")
	}
	return id, nil
}
