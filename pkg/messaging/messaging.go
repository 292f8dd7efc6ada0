// Package messaging defines the queue and topic contracts the shipment pipeline is written against,
// independent of the concrete transport (SQS/SNS, Pub/Sub, or the in-process memory driver).
package messaging

import (
	"context"
	"strings"
	"time"
)

// Attribute names shared by every driver.
const (
	AttrAction     = "action"
	AttrShipmentID = "shipment_id"
	AttrEventType  = "event_type"
	AttrSubject    = "subject"
	AttrDedupKey   = "dedup_key"
	AttrGroupKey   = "group_key"
)

// Message is an outbound queue message. GroupKey and DedupKey are only honored by FIFO-class queues;
// callers are expected to leave them empty otherwise.
type Message struct {
	Body       []byte
	GroupKey   string
	DedupKey   string
	Attributes map[string]string
}

// Delivery is one received queue message. ReceiptHandle is scoped to this delivery and is the only
// thing Delete accepts; it must not be kept past the processing attempt.
type Delivery struct {
	ID            string
	Body          []byte
	ReceiptHandle string
	GroupKey      string
	DedupKey      string
	Attributes    map[string]string
	ReceiveCount  int
}

// ReceiveOptions bounds a single receive call.
type ReceiveOptions struct {
	MaxMessages int
	WaitTime    time.Duration
}

// Queue is an at-least-once message queue with explicit acknowledgement.
type Queue interface {
	Send(ctx context.Context, msg Message) (string, error)
	Receive(ctx context.Context, opts ReceiveOptions) ([]Delivery, error)
	Delete(ctx context.Context, receiptHandle string) error
	FIFO() bool
}

// Notification is a human readable alert published to a broadcast topic.
type Notification struct {
	Subject    string
	Body       string
	GroupKey   string
	DedupKey   string
	Attributes map[string]string
}

// Topic is a broadcast channel for notifications.
type Topic interface {
	Publish(ctx context.Context, n Notification) (string, error)
	FIFO() bool
}

// IsFIFOEndpoint reports whether an SQS URL / SNS ARN / topic name names a FIFO-class resource.
func IsFIFOEndpoint(endpoint string) bool {
	return strings.HasSuffix(strings.TrimSpace(endpoint), ".fifo")
}

// CloneAttributes copies attrs so drivers never share maps with callers.
func CloneAttributes(attrs map[string]string) map[string]string {
	if len(attrs) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
