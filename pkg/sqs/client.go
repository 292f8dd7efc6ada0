package sqs

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/angelmondragon/shipping-service/pkg/awsclient"
	"github.com/angelmondragon/shipping-service/pkg/config"
	pkgerrors "github.com/angelmondragon/shipping-service/pkg/errors"
	"github.com/angelmondragon/shipping-service/pkg/logger"
	"github.com/angelmondragon/shipping-service/pkg/messaging"
)

const (
	maxBatchSize   = 10
	maxWaitSeconds = 20
)

type api interface {
	SendMessage(ctx context.Context, params *awssqs.SendMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *awssqs.ReceiveMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *awssqs.DeleteMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error)
	GetQueueAttributes(ctx context.Context, params *awssqs.GetQueueAttributesInput, optFns ...func(*awssqs.Options)) (*awssqs.GetQueueAttributesOutput, error)
}

// Queue implements messaging.Queue on top of an SQS standard or FIFO queue.
type Queue struct {
	api      api
	queueURL string
	fifo     bool
}

// NewQueue builds an SQS-backed queue. FIFO is detected from the ".fifo" URL suffix or forced by forceFIFO.
func NewQueue(ctx context.Context, cfg config.AWSConfig, forceFIFO bool, logg *logger.Logger) (*Queue, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, errors.New("sqs queue url is required")
	}
	awsCfg, err := awsclient.LoadConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := awssqs.NewFromConfig(awsCfg, func(o *awssqs.Options) {
		if endpoint := awsclient.BaseEndpoint(cfg); endpoint != nil {
			o.BaseEndpoint = endpoint
		}
	})
	q := newQueue(client, cfg.QueueURL, forceFIFO)
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"queue_url": cfg.QueueURL, "fifo": q.fifo}), "sqs queue initialized")
	}
	return q, nil
}

func newQueue(client api, queueURL string, forceFIFO bool) *Queue {
	return &Queue{
		api:      client,
		queueURL: queueURL,
		fifo:     forceFIFO || messaging.IsFIFOEndpoint(queueURL),
	}
}

func (q *Queue) FIFO() bool { return q.fifo }

func (q *Queue) Send(ctx context.Context, msg messaging.Message) (string, error) {
	input := &awssqs.SendMessageInput{
		QueueUrl:          aws.String(q.queueURL),
		MessageBody:       aws.String(string(msg.Body)),
		MessageAttributes: toMessageAttributes(msg.Attributes),
	}
	if q.fifo {
		if msg.GroupKey == "" || msg.DedupKey == "" {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "fifo queues require group and deduplication keys")
		}
		input.MessageGroupId = aws.String(msg.GroupKey)
		input.MessageDeduplicationId = aws.String(msg.DedupKey)
	}
	out, err := q.api.SendMessage(ctx, input)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeTransport, err, "sqs send message")
	}
	return aws.ToString(out.MessageId), nil
}

func (q *Queue) Receive(ctx context.Context, opts messaging.ReceiveOptions) ([]messaging.Delivery, error) {
	max := opts.MaxMessages
	if max <= 0 || max > maxBatchSize {
		max = maxBatchSize
	}
	wait := int32(opts.WaitTime / time.Second)
	if wait > maxWaitSeconds {
		wait = maxWaitSeconds
	}
	out, err := q.api.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
		QueueUrl:              aws.String(q.queueURL),
		MaxNumberOfMessages:   int32(max),
		WaitTimeSeconds:       wait,
		MessageAttributeNames: []string{"All"},
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameMessageGroupId,
			types.MessageSystemAttributeNameMessageDeduplicationId,
			types.MessageSystemAttributeNameApproximateReceiveCount,
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "sqs receive message")
	}

	deliveries := make([]messaging.Delivery, 0, len(out.Messages))
	for _, m := range out.Messages {
		receiveCount, _ := strconv.Atoi(m.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
		deliveries = append(deliveries, messaging.Delivery{
			ID:            aws.ToString(m.MessageId),
			Body:          []byte(aws.ToString(m.Body)),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			GroupKey:      m.Attributes[string(types.MessageSystemAttributeNameMessageGroupId)],
			DedupKey:      m.Attributes[string(types.MessageSystemAttributeNameMessageDeduplicationId)],
			Attributes:    fromMessageAttributes(m.MessageAttributes),
			ReceiveCount:  receiveCount,
		})
	}
	return deliveries, nil
}

func (q *Queue) Delete(ctx context.Context, receiptHandle string) error {
	if receiptHandle == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "receipt handle required")
	}
	_, err := q.api.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "sqs delete message")
	}
	return nil
}

// Ping verifies the queue exists and is reachable with the configured credentials.
func (q *Queue) Ping(ctx context.Context) error {
	_, err := q.api.GetQueueAttributes(ctx, &awssqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(q.queueURL),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameQueueArn},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "sqs get queue attributes")
	}
	return nil
}

func toMessageAttributes(attrs map[string]string) map[string]types.MessageAttributeValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]types.MessageAttributeValue, len(attrs))
	for k, v := range attrs {
		if v == "" {
			continue
		}
		out[k] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(v),
		}
	}
	return out
}

func fromMessageAttributes(attrs map[string]types.MessageAttributeValue) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		if v.StringValue != nil {
			out[k] = *v.StringValue
		}
	}
	return out
}
