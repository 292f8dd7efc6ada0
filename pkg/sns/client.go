package sns

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/angelmondragon/shipping-service/pkg/awsclient"
	"github.com/angelmondragon/shipping-service/pkg/config"
	pkgerrors "github.com/angelmondragon/shipping-service/pkg/errors"
	"github.com/angelmondragon/shipping-service/pkg/logger"
	"github.com/angelmondragon/shipping-service/pkg/messaging"
)

// SNS subjects are ASCII only and shorter than 100 characters.
const maxSubjectLen = 99

type api interface {
	Publish(ctx context.Context, params *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
	GetTopicAttributes(ctx context.Context, params *awssns.GetTopicAttributesInput, optFns ...func(*awssns.Options)) (*awssns.GetTopicAttributesOutput, error)
}

// Topic implements messaging.Topic on top of an SNS standard or FIFO topic.
type Topic struct {
	api      api
	topicARN string
	fifo     bool
}

// NewTopic builds an SNS-backed topic. FIFO is detected from the ".fifo" ARN suffix or forced by forceFIFO.
func NewTopic(ctx context.Context, cfg config.AWSConfig, forceFIFO bool, logg *logger.Logger) (*Topic, error) {
	if strings.TrimSpace(cfg.TopicARN) == "" {
		return nil, errors.New("sns topic arn is required")
	}
	awsCfg, err := awsclient.LoadConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := awssns.NewFromConfig(awsCfg, func(o *awssns.Options) {
		if endpoint := awsclient.BaseEndpoint(cfg); endpoint != nil {
			o.BaseEndpoint = endpoint
		}
	})
	t := newTopic(client, cfg.TopicARN, forceFIFO)
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"topic_arn": cfg.TopicARN, "fifo": t.fifo}), "sns topic initialized")
	}
	return t, nil
}

func newTopic(client api, topicARN string, forceFIFO bool) *Topic {
	return &Topic{
		api:      client,
		topicARN: topicARN,
		fifo:     forceFIFO || messaging.IsFIFOEndpoint(topicARN),
	}
}

func (t *Topic) FIFO() bool { return t.fifo }

func (t *Topic) Publish(ctx context.Context, n messaging.Notification) (string, error) {
	attrs := messaging.CloneAttributes(n.Attributes)
	if n.Subject != "" {
		attrs[messaging.AttrSubject] = n.Subject
	}
	input := &awssns.PublishInput{
		TopicArn:          aws.String(t.topicARN),
		Message:           aws.String(n.Body),
		MessageAttributes: toMessageAttributes(attrs),
	}
	if subject := asciiSubject(n.Subject); subject != "" {
		input.Subject = aws.String(subject)
	}
	if t.fifo {
		if n.GroupKey == "" || n.DedupKey == "" {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "fifo topics require group and deduplication keys")
		}
		input.MessageGroupId = aws.String(n.GroupKey)
		input.MessageDeduplicationId = aws.String(n.DedupKey)
	}
	out, err := t.api.Publish(ctx, input)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeTransport, err, "sns publish")
	}
	return aws.ToString(out.MessageId), nil
}

// Ping verifies the topic exists and is reachable with the configured credentials.
func (t *Topic) Ping(ctx context.Context) error {
	if _, err := t.api.GetTopicAttributes(ctx, &awssns.GetTopicAttributesInput{TopicArn: aws.String(t.topicARN)}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "sns get topic attributes")
	}
	return nil
}

// asciiSubject strips diacritics and anything else SNS rejects in a subject line.
// The original subject still travels in the "subject" message attribute.
func asciiSubject(subject string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), subject)
	if err != nil {
		folded = subject
	}
	var b strings.Builder
	for _, r := range folded {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if len(out) > maxSubjectLen {
		out = out[:maxSubjectLen]
	}
	return out
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
