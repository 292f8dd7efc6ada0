package pubsub

import (
	"context"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/shipping-service/pkg/config"
	pkgerrors "github.com/angelmondragon/shipping-service/pkg/errors"
	"github.com/angelmondragon/shipping-service/pkg/messaging"
)

type stubResult struct {
	id  string
	err error
}

func (r stubResult) Get(context.Context) (string, error) { return r.id, r.err }

type stubPublisher struct {
	msgs    []*gcppubsub.Message
	err     error
	resumed []string
}

func (p *stubPublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.msgs = append(p.msgs, msg)
	if p.err != nil {
		return stubResult{err: p.err}
	}
	return stubResult{id: "server-id"}
}

func (p *stubPublisher) ResumePublish(key string) { p.resumed = append(p.resumed, key) }

type stubSubscriber struct {
	resp    *pubsubpb.PullResponse
	pullErr error
	acked   []string
	lastReq *pubsubpb.PullRequest
}

func (s *stubSubscriber) Pull(_ context.Context, req *pubsubpb.PullRequest, _ ...gax.CallOption) (*pubsubpb.PullResponse, error) {
	s.lastReq = req
	if s.pullErr != nil {
		return nil, s.pullErr
	}
	return s.resp, nil
}

func (s *stubSubscriber) Acknowledge(_ context.Context, req *pubsubpb.AcknowledgeRequest, _ ...gax.CallOption) error {
	s.acked = append(s.acked, req.GetAckIds()...)
	return nil
}

func TestQueueSendOrderedSetsKeys(t *testing.T) {
	pub := &stubPublisher{}
	q := newQueue(pub, &stubSubscriber{}, "projects/p/subscriptions/s", true)

	id, err := q.Send(context.Background(), messaging.Message{Body: []byte(`{"id":"S1"}`), GroupKey: "S1", DedupKey: "S1"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id != "server-id" {
		t.Fatalf("unexpected id %q", id)
	}
	msg := pub.msgs[0]
	if msg.OrderingKey != "S1" || msg.Attributes[messaging.AttrDedupKey] != "S1" {
		t.Fatalf("keys not propagated: %+v", msg)
	}
}

func TestQueueSendOrderedRequiresKeys(t *testing.T) {
	q := newQueue(&stubPublisher{}, &stubSubscriber{}, "s", true)
	_, err := q.Send(context.Background(), messaging.Message{Body: []byte("x")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPublishFailureResumesOrderingKey(t *testing.T) {
	pub := &stubPublisher{err: errors.New("unavailable")}
	topic := newTopic(pub, true)

	_, err := topic.Publish(context.Background(), messaging.Notification{Subject: "s", Body: "b", GroupKey: "shipment-notifications", DedupKey: "d"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if len(pub.resumed) != 1 || pub.resumed[0] != "shipment-notifications" {
		t.Fatalf("expected ordering key to be resumed, got %v", pub.resumed)
	}
}

func TestQueueReceiveMapsMessages(t *testing.T) {
	sub := &stubSubscriber{resp: &pubsubpb.PullResponse{ReceivedMessages: []*pubsubpb.ReceivedMessage{{
		AckId: "ack-1",
		Message: &pubsubpb.PubsubMessage{
			MessageId:   "m-1",
			Data:        []byte(`{"id":"S1"}`),
			OrderingKey: "S1",
			Attributes:  map[string]string{messaging.AttrDedupKey: "S1", messaging.AttrAction: "CREATE"},
		},
	}}}}
	q := newQueue(&stubPublisher{}, sub, "projects/p/subscriptions/s", true)

	got, err := q.Receive(context.Background(), messaging.ReceiveOptions{MaxMessages: 10})
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if sub.lastReq.GetMaxMessages() != 10 {
		t.Fatalf("expected max 10, got %d", sub.lastReq.GetMaxMessages())
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	d := got[0]
	if d.ReceiptHandle != "ack-1" || d.GroupKey != "S1" || d.DedupKey != "S1" || d.ReceiveCount != 1 {
		t.Fatalf("unexpected delivery %+v", d)
	}

	if err := q.Delete(context.Background(), d.ReceiptHandle); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(sub.acked) != 1 || sub.acked[0] != "ack-1" {
		t.Fatalf("expected ack-1 acknowledged, got %v", sub.acked)
	}
}

func TestQueueReceiveExpiredWaitIsEmpty(t *testing.T) {
	sub := &stubSubscriber{pullErr: status.Error(codes.DeadlineExceeded, "deadline")}
	q := newQueue(&stubPublisher{}, sub, "s", false)

	got, err := q.Receive(context.Background(), messaging.ReceiveOptions{MaxMessages: 5})
	if err != nil {
		t.Fatalf("expected empty batch, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no deliveries, got %d", len(got))
	}
}

func TestQueueReceiveWrapsErrors(t *testing.T) {
	sub := &stubSubscriber{pullErr: status.Error(codes.PermissionDenied, "denied")}
	q := newQueue(&stubPublisher{}, sub, "s", false)

	if _, err := q.Receive(context.Background(), messaging.ReceiveOptions{}); !pkgerrors.IsCode(err, pkgerrors.CodeTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestResourceNames(t *testing.T) {
	if got := subscriptionResourceName("proj", "sub"); got != "projects/proj/subscriptions/sub" {
		t.Fatalf("unexpected subscription name %q", got)
	}
	if got := topicResourceName("proj", "projects/other/topics/t"); got != "projects/other/topics/t" {
		t.Fatalf("full resource names should pass through, got %q", got)
	}
	if got := topicResourceName("", "t"); got != "" {
		t.Fatalf("expected empty name without project, got %q", got)
	}
}

func TestClientOptionsPreferInlineCredentials(t *testing.T) {
	if got := clientOptions(config.GCPConfig{ProjectID: "p"}); len(got) != 0 {
		t.Fatalf("expected default credentials, got %d options", len(got))
	}
	if got := clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/tmp/key.json"}); len(got) != 1 {
		t.Fatalf("expected one credentials option, got %d", len(got))
	}
	if got := clientOptions(config.GCPConfig{ApplicationCredentials: "/tmp/key.json"}); len(got) != 1 {
		t.Fatalf("expected one credentials option, got %d", len(got))
	}
}
