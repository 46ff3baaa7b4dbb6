package events

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/landgrants/agreement-backend/pkg/config"
	"github.com/landgrants/agreement-backend/pkg/enums"
	"github.com/landgrants/agreement-backend/pkg/logger"
)

type fakeResult struct {
	err error
}

func (r fakeResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}

type fakePublisher struct {
	messages []*gcppubsub.Message
	errs     []error
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	idx := len(p.messages) - 1
	if idx < len(p.errs) {
		return fakeResult{err: p.errs[idx]}
	}
	return fakeResult{}
}

func newTestPublisher(t *testing.T, fake *fakePublisher, logOut *bytes.Buffer) *Publisher {
	t.Helper()
	out := logOut
	if out == nil {
		out = &bytes.Buffer{}
	}
	pub, err := NewPublisher(PublisherParams{
		Config: config.EventingConfig{
			PublishMaxAttempts:    3,
			PublishBackoffInitial: time.Millisecond,
			PublishBackoffMax:     5 * time.Millisecond,
		},
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: out}),
		Factory: func(string) topicPublisher { return fake },
	})
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	pub.sleep = func(context.Context, time.Duration) error { return nil }
	return pub
}

func publish(t *testing.T, pub *Publisher) error {
	t.Helper()
	return pub.Publish(context.Background(), PublishInput{
		Topic: "agreement-events",
		Type:  enums.EventAgreementAccepted,
		Time:  time.Now(),
		Data:  map[string]string{"agreementNumber": "SFI123456789"},
	})
}

func TestPublishRetriesRetryableFailureOnce(t *testing.T) {
	fake := &fakePublisher{errs: []error{status.Error(codes.Unavailable, "upstream 500")}}
	logOut := &bytes.Buffer{}

	if err := publish(t, newTestPublisher(t, fake, logOut)); err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}

	if len(fake.messages) != 2 {
		t.Fatalf("expected exactly 2 sends, got %d", len(fake.messages))
	}
	if got := strings.Count(logOut.String(), "lifecycle event publish failed"); got != 1 {
		t.Fatalf("expected exactly 1 error log, got %d", got)
	}
}

func TestPublishNonRetryableFailsImmediately(t *testing.T) {
	fake := &fakePublisher{errs: []error{status.Error(codes.InvalidArgument, "bad request")}}

	err := publish(t, newTestPublisher(t, fake, nil))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(fake.messages) != 1 {
		t.Fatalf("expected exactly 1 send, got %d", len(fake.messages))
	}
	if !strings.Contains(err.Error(), "bad request") {
		t.Fatalf("expected the last error re-thrown, got %q", err.Error())
	}
}

func TestPublishExhaustsAttempts(t *testing.T) {
	unavailable := status.Error(codes.Unavailable, "still down")
	fake := &fakePublisher{errs: []error{unavailable, unavailable, unavailable}}

	err := publish(t, newTestPublisher(t, fake, nil))
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if len(fake.messages) != 3 {
		t.Fatalf("expected 3 sends, got %d", len(fake.messages))
	}
}

func TestPublishWrapsCloudEventsEnvelope(t *testing.T) {
	fake := &fakePublisher{}

	if err := publish(t, newTestPublisher(t, fake, nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.messages) != 1 {
		t.Fatalf("expected 1 send, got %d", len(fake.messages))
	}

	var envelope CloudEvent
	if err := json.Unmarshal(fake.messages[0].Data, &envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if envelope.SpecVersion != "1.0" {
		t.Fatalf("expected specversion 1.0, got %q", envelope.SpecVersion)
	}
	if envelope.Type != enums.EventAgreementAccepted {
		t.Fatalf("unexpected type %q", envelope.Type)
	}
	if envelope.ID == "" {
		t.Fatal("expected a generated event id")
	}
	if envelope.DataContentType != "application/json" {
		t.Fatalf("unexpected datacontenttype %q", envelope.DataContentType)
	}
}
