package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/landgrants/agreement-backend/pkg/config"
	"github.com/landgrants/agreement-backend/pkg/enums"
	"github.com/landgrants/agreement-backend/pkg/logger"
	"github.com/landgrants/agreement-backend/pkg/metrics"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 5 * time.Second
	defaultPublishTimeout = 15 * time.Second
)

type topicPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type publisherFactory func(topic string) topicPublisher

type pubSubClient interface {
	Publisher(name string) *gcppubsub.Publisher
}

// Publisher sends lifecycle notifications wrapped in a CloudEvents envelope.
// Publishing happens after the state transition is durable and is best-effort:
// retryable failures get up to the configured attempts with exponential
// backoff, then the last error surfaces to the caller.
type Publisher struct {
	logg           *logger.Logger
	factory        publisherFactory
	metrics        *metrics.EventPublishMetrics
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	sleep          func(context.Context, time.Duration) error
}

// PublisherParams collects Publisher dependencies.
type PublisherParams struct {
	Config  config.EventingConfig
	Logger  *logger.Logger
	PubSub  pubSubClient
	Metrics *metrics.EventPublishMetrics

	// Factory overrides the Pub/Sub-backed publisher lookup, used in tests.
	Factory func(topic string) topicPublisher
}

// PublishInput is one lifecycle notification to send.
type PublishInput struct {
	Topic string
	Type  enums.LifecycleEventType
	Time  time.Time
	Data  any
}

// NewPublisher wires a Publisher from explicit dependencies.
func NewPublisher(params PublisherParams) (*Publisher, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}

	factory := params.Factory
	if factory == nil {
		if params.PubSub == nil {
			return nil, errors.New("pubsub client is required")
		}
		factory = func(topic string) topicPublisher {
			pub := params.PubSub.Publisher(topic)
			if pub == nil {
				return nil
			}
			return &gcpPublisher{Publisher: pub}
		}
	}

	maxAttempts := params.Config.PublishMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	initial := params.Config.PublishBackoffInitial
	if initial <= 0 {
		initial = defaultInitialBackoff
	}
	max := params.Config.PublishBackoffMax
	if max <= 0 {
		max = defaultMaxBackoff
	}

	return &Publisher{
		logg:           params.Logger,
		factory:        factory,
		metrics:        params.Metrics,
		maxAttempts:    maxAttempts,
		initialBackoff: initial,
		maxBackoff:     max,
		sleep:          sleepWithContext,
	}, nil
}

// Publish wraps the payload in a CloudEvents envelope and sends it, retrying
// retryable failures only. Backoff applies between attempts, never after the
// last one.
func (p *Publisher) Publish(ctx context.Context, input PublishInput) error {
	if input.Topic == "" {
		return errors.New("topic is required")
	}
	if input.Type == "" {
		return errors.New("event type is required")
	}

	envelope, err := newEnvelope(input.Type, input.Time, input.Data)
	if err != nil {
		return fmt.Errorf("encoding event data: %w", err)
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encoding event envelope: %w", err)
	}

	pub := p.factory(input.Topic)
	if pub == nil {
		return fmt.Errorf("publisher not configured for topic %s", input.Topic)
	}

	msg := &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_id":   envelope.ID,
			"event_type": string(envelope.Type),
			"source":     envelope.Source,
		},
	}

	backoff := p.initialBackoff
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		p.metrics.IncAttempt(string(input.Type))

		err := p.send(ctx, pub, msg)
		if err == nil {
			p.metrics.IncPublished(string(input.Type))
			logCtx := p.logg.WithFields(ctx, map[string]any{
				"event_id":   envelope.ID,
				"event_type": envelope.Type,
				"topic":      input.Topic,
				"attempt":    attempt,
			})
			p.logg.Info(logCtx, "lifecycle event published")
			return nil
		}

		lastErr = err
		logCtx := p.logg.WithFields(ctx, map[string]any{
			"event_id":   envelope.ID,
			"event_type": envelope.Type,
			"topic":      input.Topic,
			"attempt":    attempt,
		})
		p.logg.Error(logCtx, "lifecycle event publish failed", err)

		if !isRetryable(err) || attempt == p.maxAttempts {
			break
		}
		if sleepErr := p.sleep(ctx, backoff); sleepErr != nil {
			return sleepErr
		}
		backoff = nextBackoff(backoff, p.maxBackoff)
	}

	p.metrics.IncFailed(string(input.Type))
	return fmt.Errorf("publishing event %s: %w", envelope.ID, lastErr)
}

func (p *Publisher) send(ctx context.Context, pub topicPublisher, msg *gcppubsub.Message) error {
	sendCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := pub.Publish(sendCtx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	_, err := result.Get(sendCtx)
	return err
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}
