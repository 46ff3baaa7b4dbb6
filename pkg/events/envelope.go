package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/landgrants/agreement-backend/pkg/enums"
)

const (
	envelopeSource      = "agreement-backend"
	envelopeSpecVersion = "1.0"
	envelopeContentType = "application/json"
)

// CloudEvent is the published notification envelope.
type CloudEvent struct {
	ID              string                   `json:"id"`
	Source          string                   `json:"source"`
	SpecVersion     string                   `json:"specversion"`
	Type            enums.LifecycleEventType `json:"type"`
	Time            time.Time                `json:"time"`
	DataContentType string                   `json:"datacontenttype"`
	Data            json.RawMessage          `json:"data"`
}

func newEnvelope(eventType enums.LifecycleEventType, eventTime time.Time, data any) (CloudEvent, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return CloudEvent{}, err
	}
	if eventTime.IsZero() {
		eventTime = time.Now().UTC()
	}
	return CloudEvent{
		ID:              uuid.NewString(),
		Source:          envelopeSource,
		SpecVersion:     envelopeSpecVersion,
		Type:            eventType,
		Time:            eventTime,
		DataContentType: envelopeContentType,
		Data:            payload,
	}, nil
}
