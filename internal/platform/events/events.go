// Package events publishes enrollment lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const TypeEnrollmentCompleted = "enrollment.completed"

// EnrollmentCompleted is emitted once a lead and its consent exist.
type EnrollmentCompleted struct {
	SessionID       string    `json:"session_id"`
	LeadID          string    `json:"lead_id"`
	ConsentID       string    `json:"consent_id"`
	PractitionerID  string    `json:"practitioner_id"`
	ConsentCategory string    `json:"consent_category"`
	Minor           bool      `json:"minor"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishEnrollmentCompleted(ctx context.Context, evt EnrollmentCompleted) error
	Close() error
}

type envelope struct {
	Type string              `json:"type"`
	Data EnrollmentCompleted `json:"data"`
}

// newRecord keys the record by lead id so events for one lead stay ordered.
func newRecord(topic string, evt EnrollmentCompleted) (*kgo.Record, error) {
	value, err := json.Marshal(envelope{Type: TypeEnrollmentCompleted, Data: evt})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", TypeEnrollmentCompleted, err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(evt.LeadID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(TypeEnrollmentCompleted)},
		},
	}, nil
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishEnrollmentCompleted(context.Context, EnrollmentCompleted) error { return nil }
func (Nop) Close() error                                                        { return nil }
