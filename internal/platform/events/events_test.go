package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestNewRecord(t *testing.T) {
	evt := EnrollmentCompleted{
		SessionID:       "sess-1",
		LeadID:          "lead-1",
		ConsentID:       "consent-1",
		PractitionerID:  "HCP-1",
		ConsentCategory: "Patient",
		OccurredAt:      time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}

	rec, err := newRecord("enrollments", evt)
	if err != nil {
		t.Fatalf("newRecord: %v", err)
	}
	if rec.Topic != "enrollments" {
		t.Errorf("expected topic enrollments, got %s", rec.Topic)
	}
	if string(rec.Key) != "lead-1" {
		t.Errorf("expected record keyed by lead id, got %s", rec.Key)
	}
	if len(rec.Headers) != 1 || string(rec.Headers[0].Value) != TypeEnrollmentCompleted {
		t.Errorf("unexpected headers: %+v", rec.Headers)
	}

	var got envelope
	if err := json.Unmarshal(rec.Value, &got); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	want := envelope{Type: TypeEnrollmentCompleted, Data: evt}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("envelope mismatch (-want +got):\n%s", diff)
	}
}

func TestNewKafkaPublisher_RequiresConfig(t *testing.T) {
	if _, err := NewKafkaPublisher(KafkaConfig{Topic: "t"}, zerolog.Nop()); err == nil {
		t.Error("expected error without brokers")
	}
	if _, err := NewKafkaPublisher(KafkaConfig{Brokers: "localhost:9092"}, zerolog.Nop()); err == nil {
		t.Error("expected error without topic")
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.PublishEnrollmentCompleted(context.Background(), EnrollmentCompleted{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
