// Package events publishes appointment and availability domain events.
package events

import (
	"context"
	"time"

	"medibuddy/pkg/kafka"
	"medibuddy/pkg/logger"
	"medibuddy/pkg/model"
)

const (
	AppointmentCreated       = "appointment.created"
	AppointmentStatusChanged = "appointment.status_changed"
	AppointmentRescheduled   = "appointment.rescheduled"
	AvailabilityReplaced     = "doctor.availability_replaced"

	SchemaVersion = "1"
)

type Event struct {
	Type           string                  `json:"type"`
	AppointmentID  string                  `json:"appointmentId,omitempty"`
	DoctorID       string                  `json:"doctorId"`
	PatientID      string                  `json:"patientId,omitempty"`
	ActorID        string                  `json:"actorId"`
	Status         model.AppointmentStatus `json:"status,omitempty"`
	PreviousStatus model.AppointmentStatus `json:"previousStatus,omitempty"`
	DateTime       *time.Time              `json:"dateTime,omitempty"`
	PreviousTime   *time.Time              `json:"previousDateTime,omitempty"`
	WindowCount    int                     `json:"windowCount,omitempty"`
	OccurredAt     time.Time               `json:"occurredAt"`
}

// Key is the partition key: events for one appointment, or for one doctor's
// template, stay ordered.
func (e Event) Key() string {
	if e.AppointmentID != "" {
		return e.AppointmentID
	}
	return e.DoctorID
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type KafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := kafka.NewMessage().
		WithKey(event.Key()).
		WithEventType(event.Type).
		WithSource(p.source).
		WithSchemaVersion(SchemaVersion).
		WithCorrelationID(logger.RequestID(ctx)).
		WithTimestamp(event.OccurredAt).
		WithValue(event).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// Noop discards events. It is used when the broker is disabled.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
