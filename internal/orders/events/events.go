package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ptcms/pkg/kafka"
	"ptcms/pkg/logger"
	"ptcms/pkg/middleware"

	"github.com/shopspring/decimal"
)

const (
	TypeBookingUpdated   = "booking.updated"
	TypeBookingSubmitted = "booking.submitted"
	TypeBookingAssigned  = "booking.assigned"

	SchemaVersion = "1"
	Source        = "ptcms-orders"
)

// BookingEvent announces a change made through the order console.
type BookingEvent struct {
	Type       string          `json:"type"`
	BookingID  int64           `json:"bookingId"`
	Status     string          `json:"status,omitempty"`
	TotalCost  decimal.Decimal `json:"totalCost"`
	TripIDs    []int64         `json:"tripIds,omitempty"`
	DriverID   *int64          `json:"driverId,omitempty"`
	VehicleID  *int64          `json:"vehicleId,omitempty"`
	ActorID    int64           `json:"actorId,omitempty"`
	Actor      string          `json:"actor,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}

type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer MessagePublisher
	log      *logger.Logger
}

func NewKafkaPublisher(producer MessagePublisher, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, log: log}
}

// Publish keys the message by booking id so one booking's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if principal, ok := middleware.PrincipalFromContext(ctx); ok {
		event.ActorID = principal.UserID
		event.Actor = principal.Username
	}

	msg, err := kafka.NewMessage().
		WithKey(strconv.FormatInt(event.BookingID, 10)).
		WithValue(event).
		WithEventType(event.Type).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()
	if err != nil {
		return fmt.Errorf("build %s event: %w", event.Type, err)
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BookingEvent) error {
	return nil
}
