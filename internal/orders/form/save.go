package form

import (
	"context"
	"fmt"

	orderserrors "ptcms/internal/orders/errors"
	"ptcms/internal/orders/events"
	"ptcms/internal/orders/flow"
	"ptcms/internal/orders/validator"
	"ptcms/pkg/logger"
	"ptcms/pkg/model"
)

const (
	FlowSaveDraft = "save-draft"
	FlowSubmit    = "submit"

	// SubmitStatus is forced on submit so the order re-enters the queue.
	SubmitStatus = "PENDING"

	MessageSaved     = "Đã lưu thay đổi."
	MessageSubmitted = "Đã cập nhật đơn hàng."
)

const (
	keyForm    = "form"
	keyRole    = "role"
	keyStatus  = "status"
	keyPayload = "payload"
	keyBooking = "booking"
	keyEvent   = "eventType"
)

type BookingUpdater interface {
	Update(ctx context.Context, id int64, update *model.BookingUpdate) (*model.Booking, error)
}

type SaveOptions struct {
	Role   model.Role
	Submit bool
}

type SaveResult struct {
	Booking *model.Booking
	Message string
}

// Saver runs the save pipelines. Validation failures return
// validator.ValidationErrors and a locked order returns ErrOrderLocked.
type Saver struct {
	engine    *flow.Engine
	bookings  BookingUpdater
	validator *validator.OrderValidator
	events    events.Publisher
	log       *logger.Logger
}

func NewSaver(bookings BookingUpdater, v *validator.OrderValidator, publisher events.Publisher, log *logger.Logger) *Saver {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	s := &Saver{
		bookings:  bookings,
		validator: v,
		events:    publisher,
		log:       log,
	}
	steps := []*flow.Step{
		flow.NewStep("check-editable", s.checkEditable),
		flow.NewStep("validate", s.validate),
		flow.NewStep("build-payload", s.buildPayload),
		flow.NewStep("update-booking", s.updateBooking),
		flow.NewStep("publish-event", s.publishEvent),
	}
	s.engine = flow.NewEngine(
		flow.NewPipeline(FlowSaveDraft, steps...),
		flow.NewPipeline(FlowSubmit, steps...),
	)
	return s
}

// Save leaves f untouched on failure so the console keeps what was typed.
func (s *Saver) Save(ctx context.Context, f *Form, opts SaveOptions) (*SaveResult, error) {
	flowName, status, eventType, message := FlowSaveDraft, "", events.TypeBookingUpdated, MessageSaved
	if opts.Submit {
		flowName, status, eventType, message = FlowSubmit, SubmitStatus, events.TypeBookingSubmitted, MessageSubmitted
	}

	fctx := flow.NewContext(ctx, map[string]any{
		keyForm:   f,
		keyRole:   opts.Role,
		keyStatus: status,
		keyEvent:  eventType,
	})
	if err := s.engine.Run(flowName, fctx); err != nil {
		return nil, err
	}

	booking, err := flow.Get[*model.Booking](fctx.Output, keyBooking)
	if err != nil {
		return nil, err
	}
	return &SaveResult{Booking: booking, Message: message}, nil
}

func (s *Saver) checkEditable(ctx *flow.Context) error {
	f, err := flow.Get[*Form](ctx.Input, keyForm)
	if err != nil {
		return err
	}
	if !f.CanEdit() {
		return orderserrors.ErrOrderLocked
	}
	return nil
}

func (s *Saver) validate(ctx *flow.Context) error {
	f, err := flow.Get[*Form](ctx.Input, keyForm)
	if err != nil {
		return err
	}
	role, _ := ctx.Input[keyRole].(model.Role)
	return s.validator.Validate(f.validationOrder(role))
}

func (s *Saver) buildPayload(ctx *flow.Context) error {
	f, err := flow.Get[*Form](ctx.Input, keyForm)
	if err != nil {
		return err
	}
	role, _ := ctx.Input[keyRole].(model.Role)
	status, _ := ctx.Input[keyStatus].(string)

	payload, err := f.BuildPayload(role, status)
	if err != nil {
		return err
	}
	ctx.Process[keyPayload] = payload
	return nil
}

func (s *Saver) updateBooking(ctx *flow.Context) error {
	f, err := flow.Get[*Form](ctx.Input, keyForm)
	if err != nil {
		return err
	}
	payload, err := flow.Get[*model.BookingUpdate](ctx.Process, keyPayload)
	if err != nil {
		return err
	}

	booking, err := s.bookings.Update(ctx, f.BookingID, payload)
	if err != nil {
		return fmt.Errorf("update booking %d: %w", f.BookingID, err)
	}
	if booking == nil {
		booking = &model.Booking{ID: f.BookingID}
	}
	ctx.Output[keyBooking] = booking
	return nil
}

// publishEvent never fails the save; the booking is already updated.
func (s *Saver) publishEvent(ctx *flow.Context) error {
	f, err := flow.Get[*Form](ctx.Input, keyForm)
	if err != nil {
		return err
	}
	payload, err := flow.Get[*model.BookingUpdate](ctx.Process, keyPayload)
	if err != nil {
		return err
	}
	eventType, _ := ctx.Input[keyEvent].(string)

	status := payload.Status
	if status == "" {
		status = f.Status.String()
	}
	event := events.BookingEvent{
		Type:      eventType,
		BookingID: f.BookingID,
		Status:    status,
		TotalCost: payload.TotalCost,
		TripIDs:   f.TripIDs,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("Failed to publish booking event",
			"booking_id", f.BookingID,
			"event_type", eventType,
			"error", err,
		)
	}
	return nil
}
