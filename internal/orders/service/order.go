package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"ptcms/internal/orders/assignment"
	"ptcms/internal/orders/availability"
	orderserrors "ptcms/internal/orders/errors"
	"ptcms/internal/orders/events"
	"ptcms/internal/orders/form"
	"ptcms/internal/orders/quote"
	"ptcms/pkg/config"
	apperrors "ptcms/pkg/errors"
	"ptcms/pkg/middleware"
	"ptcms/pkg/model"

	"github.com/shopspring/decimal"
)

const (
	prefixAssignFailed = "Gán tài xế/xe thất bại: "
	prefixSaveFailed   = "Lưu thất bại: "
	prefixSubmitFailed = "Cập nhật đơn thất bại: "
)

type OrderService interface {
	Load(ctx context.Context, id int64) (*OrderView, error)
	Save(ctx context.Context, id int64, in form.Input, submit bool) (*SaveResponse, error)
	Assign(ctx context.Context, id int64, req assignment.Request) (*assignment.Result, error)
	Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error)
	CheckAvailability(ctx context.Context, req availability.Request) (*availability.Result, error)
	Reference(ctx context.Context) (*model.ReferenceData, error)
	RefreshReference(ctx context.Context) (*model.ReferenceData, error)
	Drivers(ctx context.Context, branchID int64, q string) ([]model.Driver, error)
	Vehicles(ctx context.Context, branchID int64, q string) ([]model.Vehicle, error)

	// OpenForm loads the booking as an editable form for a live session.
	OpenForm(ctx context.Context, id int64) (*form.Form, error)
}

type BookingReader interface {
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
}

type ReferenceSource interface {
	Load(ctx context.Context) (*model.ReferenceData, error)
	AvgSpeed(ctx context.Context, fallback int) int
	SearchDrivers(ctx context.Context, branchID int64, q string) ([]model.Driver, error)
	SearchVehicles(ctx context.Context, branchID int64, q string) ([]model.Vehicle, error)
	Invalidate(ctx context.Context) error
}

type Quoter interface {
	Calculate(ctx context.Context, p quote.Params) (decimal.Decimal, error)
}

type AvailabilityChecker interface {
	Check(ctx context.Context, req availability.Request) (*availability.Result, error)
}

type Assigner interface {
	Assign(ctx context.Context, req assignment.Request) (*assignment.Result, error)
	Remaining(ctx context.Context, bookingID int64) time.Duration
}

type FormSaver interface {
	Save(ctx context.Context, f *form.Form, opts form.SaveOptions) (*form.SaveResult, error)
}

// Dependencies are the collaborators of the order service. Events may be nil.
type Dependencies struct {
	Bookings     BookingReader
	Reference    ReferenceSource
	Quoter       Quoter
	Availability AvailabilityChecker
	Assigner     Assigner
	Saver        FormSaver
	Events       events.Publisher
}

// OrderView is everything the edit page renders on load.
type OrderView struct {
	Form              *form.Form           `json:"form"`
	StatusLabel       string               `json:"statusLabel"`
	CanEdit           bool                 `json:"canEdit"`
	LockedReason      string               `json:"lockedReason,omitempty"`
	Advisory          string               `json:"advisory,omitempty"`
	CanEditDriverNote bool                 `json:"canEditDriverNote"`
	FinalPrice        decimal.Decimal      `json:"finalPrice"`
	ETA               *quote.ETA           `json:"eta,omitempty"`
	CooldownSeconds   int                  `json:"cooldownSeconds"`
	Reference         *model.ReferenceData `json:"reference,omitempty"`
}

type SaveResponse struct {
	Order   *OrderView `json:"order"`
	Message string     `json:"message"`
}

type QuoteRequest struct {
	quote.Params
	Discount string `json:"discount"`
}

type QuoteResponse struct {
	SystemPrice decimal.Decimal `json:"systemPrice"`
	FinalPrice  decimal.Decimal `json:"finalPrice"`
	Message     string          `json:"message"`
}

type orderService struct {
	deps Dependencies
	cfg  *config.Config
	now  func() time.Time
}

func NewOrderService(deps Dependencies, cfg *config.Config) OrderService {
	if deps.Events == nil {
		deps.Events = events.NoopPublisher{}
	}
	return &orderService{
		deps: deps,
		cfg:  cfg,
		now:  time.Now,
	}
}

func (s *orderService) location() *time.Location {
	if s.cfg.Location != nil {
		return s.cfg.Location
	}
	return time.UTC
}

func callerRole(ctx context.Context) model.Role {
	if p, ok := middleware.PrincipalFromContext(ctx); ok {
		return p.Role
	}
	return ""
}

// reference never fails the caller: the form still renders with raw ids.
func (s *orderService) reference(ctx context.Context) *model.ReferenceData {
	ref, err := s.deps.Reference.Load(ctx)
	if err != nil {
		s.cfg.Log.Warn("Reference data unavailable", "error", err)
		return nil
	}
	return ref
}

func (s *orderService) booking(ctx context.Context, id int64) (*model.Booking, error) {
	booking, err := s.deps.Bookings.GetByID(ctx, id)
	if err != nil {
		s.cfg.Log.Warn("Failed to load booking", "booking_id", id, "error", err)
		return nil, mapLoadError(err, id)
	}
	return booking, nil
}

func (s *orderService) Load(ctx context.Context, id int64) (*OrderView, error) {
	booking, err := s.booking(ctx, id)
	if err != nil {
		return nil, err
	}
	ref := s.reference(ctx)
	return s.view(ctx, form.FromBooking(booking, ref, s.location()), ref), nil
}

func (s *orderService) OpenForm(ctx context.Context, id int64) (*form.Form, error) {
	booking, err := s.booking(ctx, id)
	if err != nil {
		return nil, err
	}
	return form.FromBooking(booking, s.reference(ctx), s.location()), nil
}

func (s *orderService) view(ctx context.Context, f *form.Form, ref *model.ReferenceData) *OrderView {
	now := s.now()
	v := &OrderView{
		Form:              f,
		StatusLabel:       f.Status.Label(),
		CanEdit:           f.CanEdit(),
		LockedReason:      f.LockedReason(),
		Advisory:          f.Advisory(),
		CanEditDriverNote: f.CanEditDriverNote(callerRole(ctx), now),
		FinalPrice:        f.FinalPrice(),
		Reference:         ref,
	}

	if start, end := f.Window(); !start.IsZero() && f.DistanceKm > 0 {
		speed := s.deps.Reference.AvgSpeed(ctx, s.cfg.DefaultAvgSpeedKmph)
		v.ETA = quote.EstimateETA(f.HireType, f.DistanceKm, start, end, speed)
	}
	if s.deps.Assigner != nil {
		if left := s.deps.Assigner.Remaining(ctx, f.BookingID); left > 0 {
			v.CooldownSeconds = (&assignment.CooldownError{Remaining: left}).Seconds()
		}
	}
	return v
}

func (s *orderService) Save(ctx context.Context, id int64, in form.Input, submit bool) (*SaveResponse, error) {
	booking, err := s.booking(ctx, id)
	if err != nil {
		return nil, err
	}
	ref := s.reference(ctx)
	role := callerRole(ctx)

	f := form.FromBooking(booking, ref, s.location())
	if !f.CanEdit() {
		return nil, apperrors.Locked(f.LockedReason())
	}
	f.Apply(in, role, s.now())

	res, err := s.deps.Saver.Save(ctx, f, form.SaveOptions{Role: role, Submit: submit})
	if err != nil {
		prefix := prefixSaveFailed
		if submit {
			prefix = prefixSubmitFailed
		}
		if errors.Is(err, orderserrors.ErrOrderLocked) {
			return nil, apperrors.Locked(f.LockedReason())
		}
		s.cfg.Log.Warn("Order save failed", "booking_id", id, "submit", submit, "error", err)
		return nil, mapError(err, prefix)
	}

	saved := f
	if res.Booking != nil && res.Booking.ID != 0 {
		saved = form.FromBooking(res.Booking, ref, s.location())
	}
	s.cfg.Log.Info("Order saved", "booking_id", id, "submit", submit, "status", saved.Status.String())
	return &SaveResponse{Order: s.view(ctx, saved, ref), Message: res.Message}, nil
}

// Assign works on the trips and branch of the stored booking. Trip ids in
// the request narrow the set; ids that belong to another booking are dropped.
func (s *orderService) Assign(ctx context.Context, id int64, req assignment.Request) (*assignment.Result, error) {
	booking, err := s.booking(ctx, id)
	if err != nil {
		return nil, err
	}
	req.BookingID = id
	req.BranchID = booking.BranchID
	req.TripIDs = ownTrips(booking, req.TripIDs)

	result, err := s.deps.Assigner.Assign(ctx, req)
	if err != nil {
		return nil, mapError(err, prefixAssignFailed)
	}

	event := events.BookingEvent{
		Type:      events.TypeBookingAssigned,
		BookingID: id,
		TripIDs:   req.TripIDs,
		DriverID:  req.DriverID,
		VehicleID: req.VehicleID,
	}
	if err := s.deps.Events.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event", "booking_id", id, "type", event.Type, "error", err)
	}
	return result, nil
}

func ownTrips(booking *model.Booking, requested []int64) []int64 {
	owned := booking.TripIDs()
	if len(requested) == 0 {
		return owned
	}
	kept := make([]int64, 0, len(requested))
	for _, id := range requested {
		if slices.Contains(owned, id) && !slices.Contains(kept, id) {
			kept = append(kept, id)
		}
	}
	return kept
}

func (s *orderService) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	price, err := s.deps.Quoter.Calculate(ctx, req.Params)
	if err != nil {
		return nil, mapError(err, quote.FailurePrefix)
	}
	return &QuoteResponse{
		SystemPrice: price,
		FinalPrice:  quote.FinalPrice(price, req.Discount),
		Message:     quote.RecalculatedMessage(price),
	}, nil
}

func (s *orderService) CheckAvailability(ctx context.Context, req availability.Request) (*availability.Result, error) {
	if ref := s.reference(ctx); ref != nil {
		req.Categories = ref.Categories
	}
	result, err := s.deps.Availability.Check(ctx, req)
	if err != nil {
		return nil, mapError(err, "")
	}
	return result, nil
}

func (s *orderService) Reference(ctx context.Context) (*model.ReferenceData, error) {
	ref, err := s.deps.Reference.Load(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to load reference data", "error", err)
		return nil, mapError(err, "")
	}
	return ref, nil
}

// RefreshReference drops the cached catalogs after an admin edited them and
// returns a fresh copy. Managers and admins only.
func (s *orderService) RefreshReference(ctx context.Context) (*model.ReferenceData, error) {
	if role := callerRole(ctx); role != model.RoleAdmin && role != model.RoleManager {
		return nil, apperrors.Forbidden("Bạn không có quyền làm mới dữ liệu danh mục")
	}
	if err := s.deps.Reference.Invalidate(ctx); err != nil {
		s.cfg.Log.Warn("Failed to invalidate reference cache", "error", err)
	}
	return s.Reference(ctx)
}

func (s *orderService) Drivers(ctx context.Context, branchID int64, q string) ([]model.Driver, error) {
	drivers, err := s.deps.Reference.SearchDrivers(ctx, branchID, q)
	if err != nil {
		return nil, mapError(err, "")
	}
	if drivers == nil {
		drivers = []model.Driver{}
	}
	return drivers, nil
}

func (s *orderService) Vehicles(ctx context.Context, branchID int64, q string) ([]model.Vehicle, error) {
	vehicles, err := s.deps.Reference.SearchVehicles(ctx, branchID, q)
	if err != nil {
		return nil, mapError(err, "")
	}
	if vehicles == nil {
		vehicles = []model.Vehicle{}
	}
	return vehicles, nil
}
