package assignment

import (
	"context"
	"fmt"
	"sync"
	"time"

	orderserrors "ptcms/internal/orders/errors"
	"ptcms/pkg/logger"
	"ptcms/pkg/model"
)

const SuccessMessage = "Đã gán tài xế/xe cho đơn hàng"

type Assigner interface {
	Assign(ctx context.Context, bookingID int64, req *model.AssignmentRequest) error
}

// CrewDirectory lists the drivers and vehicles of a branch for display.
type CrewDirectory interface {
	Drivers(ctx context.Context, branchID int64) ([]model.Driver, error)
	Vehicles(ctx context.Context, branchID int64) ([]model.Vehicle, error)
}

type Request struct {
	BookingID int64   `json:"-"`
	BranchID  int64   `json:"branchId"`
	TripIDs   []int64 `json:"tripIds"`
	DriverID  *int64  `json:"driverId,omitempty"`
	VehicleID *int64  `json:"vehicleId,omitempty"`
}

type Result struct {
	Message         string         `json:"message"`
	AssignedDriver  *model.Driver  `json:"assignedDriver,omitempty"`
	AssignedVehicle *model.Vehicle `json:"assignedVehicle,omitempty"`
	CooldownUntil   time.Time      `json:"cooldownUntil"`
}

type Coordinator struct {
	assigner  Assigner
	crew      CrewDirectory
	cooldowns CooldownStore
	window    time.Duration
	log       *logger.Logger
	now       func() time.Time

	// locks serializes assignments of the same booking within this process.
	// An entry lives only while someone holds or waits for it.
	mu    sync.Mutex
	locks map[int64]*bookingLock
}

type bookingLock struct {
	sync.Mutex
	refs int
}

func NewCoordinator(assigner Assigner, crew CrewDirectory, cooldowns CooldownStore, window time.Duration, log *logger.Logger) *Coordinator {
	if window <= 0 {
		window = DefaultCooldown
	}
	if cooldowns == nil {
		cooldowns = NewMemoryCooldownStore()
	}
	return &Coordinator{
		assigner:  assigner,
		crew:      crew,
		cooldowns: cooldowns,
		window:    window,
		log:       log,
		now:       time.Now,
		locks:     make(map[int64]*bookingLock),
	}
}

// Remaining reports how long the booking stays locked against reassignment.
func (c *Coordinator) Remaining(ctx context.Context, bookingID int64) time.Duration {
	last, ok, err := c.cooldowns.LastAssigned(ctx, bookingID)
	if err != nil {
		c.log.Warn("Failed to read assignment cooldown", "booking_id", bookingID, "error", err)
		return 0
	}
	if !ok {
		return 0
	}
	return remaining(last, c.now(), c.window)
}

// Assign binds the driver and/or vehicle to the booking's trips. A refused or
// failed call leaves the cooldown untouched.
func (c *Coordinator) Assign(ctx context.Context, req Request) (*Result, error) {
	if len(req.TripIDs) == 0 {
		return nil, orderserrors.ErrNoTrips
	}
	if req.DriverID == nil && req.VehicleID == nil {
		return nil, orderserrors.ErrNothingToAssign
	}

	unlock := c.lock(req.BookingID)
	defer unlock()

	if left := c.Remaining(ctx, req.BookingID); left > 0 {
		return nil, &CooldownError{Remaining: left}
	}

	err := c.assigner.Assign(ctx, req.BookingID, &model.AssignmentRequest{
		DriverID:  req.DriverID,
		VehicleID: req.VehicleID,
		TripIDs:   req.TripIDs,
	})
	if err != nil {
		c.log.Warn("Assignment rejected",
			"booking_id", req.BookingID,
			"trip_ids", req.TripIDs,
			"error", err,
		)
		return nil, fmt.Errorf("assign booking %d: %w", req.BookingID, err)
	}

	at := c.now()
	if err := c.cooldowns.Record(ctx, req.BookingID, at, c.window); err != nil {
		c.log.Error("Failed to record assignment cooldown", "booking_id", req.BookingID, "error", err)
	}

	result := &Result{
		Message:       SuccessMessage,
		CooldownUntil: at.Add(c.window),
	}
	if req.DriverID != nil {
		result.AssignedDriver = c.findDriver(ctx, req.BranchID, *req.DriverID)
	}
	if req.VehicleID != nil {
		result.AssignedVehicle = c.findVehicle(ctx, req.BranchID, *req.VehicleID)
	}

	c.log.Info("Booking assigned",
		"booking_id", req.BookingID,
		"trip_ids", req.TripIDs,
		"driver_id", req.DriverID,
		"vehicle_id", req.VehicleID,
	)
	return result, nil
}

func (c *Coordinator) lock(bookingID int64) func() {
	c.mu.Lock()
	l, ok := c.locks[bookingID]
	if !ok {
		l = &bookingLock{}
		c.locks[bookingID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, bookingID)
		}
		c.mu.Unlock()
	}
}

// findDriver falls back to a bare record when the branch list is unavailable.
func (c *Coordinator) findDriver(ctx context.Context, branchID, driverID int64) *model.Driver {
	if c.crew != nil && branchID > 0 {
		drivers, err := c.crew.Drivers(ctx, branchID)
		if err != nil {
			c.log.Warn("Failed to load drivers for display", "branch_id", branchID, "error", err)
		}
		for i := range drivers {
			if drivers[i].ID == driverID {
				return &drivers[i]
			}
		}
	}
	return &model.Driver{ID: driverID, Name: fmt.Sprintf("Driver #%d", driverID)}
}

func (c *Coordinator) findVehicle(ctx context.Context, branchID, vehicleID int64) *model.Vehicle {
	if c.crew != nil && branchID > 0 {
		vehicles, err := c.crew.Vehicles(ctx, branchID)
		if err != nil {
			c.log.Warn("Failed to load vehicles for display", "branch_id", branchID, "error", err)
		}
		for i := range vehicles {
			if vehicles[i].ID == vehicleID {
				return &vehicles[i]
			}
		}
	}
	return &model.Vehicle{ID: vehicleID, LicensePlate: fmt.Sprintf("#%d", vehicleID)}
}
