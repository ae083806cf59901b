package assignment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	orderserrors "ptcms/internal/orders/errors"
	"ptcms/pkg/logger"
	"ptcms/pkg/model"
)

type mockAssigner struct {
	assignFunc func(ctx context.Context, bookingID int64, req *model.AssignmentRequest) error
	calls      []model.AssignmentRequest
}

func (m *mockAssigner) Assign(ctx context.Context, bookingID int64, req *model.AssignmentRequest) error {
	m.calls = append(m.calls, *req)
	if m.assignFunc == nil {
		return nil
	}
	return m.assignFunc(ctx, bookingID, req)
}

type mockCrew struct {
	drivers  []model.Driver
	vehicles []model.Vehicle
	err      error
}

func (m *mockCrew) Drivers(ctx context.Context, branchID int64) ([]model.Driver, error) {
	return m.drivers, m.err
}

func (m *mockCrew) Vehicles(ctx context.Context, branchID int64) ([]model.Vehicle, error) {
	return m.vehicles, m.err
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func int64Ptr(v int64) *int64 { return &v }

func newTestCoordinator(assigner Assigner, crew CrewDirectory) (*Coordinator, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryCooldownStore()
	store.now = clock.Now

	c := NewCoordinator(assigner, crew, store, 5*time.Minute, logger.Discard())
	c.now = clock.Now
	return c, clock
}

func TestAssign_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{
			name:    "no trips",
			req:     Request{BookingID: 1, DriverID: int64Ptr(3)},
			wantErr: orderserrors.ErrNoTrips,
		},
		{
			name:    "nothing selected",
			req:     Request{BookingID: 1, TripIDs: []int64{10}},
			wantErr: orderserrors.ErrNothingToAssign,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assigner := &mockAssigner{}
			c, _ := newTestCoordinator(assigner, nil)

			_, err := c.Assign(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Assign() error = %v, want %v", err, tt.wantErr)
			}
			if len(assigner.calls) != 0 {
				t.Error("backend must not be called")
			}
		})
	}
}

func TestAssign_SuccessResolvesDisplayRecords(t *testing.T) {
	assigner := &mockAssigner{}
	crew := &mockCrew{
		drivers:  []model.Driver{{ID: 3, Name: "Trần Văn B", Phone: "0912345678"}},
		vehicles: []model.Vehicle{{ID: 8, LicensePlate: "29A-123.45", CategoryName: "Xe 16 chỗ"}},
	}
	c, clock := newTestCoordinator(assigner, crew)

	res, err := c.Assign(context.Background(), Request{
		BookingID: 1,
		BranchID:  2,
		TripIDs:   []int64{10, 11},
		DriverID:  int64Ptr(3),
		VehicleID: int64Ptr(8),
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	if res.Message != SuccessMessage {
		t.Errorf("Message = %q", res.Message)
	}
	if res.AssignedDriver == nil || res.AssignedDriver.Name != "Trần Văn B" {
		t.Errorf("AssignedDriver = %+v", res.AssignedDriver)
	}
	if res.AssignedVehicle == nil || res.AssignedVehicle.LicensePlate != "29A-123.45" {
		t.Errorf("AssignedVehicle = %+v", res.AssignedVehicle)
	}
	if !res.CooldownUntil.Equal(clock.t.Add(5 * time.Minute)) {
		t.Errorf("CooldownUntil = %v", res.CooldownUntil)
	}

	sent := assigner.calls[0]
	if len(sent.TripIDs) != 2 || *sent.DriverID != 3 || *sent.VehicleID != 8 {
		t.Errorf("sent = %+v", sent)
	}
}

func TestAssign_VehicleOnlyLeavesDriverUnset(t *testing.T) {
	assigner := &mockAssigner{}
	c, _ := newTestCoordinator(assigner, &mockCrew{err: errors.New("down")})

	res, err := c.Assign(context.Background(), Request{BookingID: 1, BranchID: 2, TripIDs: []int64{10}, VehicleID: int64Ptr(8)})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if res.AssignedDriver != nil {
		t.Error("driver should stay unset")
	}
	if res.AssignedVehicle == nil || res.AssignedVehicle.LicensePlate != "#8" {
		t.Errorf("fallback vehicle = %+v", res.AssignedVehicle)
	}
	if assigner.calls[0].DriverID != nil {
		t.Error("driverId must be omitted")
	}
}

func TestAssign_Cooldown(t *testing.T) {
	assigner := &mockAssigner{}
	c, clock := newTestCoordinator(assigner, nil)
	req := Request{BookingID: 1, TripIDs: []int64{10}, DriverID: int64Ptr(3)}

	if _, err := c.Assign(context.Background(), req); err != nil {
		t.Fatalf("first Assign() error = %v", err)
	}

	clock.Advance(90 * time.Second)
	_, err := c.Assign(context.Background(), req)
	var cooldownErr *CooldownError
	if !errors.As(err, &cooldownErr) {
		t.Fatalf("expected CooldownError, got %v", err)
	}
	if cooldownErr.Remaining != 210*time.Second {
		t.Errorf("Remaining = %v, want 3m30s", cooldownErr.Remaining)
	}
	if got := cooldownErr.Error(); got != "Vui lòng đợi 3:30 để thay đổi tài xế/xe" {
		t.Errorf("message = %q", got)
	}
	if len(assigner.calls) != 1 {
		t.Errorf("backend called %d times, want 1", len(assigner.calls))
	}

	other := Request{BookingID: 2, TripIDs: []int64{20}, DriverID: int64Ptr(3)}
	if _, err := c.Assign(context.Background(), other); err != nil {
		t.Errorf("cooldown must be per booking, got %v", err)
	}

	clock.Advance(210 * time.Second)
	if _, err := c.Assign(context.Background(), req); err != nil {
		t.Errorf("Assign() after window error = %v", err)
	}
}

func TestAssign_ConcurrentSameBooking(t *testing.T) {
	c, _ := newTestCoordinator(&mockAssigner{}, nil)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		cooled    int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Assign(context.Background(), Request{BookingID: 1, TripIDs: []int64{10}, DriverID: int64Ptr(3)})
			var cooldown *CooldownError
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &cooldown):
				cooled++
			default:
				t.Errorf("Assign() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || cooled != 7 {
		t.Errorf("succeeded = %d, cooled = %d, want 1 and 7", succeeded, cooled)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.locks) != 0 {
		t.Errorf("%d booking locks left behind", len(c.locks))
	}
}

func TestAssign_FailureKeepsState(t *testing.T) {
	backendErr := errors.New("Tài xế đã có chuyến trùng giờ")
	assigner := &mockAssigner{
		assignFunc: func(ctx context.Context, bookingID int64, req *model.AssignmentRequest) error {
			return backendErr
		},
	}
	c, _ := newTestCoordinator(assigner, nil)
	req := Request{BookingID: 1, TripIDs: []int64{10}, DriverID: int64Ptr(3)}

	if _, err := c.Assign(context.Background(), req); !errors.Is(err, backendErr) {
		t.Fatalf("Assign() error = %v", err)
	}
	if left := c.Remaining(context.Background(), 1); left != 0 {
		t.Errorf("failed assignment started a cooldown of %v", left)
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Minute, "5:00"},
		{4*time.Minute + 9*time.Second, "4:09"},
		{59*time.Second + 900*time.Millisecond, "0:59"},
		{0, "0:00"},
		{-time.Second, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatRemaining(tt.d); got != tt.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestCooldownError_Seconds(t *testing.T) {
	err := &CooldownError{Remaining: 61*time.Second + 200*time.Millisecond}
	if err.Seconds() != 62 {
		t.Errorf("Seconds() = %d, want 62", err.Seconds())
	}
}

func TestMemoryCooldownStore_Expires(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryCooldownStore()
	store.now = clock.Now

	if err := store.Record(context.Background(), 7, clock.t, time.Minute); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, ok, _ := store.LastAssigned(context.Background(), 7); !ok {
		t.Fatal("entry should be present")
	}

	clock.Advance(time.Minute)
	if _, ok, _ := store.LastAssigned(context.Background(), 7); ok {
		t.Error("entry should expire at the end of the window")
	}
}
