package form

import (
	"slices"
	"strings"
	"time"

	"ptcms/internal/orders/quote"
	"ptcms/internal/orders/validator"
	"ptcms/pkg/model"
	"ptcms/pkg/sanitizer"

	"github.com/shopspring/decimal"
)

const (
	inputLayout = "2006-01-02T15:04"

	reasonCancelled = "Đơn hàng đã bị hủy. Không thể chỉnh sửa."
	reasonCompleted = "Đơn hàng đã hoàn thành. Không thể chỉnh sửa."

	advisoryUnderway = "Đơn hàng đang thực hiện. Bạn có thể cập nhật thông tin (ví dụ: kéo dài thời gian). " +
		"Hệ thống sẽ kiểm tra tài xế/xe đang phụ trách có đáp ứng được thay đổi hay không."
	advisoryAssigned = "Đơn hàng đã được phân tài xế/xe. Thay đổi thông tin sẽ được kiểm tra tính khả dụng của tài xế và xe."
)

// Form is the editable copy of one booking for the duration of an edit.
// Times are kept as typed in the console, in the service's time zone.
type Form struct {
	BookingID       int64                    `json:"bookingId"`
	Status          model.Status             `json:"status"`
	BranchID        int64                    `json:"branchId"`
	CustomerName    string                   `json:"customerName"`
	CustomerPhone   string                   `json:"customerPhone"`
	CustomerEmail   string                   `json:"customerEmail"`
	HireTypeID      int64                    `json:"hireTypeId"`
	HireType        model.HireTypeCode       `json:"hireType"`
	HireTypeName    string                   `json:"hireTypeName"`
	Pickup          string                   `json:"pickup"`
	Dropoff         string                   `json:"dropoff"`
	StartTime       string                   `json:"startTime"`
	EndTime         string                   `json:"endTime"`
	DistanceKm      float64                  `json:"distance"`
	PaxCount        int                      `json:"paxCount"`
	Selections      []model.VehicleSelection `json:"vehicles"`
	SystemPrice     decimal.Decimal          `json:"systemPrice"`
	Discount        string                   `json:"discount"`
	PaidAmount      decimal.Decimal          `json:"paidAmount"`
	Note            string                   `json:"note"`
	TripIDs         []int64                  `json:"tripIds"`
	AssignedDriver  *model.Driver            `json:"assignedDriver,omitempty"`
	AssignedVehicle *model.Vehicle           `json:"assignedVehicle,omitempty"`

	loc *time.Location
	ref *model.ReferenceData
}

// FromBooking loads the form from the backend's booking. ref may be nil when
// reference data could not be loaded.
func FromBooking(b *model.Booking, ref *model.ReferenceData, loc *time.Location) *Form {
	if loc == nil {
		loc = time.UTC
	}
	if ref == nil {
		ref = &model.ReferenceData{}
	}

	f := &Form{
		BookingID:     b.ID,
		Status:        b.Status,
		BranchID:      b.BranchID,
		CustomerName:  b.Customer.FullName,
		CustomerPhone: b.Customer.Phone,
		CustomerEmail: b.Customer.Email,
		HireTypeID:    b.HireTypeID,
		HireTypeName:  b.HireTypeName,
		PaxCount:      1,
		SystemPrice:   b.EstimatedCost,
		Discount:      b.DiscountAmount.String(),
		PaidAmount:    b.PaidAmount,
		Note:          b.Note,
		TripIDs:       b.TripIDs(),
		loc:           loc,
		ref:           ref,
	}
	f.resolveHireType()

	if trip := b.FirstTrip(); trip != nil {
		f.Pickup = trip.StartLocation
		f.Dropoff = trip.EndLocation
		f.StartTime = f.formatInput(trip.StartTime)
		f.EndTime = f.formatInput(trip.EndTime)
		f.DistanceKm = trip.Distance
		if trip.PaxCount > 0 {
			f.PaxCount = trip.PaxCount
		}
		if trip.DriverID != nil {
			f.AssignedDriver = &model.Driver{ID: *trip.DriverID, Name: trip.DriverName, Phone: trip.DriverPhone}
		}
		if trip.VehicleID != nil {
			f.AssignedVehicle = &model.Vehicle{ID: *trip.VehicleID, LicensePlate: trip.VehicleLicensePlate}
		}
	}

	for _, v := range b.Vehicles {
		f.Selections = append(f.Selections, model.VehicleSelection{
			CategoryID: v.CategoryID,
			Quantity:   sanitizer.NormalizeQuantity(v.Quantity),
		})
	}
	if len(f.Selections) == 0 {
		f.Selections = []model.VehicleSelection{{Quantity: 1}}
	}
	return f
}

func (f *Form) resolveHireType() {
	ht := f.ref.HireType(f.HireTypeID)
	if ht == nil {
		return
	}
	f.HireType = ht.Code
	if f.HireTypeName == "" {
		f.HireTypeName = ht.Name
	}
}

func (f *Form) formatInput(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	local := t.In(f.loc)
	if f.HireType.IsDateOnly() {
		return local.Format(quote.DateLayout)
	}
	return local.Format(inputLayout)
}

func (f *Form) Location() *time.Location {
	return f.loc
}

// CanEdit is false only for terminal statuses. Unknown statuses stay
// editable and the backend decides.
func (f *Form) CanEdit() bool {
	return !f.Status.IsTerminal()
}

func (f *Form) LockedReason() string {
	switch f.Status.Kind {
	case model.StatusCancelled:
		return reasonCancelled
	case model.StatusCompleted:
		return reasonCompleted
	}
	return ""
}

// Advisory warns that edits to an order already underway are re-checked
// against the assigned driver and vehicle.
func (f *Form) Advisory() string {
	switch f.Status.Kind {
	case model.StatusInProgress, model.StatusOngoing:
		return advisoryUnderway
	case model.StatusAssigned:
		return advisoryAssigned
	}
	return ""
}

// CanEditDriverNote lets consultants edit the driver note until the trip
// starts, whatever the order status. Other roles follow CanEdit.
func (f *Form) CanEditDriverNote(role model.Role, now time.Time) bool {
	if !role.IsConsultant() {
		return f.CanEdit()
	}
	start, err := quote.ParseLocal(f.StartTime, f.loc)
	if err != nil || start.IsZero() {
		return true
	}
	return start.After(now)
}

func (f *Form) FinalPrice() decimal.Decimal {
	return quote.FinalPrice(f.SystemPrice, f.Discount)
}

func (f *Form) QuoteParams() quote.Params {
	return quote.Params{
		Selections: slices.Clone(f.Selections),
		DistanceKm: f.DistanceKm,
		HireTypeID: f.HireTypeID,
		HireType:   f.HireType,
		StartTime:  f.StartTime,
		EndTime:    f.EndTime,
	}
}

// Window returns the parsed start and effective end, either may be zero.
func (f *Form) Window() (time.Time, time.Time) {
	start, err := quote.ParseLocal(f.StartTime, f.loc)
	if err != nil {
		return time.Time{}, time.Time{}
	}
	end, err := quote.ParseLocal(f.EndTime, f.loc)
	if err != nil {
		end = time.Time{}
	}
	return start, quote.EffectiveEndTime(f.HireType, start, end)
}

// SelectedCategory is the category of the first chosen vehicle row.
func (f *Form) SelectedCategory() *model.VehicleCategory {
	for _, s := range f.Selections {
		if s.CategoryID > 0 {
			return f.ref.Category(s.CategoryID)
		}
	}
	return nil
}

// validationOrder checks the phone as typed; normalization only applies to the
// payload.
func (f *Form) validationOrder(role model.Role) *validator.Order {
	order := &validator.Order{
		CustomerName:  sanitizer.NormalizeName(f.CustomerName),
		CustomerPhone: strings.TrimSpace(f.CustomerPhone),
		CustomerEmail: sanitizer.NormalizeEmail(f.CustomerEmail),
		Pickup:        sanitizer.SanitizeLocation(f.Pickup),
		Dropoff:       sanitizer.SanitizeLocation(f.Dropoff),
		HireType:      f.HireType,
		StartTime:     f.StartTime,
		EndTime:       f.EndTime,
		PaxCount:      f.PaxCount,
		Selections:    f.Selections,
		PaxVisible:    !role.IsConsultant(),
	}
	if c := f.SelectedCategory(); c != nil {
		order.Seats = c.Seats
	}
	return order
}

// Input is an edit submitted by the console. It replaces every editable
// field of the form.
type Input struct {
	BranchID      int64                    `json:"branchId"`
	CustomerName  string                   `json:"customerName"`
	CustomerPhone string                   `json:"customerPhone"`
	CustomerEmail string                   `json:"customerEmail"`
	HireTypeID    int64                    `json:"hireTypeId"`
	Pickup        string                   `json:"pickup"`
	Dropoff       string                   `json:"dropoff"`
	StartTime     string                   `json:"startTime"`
	EndTime       string                   `json:"endTime"`
	DistanceKm    float64                  `json:"distance"`
	PaxCount      int                      `json:"paxCount"`
	Selections    []model.VehicleSelection `json:"vehicles"`
	SystemPrice   decimal.Decimal          `json:"systemPrice"`
	Discount      string                   `json:"discount"`
	Note          string                   `json:"note"`
}

// Apply copies in onto the form. The note is only taken when role may edit
// it at now, judged on the form as loaded.
func (f *Form) Apply(in Input, role model.Role, now time.Time) {
	noteEditable := f.CanEditDriverNote(role, now)

	f.BranchID = in.BranchID
	f.CustomerName = in.CustomerName
	f.CustomerPhone = in.CustomerPhone
	f.CustomerEmail = in.CustomerEmail
	if in.HireTypeID != f.HireTypeID {
		f.HireTypeID = in.HireTypeID
		f.HireTypeName = ""
		f.HireType = ""
	}
	f.resolveHireType()
	f.Pickup = in.Pickup
	f.Dropoff = in.Dropoff
	f.StartTime = in.StartTime
	f.EndTime = in.EndTime
	f.DistanceKm = max(0, in.DistanceKm)
	f.PaxCount = in.PaxCount
	f.Selections = append([]model.VehicleSelection(nil), in.Selections...)
	f.SystemPrice = sanitizer.NonNegative(in.SystemPrice)
	f.Discount = in.Discount

	if noteEditable {
		f.Note = in.Note
	}
}

// SetQuoteParams replaces the price-driving inputs and reports whether any of
// them changed.
func (f *Form) SetQuoteParams(p quote.Params) bool {
	changed := f.DistanceKm != p.DistanceKm ||
		f.HireTypeID != p.HireTypeID ||
		f.StartTime != p.StartTime ||
		f.EndTime != p.EndTime ||
		!slices.Equal(f.Selections, p.Selections)

	if f.HireTypeID != p.HireTypeID {
		f.HireTypeID = p.HireTypeID
		f.HireTypeName = ""
		f.HireType = ""
		f.resolveHireType()
	}
	f.DistanceKm = max(0, p.DistanceKm)
	f.StartTime = p.StartTime
	f.EndTime = p.EndTime
	f.Selections = append([]model.VehicleSelection(nil), p.Selections...)
	return changed
}
