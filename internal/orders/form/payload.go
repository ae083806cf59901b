package form

import (
	orderserrors "ptcms/internal/orders/errors"
	"ptcms/internal/orders/quote"
	"ptcms/pkg/model"
	"ptcms/pkg/sanitizer"
)

// BuildPayload normalizes the form into the backend update. forceStatus is
// sent as-is when set. An unreadable start time is reported as incomplete.
func (f *Form) BuildPayload(role model.Role, forceStatus string) (*model.BookingUpdate, error) {
	start, end := f.Window()
	if start.IsZero() {
		if f.StartTime == "" {
			return nil, orderserrors.ErrMissingStartTime
		}
		return nil, orderserrors.ErrInvalidStartTime
	}

	trip := model.TripPayload{
		StartLocation: sanitizer.SanitizeLocation(f.Pickup),
		EndLocation:   sanitizer.SanitizeLocation(f.Dropoff),
		StartTime:     quote.ISO(start),
		EndTime:       quote.ISO(end),
	}
	if f.DistanceKm > 0 {
		distance := f.DistanceKm
		trip.Distance = &distance
	}
	if !role.IsConsultant() {
		pax := f.PaxCount
		trip.PaxCount = &pax
	}

	return &model.BookingUpdate{
		Customer: model.CustomerPayload{
			FullName: sanitizer.NormalizeName(f.CustomerName),
			Phone:    sanitizer.NormalizePhone(f.CustomerPhone),
			Email:    sanitizer.Optional(sanitizer.NormalizeEmail(f.CustomerEmail)),
		},
		BranchID:       f.BranchID,
		HireTypeID:     f.HireTypeID,
		Trips:          []model.TripPayload{trip},
		Vehicles:       model.ValidSelections(f.Selections),
		EstimatedCost:  sanitizer.NonNegative(f.SystemPrice),
		DiscountAmount: sanitizer.ParseDiscount(f.Discount),
		TotalCost:      f.FinalPrice(),
		Note:           sanitizer.Optional(sanitizer.SanitizeNote(f.Note)),
		Status:         forceStatus,
	}, nil
}
