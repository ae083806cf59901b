package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend expects JSON numbers for money fields.
	decimal.MarshalJSONWithoutQuotes = true
}

type Customer struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
}

type VehicleSelection struct {
	CategoryID int64 `json:"vehicleCategoryId"`
	Quantity   int   `json:"quantity"`
}

type Trip struct {
	ID                  int64      `json:"tripId"`
	StartLocation       string     `json:"startLocation"`
	EndLocation         string     `json:"endLocation"`
	StartTime           *time.Time `json:"startTime,omitempty"`
	EndTime             *time.Time `json:"endTime,omitempty"`
	Distance            float64    `json:"distance"`
	PaxCount            int        `json:"paxCount"`
	DriverID            *int64     `json:"driverId,omitempty"`
	DriverName          string     `json:"driverName,omitempty"`
	DriverPhone         string     `json:"driverPhone,omitempty"`
	VehicleID           *int64     `json:"vehicleId,omitempty"`
	VehicleLicensePlate string     `json:"vehicleLicensePlate,omitempty"`
}

// UnmarshalJSON accepts trips keyed by either "tripId" or "id".
func (t *Trip) UnmarshalJSON(data []byte) error {
	type alias Trip
	aux := struct {
		*alias
		AltID int64 `json:"id"`
	}{alias: (*alias)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if t.ID == 0 {
		t.ID = aux.AltID
	}
	return nil
}

type Booking struct {
	ID             int64              `json:"id"`
	Status         Status             `json:"status"`
	BranchID       int64              `json:"branchId"`
	BranchName     string             `json:"branchName,omitempty"`
	Customer       Customer           `json:"customer"`
	HireTypeID     int64              `json:"hireTypeId"`
	HireTypeName   string             `json:"hireTypeName,omitempty"`
	Trips          []Trip             `json:"trips"`
	Vehicles       []VehicleSelection `json:"vehicles"`
	EstimatedCost  decimal.Decimal    `json:"estimatedCost"`
	DiscountAmount decimal.Decimal    `json:"discountAmount"`
	TotalCost      decimal.Decimal    `json:"totalCost"`
	PaidAmount     decimal.Decimal    `json:"paidAmount"`
	Note           string             `json:"note,omitempty"`
}

// FirstTrip is the trip used as representative for assignment and display.
func (b *Booking) FirstTrip() *Trip {
	if len(b.Trips) == 0 {
		return nil
	}
	return &b.Trips[0]
}

func (b *Booking) TripIDs() []int64 {
	ids := make([]int64, 0, len(b.Trips))
	for _, t := range b.Trips {
		if t.ID != 0 {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// BookingUpdate is the normalized payload sent to the backend on save.
type BookingUpdate struct {
	Customer       CustomerPayload    `json:"customer"`
	BranchID       int64              `json:"branchId,omitempty"`
	HireTypeID     int64              `json:"hireTypeId,omitempty"`
	Trips          []TripPayload      `json:"trips"`
	Vehicles       []VehicleSelection `json:"vehicles"`
	EstimatedCost  decimal.Decimal    `json:"estimatedCost"`
	DiscountAmount decimal.Decimal    `json:"discountAmount"`
	TotalCost      decimal.Decimal    `json:"totalCost"`
	Note           *string            `json:"note"`
	Status         string             `json:"status,omitempty"`
}

type CustomerPayload struct {
	FullName string  `json:"fullName"`
	Phone    string  `json:"phone"`
	Email    *string `json:"email"`
}

type TripPayload struct {
	StartLocation string   `json:"startLocation"`
	EndLocation   string   `json:"endLocation"`
	StartTime     string   `json:"startTime"`
	EndTime       string   `json:"endTime,omitempty"`
	Distance      *float64 `json:"distance,omitempty"`
	PaxCount      *int     `json:"paxCount,omitempty"`
}

// ValidSelections drops rows without a category and raises quantities below
// one to one.
func ValidSelections(selections []VehicleSelection) []VehicleSelection {
	valid := make([]VehicleSelection, 0, len(selections))
	for _, s := range selections {
		if s.CategoryID <= 0 {
			continue
		}
		if s.Quantity < 1 {
			s.Quantity = 1
		}
		valid = append(valid, s)
	}
	return valid
}
