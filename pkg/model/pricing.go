package model

import (
	"encoding/json"
	"time"
)

// PriceRequest is the query sent to the backend price calculator. Times are
// sent as UTC RFC 3339.
type PriceRequest struct {
	CategoryIDs []int64
	Quantities  []int
	DistanceKm  float64
	UseHighway  bool
	HireTypeID  int64
	IsHoliday   bool
	IsWeekend   bool
	StartTime   time.Time
	EndTime     time.Time
}

type AvailabilityQuery struct {
	BranchID   int64
	CategoryID int64
	StartTime  time.Time
	EndTime    time.Time
	Quantity   int
}

// AvailabilityResult is one category's answer. Older backends report "ok" and
// "count" instead of "available" and "availableCount".
type AvailabilityResult struct {
	Available bool `json:"available"`
	Count     int  `json:"availableCount"`
}

func (r *AvailabilityResult) UnmarshalJSON(data []byte) error {
	var aux struct {
		Available      *bool `json:"available"`
		OK             *bool `json:"ok"`
		AvailableCount *int  `json:"availableCount"`
		Count          *int  `json:"count"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch {
	case aux.Available != nil:
		r.Available = *aux.Available
	case aux.OK != nil:
		r.Available = *aux.OK
	}
	switch {
	case aux.AvailableCount != nil:
		r.Count = *aux.AvailableCount
	case aux.Count != nil:
		r.Count = *aux.Count
	}
	return nil
}
