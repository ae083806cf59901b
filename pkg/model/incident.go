package model

import "time"

type Incident struct {
	ID               int64      `json:"id"`
	BranchID         int64      `json:"branchId,omitempty"`
	DriverID         int64      `json:"driverId,omitempty"`
	TripID           int64      `json:"tripId,omitempty"`
	Description      string     `json:"description"`
	Severity         string     `json:"severity,omitempty"`
	Resolved         bool       `json:"resolved"`
	ResolutionAction string     `json:"resolutionAction,omitempty"`
	ResolutionNote   string     `json:"resolutionNote,omitempty"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
}

type IncidentResolution struct {
	ResolutionAction string `json:"resolutionAction" validate:"required,max=64"`
	ResolutionNote   string `json:"resolutionNote" validate:"max=2000"`
}
