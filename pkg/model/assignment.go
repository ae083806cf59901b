package model

import "time"

// AssignmentRequest binds a driver and/or vehicle to a booking's trips.
type AssignmentRequest struct {
	DriverID  *int64  `json:"driverId,omitempty"`
	VehicleID *int64  `json:"vehicleId,omitempty"`
	TripIDs   []int64 `json:"tripIds"`
}

// AssignmentCooldown records the last successful assignment of a booking.
// The document expires on its own once the cooldown window has passed.
type AssignmentCooldown struct {
	ID             string    `bson:"_id" json:"booking_id"`
	LastAssignedAt time.Time `bson:"last_assigned_at" json:"last_assigned_at"`
	ExpiresAt      time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
