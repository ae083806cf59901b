package model

import (
	"encoding/json"
	"fmt"
)

const BranchStatusActive = "ACTIVE"

type VehicleCategory struct {
	ID    int64  `json:"id"`
	Name  string `json:"categoryName"`
	Seats int    `json:"seats"`
}

func (c *VehicleCategory) UnmarshalJSON(data []byte) error {
	type alias VehicleCategory
	aux := struct {
		*alias
		AltID    int64  `json:"vehicleCategoryId"`
		AltName  string `json:"name"`
		Capacity int    `json:"capacity"`
	}{alias: (*alias)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == 0 {
		c.ID = aux.AltID
	}
	if c.Name == "" {
		c.Name = aux.AltName
	}
	if c.Seats == 0 {
		c.Seats = aux.Capacity
	}
	return nil
}

// DisplayName falls back to a generic label when the category has no name.
func (c *VehicleCategory) DisplayName() string {
	if c == nil {
		return ""
	}
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("Loại %d", c.ID)
}

type Branch struct {
	ID     int64  `json:"id"`
	Name   string `json:"branchName"`
	Status string `json:"status,omitempty"`
}

func (b *Branch) UnmarshalJSON(data []byte) error {
	type alias Branch
	aux := struct {
		*alias
		AltID   int64  `json:"branchId"`
		AltName string `json:"name"`
	}{alias: (*alias)(b)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if b.ID == 0 {
		b.ID = aux.AltID
	}
	if b.Name == "" {
		b.Name = aux.AltName
	}
	return nil
}

// IsActive treats a missing status as active.
func (b Branch) IsActive() bool {
	return b.Status == "" || b.Status == BranchStatusActive
}

type Driver struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Status string `json:"status,omitempty"`
}

func (d *Driver) UnmarshalJSON(data []byte) error {
	type alias Driver
	aux := struct {
		*alias
		DriverID   int64  `json:"driverId"`
		DriverName string `json:"driverName"`
		FullName   string `json:"fullName"`
	}{alias: (*alias)(d)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if d.ID == 0 {
		d.ID = aux.DriverID
	}
	if d.Name == "" {
		d.Name = firstNonEmpty(aux.DriverName, aux.FullName, fmt.Sprintf("Driver #%d", d.ID))
	}
	if d.Status == "" {
		d.Status = "AVAILABLE"
	}
	return nil
}

type Vehicle struct {
	ID           int64  `json:"id"`
	LicensePlate string `json:"licensePlate"`
	CategoryName string `json:"categoryName,omitempty"`
	Status       string `json:"status,omitempty"`
}

func (v *Vehicle) UnmarshalJSON(data []byte) error {
	type alias Vehicle
	aux := struct {
		*alias
		VehicleID int64 `json:"vehicleId"`
	}{alias: (*alias)(v)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if v.ID == 0 {
		v.ID = aux.VehicleID
	}
	if v.LicensePlate == "" {
		v.LicensePlate = fmt.Sprintf("#%d", v.ID)
	}
	if v.Status == "" {
		v.Status = "AVAILABLE"
	}
	return nil
}

type SystemSetting struct {
	Key   string `json:"settingKey"`
	Value string `json:"settingValue"`
}

// ReferenceData bundles the catalogs the order form needs on load.
type ReferenceData struct {
	Categories []VehicleCategory `json:"categories"`
	Branches   []Branch          `json:"branches"`
	HireTypes  []HireType        `json:"hireTypes"`
}

func (r *ReferenceData) Category(id int64) *VehicleCategory {
	for i := range r.Categories {
		if r.Categories[i].ID == id {
			return &r.Categories[i]
		}
	}
	return nil
}

func (r *ReferenceData) HireType(id int64) *HireType {
	for i := range r.HireTypes {
		if r.HireTypes[i].ID == id {
			return &r.HireTypes[i]
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
