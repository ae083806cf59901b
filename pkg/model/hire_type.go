package model

import "strings"

type HireTypeCode string

const (
	HireTypeOneWay     HireTypeCode = "ONE_WAY"
	HireTypeRoundTrip  HireTypeCode = "ROUND_TRIP"
	HireTypeDaily      HireTypeCode = "DAILY"
	HireTypeMultiDay   HireTypeCode = "MULTI_DAY"
	HireTypeFixedRoute HireTypeCode = "FIXED_ROUTE"
)

func ParseHireTypeCode(raw string) HireTypeCode {
	return HireTypeCode(strings.ToUpper(strings.TrimSpace(raw)))
}

// SynthesizesEndTime reports hire types whose end time may be left empty and
// derived from the start time.
func (c HireTypeCode) SynthesizesEndTime() bool {
	return c == HireTypeOneWay || c == HireTypeFixedRoute
}

// IsDateOnly reports hire types booked by calendar day rather than by hour.
func (c HireTypeCode) IsDateOnly() bool {
	return c == HireTypeDaily || c == HireTypeMultiDay
}

type HireType struct {
	ID          int64        `json:"id"`
	Code        HireTypeCode `json:"code"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	IsActive    *bool        `json:"isActive,omitempty"`
}
