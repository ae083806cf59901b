package quote

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"ptcms/pkg/model"
)

const (
	AvgSpeedSettingKey  = "AVG_VEHICLE_SPEED_KMPH"
	DefaultAvgSpeedKmph = 60
	ETABufferMinutes    = 10
)

type ETAMode string

const (
	ETAOneWay    ETAMode = "ONE_WAY"
	ETARoundTrip ETAMode = "ROUND_TRIP"
	ETAByDay     ETAMode = "BY_DAY"
)

// ETA estimates how long the vehicle is busy with the trip.
type ETA struct {
	Mode          ETAMode    `json:"mode"`
	SpeedKmph     int        `json:"speedKmph"`
	TravelMinutes int        `json:"travelMinutes"`
	TravelText    string     `json:"travelText"`
	BufferMinutes int        `json:"bufferMinutes"`
	GoArrive      *time.Time `json:"goArrive,omitempty"`
	BusyUntil     time.Time  `json:"busyUntil"`
}

// ParseSpeed reads the average speed setting. Unusable values fall back to
// the default.
func ParseSpeed(raw string, fallback int) int {
	if fallback <= 0 {
		fallback = DefaultAvgSpeedKmph
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return int(math.Round(v))
}

// EstimateETA returns nil when distance or start is missing. end is only used
// by round-trip and day-based hires.
func EstimateETA(hireType model.HireTypeCode, distanceKm float64, start, end time.Time, speedKmph int) *ETA {
	if distanceKm <= 0 || start.IsZero() {
		return nil
	}
	speed := max(1, speedKmph)
	travel := max(0, int(math.Ceil(distanceKm/float64(speed)*60)))

	eta := &ETA{
		SpeedKmph:     speed,
		TravelMinutes: travel,
		TravelText:    FormatDuration(travel),
		BufferMinutes: ETABufferMinutes,
	}

	switch hireType {
	case model.HireTypeOneWay, model.HireTypeFixedRoute:
		eta.Mode = ETAOneWay
		eta.BusyUntil = addMinutes(start, travel+ETABufferMinutes)
	case model.HireTypeRoundTrip:
		eta.Mode = ETARoundTrip
		goArrive := addMinutes(start, travel)
		eta.GoArrive = &goArrive
		if !end.IsZero() {
			eta.BusyUntil = addMinutes(end, travel+ETABufferMinutes)
		} else {
			eta.BusyUntil = addMinutes(start, travel*2+ETABufferMinutes)
		}
	default:
		eta.Mode = ETAByDay
		lastDay := start
		if !end.IsZero() {
			lastDay = end
		}
		y, m, d := lastDay.Date()
		nextDay := time.Date(y, m, d+1, 0, 0, 0, 0, lastDay.Location())
		eta.BusyUntil = addMinutes(nextDay, ETABufferMinutes)
	}
	return eta
}

// FormatDuration renders minutes as "45 phút", "2 giờ" or "1 giờ 5 phút".
func FormatDuration(minutes int) string {
	minutes = max(0, minutes)
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%d phút", m)
	case m == 0:
		return fmt.Sprintf("%d giờ", h)
	default:
		return fmt.Sprintf("%d giờ %d phút", h, m)
	}
}

func addMinutes(t time.Time, minutes int) time.Time {
	return t.Add(time.Duration(minutes) * time.Minute)
}
