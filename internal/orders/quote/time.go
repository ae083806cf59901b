package quote

import (
	"errors"
	"strings"
	"time"

	"ptcms/pkg/model"
)

const SynthesizedDuration = 2 * time.Hour

const DateLayout = "2006-01-02"

var ErrInvalidTime = errors.New("invalid time value")

var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	DateLayout,
}

// ParseLocal reads a time typed into the console. Values without an offset
// are wall-clock times in loc; RFC 3339 values keep their own offset. Blank
// input yields the zero time.
func ParseLocal(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTime
}

// EffectiveEndTime returns end unchanged when set. One-way and fixed-route
// hires with no end get start plus two hours; other hire types stay unset.
func EffectiveEndTime(hireType model.HireTypeCode, start, end time.Time) time.Time {
	if !end.IsZero() {
		return end
	}
	if start.IsZero() || !hireType.SynthesizesEndTime() {
		return time.Time{}
	}
	return start.Add(SynthesizedDuration)
}

// ISO formats t the way the backend expects timestamps.
func ISO(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
