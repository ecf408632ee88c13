package domain

import (
	"strconv"
	"strings"
	"time"
)

// Devices report timestamps in whatever format their firmware produces.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// epochMillisCutoff separates epoch seconds from epoch milliseconds: any
// value this large is taken as milliseconds (it would otherwise be a date
// past the year 35000).
const epochMillisCutoff = 1e12

// ParseTimestamp interprets a JSON timestamp value, which may be an RFC3339
// (or similar) string, a numeric string, or an epoch number in seconds or
// milliseconds.
func ParseTimestamp(value any) (time.Time, error) {
	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, ErrInvalidTimestamp
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(n), nil
		}
		return time.Time{}, ErrInvalidTimestamp
	case float64:
		return fromEpoch(v), nil
	case int64:
		return fromEpoch(float64(v)), nil
	default:
		return time.Time{}, ErrInvalidTimestamp
	}
}

func fromEpoch(n float64) time.Time {
	if n >= epochMillisCutoff {
		return time.UnixMilli(int64(n)).UTC()
	}
	sec := int64(n)
	nsec := int64((n - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}
