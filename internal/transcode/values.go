package transcode

import (
	"math"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plausible timestamp window, in epoch milliseconds: [2000-01-01, 2100-01-01).
const (
	minTimestampMillis = 946684800000
	maxTimestampMillis = 4102444800000
)

// isoLayout is the application encoding of dates.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// isoPrefix matches strings that look like ISO-8601 date-times.
var isoPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}`)

// isoLayouts are tried in order by ParseDate.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
}

// ParseDate parses ISO-8601-prefixed strings.
//
// Strings without a zone are interpreted as UTC.
func ParseDate(s string) (time.Time, bool) {
	if !isoPrefix.MatchString(s) {
		return time.Time{}, false
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// DateToMillis converts t to epoch milliseconds.
func DateToMillis(t time.Time) int64 {
	return int64(primitive.NewDateTimeFromTime(t))
}

// MillisToISO converts epoch milliseconds to the application date encoding.
func MillisToISO(ms int64) string {
	return primitive.DateTime(ms).Time().UTC().Format(isoLayout)
}

// NormalizeValue converts date-like values to epoch milliseconds.
//
// time.Time, *time.Time, primitive.DateTime and ISO-8601-prefixed strings are converted;
// all other values are returned unchanged.
func NormalizeValue(v any) any {
	switch v := v.(type) {
	case time.Time:
		return DateToMillis(v)
	case *time.Time:
		if v == nil {
			return nil
		}

		return DateToMillis(*v)
	case primitive.DateTime:
		return int64(v)
	case string:
		if t, ok := ParseDate(v); ok {
			return DateToMillis(t)
		}

		return v
	default:
		return v
	}
}

// ToFloat returns the numeric value of v as float64.
func ToFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// IsPlausibleTimestamp returns true if v is a number of epoch milliseconds
// between years 2000 and 2100.
func IsPlausibleTimestamp(v any) bool {
	f, ok := ToFloat(v)
	if !ok || math.IsNaN(f) {
		return false
	}

	return f >= minTimestampMillis && f < maxTimestampMillis
}
