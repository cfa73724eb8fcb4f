package where

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/ydb-platform/docbridge/internal/transcode"
)

// nearQuery is a parsed near operand.
type nearQuery struct {
	point orb.Point
	max   float64 // meters, 0 means unlimited
	min   float64 // meters
}

// parseNear parses "lng, lat[, maxMeters[, minMeters]]" or an equivalent list.
func parseNear(v any) (*nearQuery, bool) {
	var parts []any

	switch v := v.(type) {
	case string:
		for _, s := range strings.Split(v, ",") {
			parts = append(parts, strings.TrimSpace(s))
		}
	default:
		parts = toList(v)
	}

	if len(parts) < 2 || len(parts) > 4 {
		return nil, false
	}

	nums := make([]float64, len(parts))

	for i, p := range parts {
		f, ok := toNumber(p)
		if !ok {
			return nil, false
		}

		nums[i] = f
	}

	q := &nearQuery{point: orb.Point{nums[0], nums[1]}}

	if len(nums) > 2 {
		q.max = nums[2]
	}

	if len(nums) > 3 {
		q.min = nums[3]
	}

	return q, true
}

// toPoint extracts [lng, lat] or a GeoJSON point from a field value.
func toPoint(v any) (orb.Point, bool) {
	if m, ok := v.(map[string]any); ok {
		if t, _ := m["type"].(string); t != "Point" {
			return orb.Point{}, false
		}

		v = m["coordinates"]
	}

	l, ok := v.([]any)
	if !ok || len(l) != 2 {
		return orb.Point{}, false
	}

	lng, ok := toNumber(l[0])
	if !ok {
		return orb.Point{}, false
	}

	lat, ok := toNumber(l[1])
	if !ok {
		return orb.Point{}, false
	}

	return orb.Point{lng, lat}, true
}

func toNumber(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}

	return transcode.ToFloat(v)
}

// near matches points within [min, max] meters of the query point.
func near(v any, found bool, want any) bool {
	if !found {
		return false
	}

	q, ok := parseNear(want)
	if !ok {
		return false
	}

	p, ok := toPoint(v)
	if !ok {
		return false
	}

	d := geo.DistanceHaversine(p, q.point)

	if q.max > 0 && d > q.max {
		return false
	}

	return d >= q.min
}
