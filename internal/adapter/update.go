package adapter

import (
	"fmt"
	"math"

	"github.com/ydb-platform/docbridge/internal/transcode"
	"github.com/ydb-platform/docbridge/internal/types"
)

// IncrementError is returned when an increment value or the incremented field is not a number.
type IncrementError struct {
	Field string
	Value any
}

// Error implements error interface.
func (e *IncrementError) Error() string {
	return fmt.Sprintf("cannot increment field %q by non-numeric value %v (%T)", e.Field, e.Value, e.Value)
}

// applyUpdate returns an updated copy of the application document.
//
// Identifier and creation time can't be changed; updatedAt is set to the current time.
func applyUpdate(doc types.Document, params *UpdateParams) (types.Document, error) {
	res := types.CloneDocument(doc)
	if res == nil {
		res = types.Document{}
	}

	for k, v := range params.Set {
		if k == transcode.IDField || k == transcode.BackendIDField || k == transcode.CreatedAtField {
			continue
		}

		res[k] = v
	}

	for k, v := range params.Increments {
		sum, err := increment(res[k], v)
		if err != nil {
			return nil, &IncrementError{Field: k, Value: v}
		}

		res[k] = sum
	}

	res[transcode.UpdatedAtField] = nowFunc()

	return res, nil
}

// increment adds delta to the current value.
//
// Missing current value counts as zero. Integer sums stay int64 unless they overflow.
func increment(current, delta any) (any, error) {
	if current == nil {
		current = int64(0)
	}

	ci, cInt := toInt64(current)
	di, dInt := toInt64(delta)

	if cInt && dInt {
		sum := ci + di
		if (di > 0 && sum < ci) || (di < 0 && sum > ci) {
			return float64(ci) + float64(di), nil
		}

		return sum, nil
	}

	cf, ok := transcode.ToFloat(current)
	if !ok {
		return nil, fmt.Errorf("%T is not a number", current)
	}

	df, ok := transcode.ToFloat(delta)
	if !ok || math.IsNaN(df) {
		return nil, fmt.Errorf("%T is not a number", delta)
	}

	return cf + df, nil
}

// toInt64 returns the value of integer types as int64.
func toInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	default:
		return 0, false
	}
}
