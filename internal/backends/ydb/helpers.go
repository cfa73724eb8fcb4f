package ydb

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ydb-platform/docbridge/internal/types"
	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
)

// unmarshalDocument decodes JSON document stored in YDB.
//
// Integer numbers are decoded as int64, other numbers as float64.
func unmarshalDocument(b []byte) (types.Document, error) {
	v, err := unmarshalJSON(b)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	doc, ok := v.(map[string]any)
	if !ok {
		return nil, lazyerrors.Errorf("expected JSON object, got %T", v)
	}

	return doc, nil
}

// UnmarshalExplain decodes YDB query plan.
func UnmarshalExplain(explain string) (map[string]any, error) {
	return unmarshalDocument([]byte(explain))
}

func unmarshalJSON(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	return convertJSON(v), nil
}

// convertJSON replaces json.Number values decoded with UseNumber.
func convertJSON(value any) any {
	switch value := value.(type) {
	case map[string]any:
		for k, v := range value {
			value[k] = convertJSON(v)
		}

		return value

	case []any:
		for i, v := range value {
			value[i] = convertJSON(v)
		}

		return value

	case json.Number:
		if i, err := value.Int64(); err == nil {
			return i
		}

		f, err := value.Float64()
		if err != nil {
			panic(fmt.Sprintf("invalid number %q", value))
		}

		return f

	case nil, string, bool:
		return value

	default:
		panic(fmt.Sprintf("unsupported type: %[1]T (%[1]v)", value))
	}
}
