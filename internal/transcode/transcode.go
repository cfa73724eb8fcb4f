// Package transcode maps documents between the application encoding and the backend encoding.
//
// Keys are remapped at the top level of a document only, using the table in keys.go.
// Nested objects and arrays keep their keys, but value transforms (dates) apply at every level.
package transcode

import (
	"github.com/ydb-platform/docbridge/internal/types"
)

// ToBackend returns the backend encoding of an application document.
//
// Dates become epoch milliseconds. `$id` and `$timestamp` added by [ToApplication] are dropped,
// except that `$id` is used as the identifier when `id` is absent.
// Other `$` fields, including `$createdAt`, are application-reserved and prefixed.
func ToBackend(doc types.Document) types.Document {
	if doc == nil {
		return nil
	}

	res := make(types.Document, len(doc))

	for k, v := range doc {
		switch k {
		case BackendIDField:
			if _, ok := doc[IDField]; !ok {
				res[BackendIDField] = toBackendValue(v)
			}

			continue

		case BackendTimestampField:
			continue
		}

		res[ToBackendKey(k)] = toBackendValue(v)
	}

	return res
}

// ToApplication returns the application encoding of a backend document.
//
// The identifier is exposed both as `id` and `$id`.
// Numbers in temporal fields within the plausible window become ISO-8601 strings.
func ToApplication(doc types.Document) types.Document {
	if doc == nil {
		return nil
	}

	res := make(types.Document, len(doc)+1)

	for k, v := range doc {
		switch k {
		case BackendIDField:
			res[IDField] = v
			res[BackendIDField] = v

		case BackendTimestampField:
			res[k] = v

		default:
			key := ToApplicationKey(k)
			res[key] = toApplicationValue(key, v)
		}
	}

	return res
}

// CompileToBackend transcodes a document or a list of documents to the backend encoding.
//
// Other values are returned unchanged.
func CompileToBackend(data any) any {
	return compile(data, ToBackend)
}

// CompileToApplication transcodes a document or a list of documents to the application encoding.
//
// Other values are returned unchanged.
func CompileToApplication(data any) any {
	return compile(data, ToApplication)
}

// compile applies f to a single document or every document of a list.
func compile(data any, f func(types.Document) types.Document) any {
	switch data := data.(type) {
	case nil:
		return nil

	case types.Document:
		return f(data)

	case []types.Document:
		if data == nil {
			return data
		}

		res := make([]types.Document, len(data))
		for i, doc := range data {
			res[i] = f(doc)
		}

		return res

	case []any:
		if data == nil {
			return data
		}

		res := make([]any, len(data))
		for i, e := range data {
			if doc, ok := e.(types.Document); ok {
				res[i] = f(doc)
				continue
			}

			res[i] = e
		}

		return res

	default:
		return data
	}
}

// toBackendValue converts dates at every nesting level.
func toBackendValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		res := make(map[string]any, len(v))
		for k, e := range v {
			res[k] = toBackendValue(e)
		}

		return res

	case []any:
		res := make([]any, len(v))
		for i, e := range v {
			res[i] = toBackendValue(e)
		}

		return res

	default:
		return NormalizeValue(v)
	}
}

// toApplicationValue converts timestamps back to ISO strings at every nesting level.
//
// Array elements inherit the key of the array.
func toApplicationValue(key string, v any) any {
	switch v := v.(type) {
	case map[string]any:
		res := make(map[string]any, len(v))
		for k, e := range v {
			res[k] = toApplicationValue(k, e)
		}

		return res

	case []any:
		res := make([]any, len(v))
		for i, e := range v {
			res[i] = toApplicationValue(key, e)
		}

		return res

	default:
		if !IsTimestampField(key) || !IsPlausibleTimestamp(v) {
			return v
		}

		f, _ := ToFloat(v)

		return MillisToISO(int64(f))
	}
}
