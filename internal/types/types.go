// Package types provides the document type shared by the compiler, the transcoder and backends.
//
// A Document exists in two parallel encodings: the application encoding used by callers,
// and the backend encoding stored in the database. See package transcode for the mapping.
package types

// Document is a mapping of field names to values.
//
// Values are nil, bool, string, numbers (int, int32, int64, float64 and friends),
// time.Time (application encoding only), map[string]any, Document and []any.
type Document = map[string]any

// CloneDocument returns a deep copy of doc.
//
// Nested maps and slices are copied; scalar values are shared.
func CloneDocument(doc Document) Document {
	if doc == nil {
		return nil
	}

	return cloneValue(doc).(Document)
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		res := make(map[string]any, len(v))
		for k, e := range v {
			res[k] = cloneValue(e)
		}

		return res

	case []any:
		res := make([]any, len(v))
		for i, e := range v {
			res[i] = cloneValue(e)
		}

		return res

	default:
		return v
	}
}
