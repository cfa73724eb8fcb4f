package backends

import (
	"cmp"
	"time"

	"github.com/ydb-platform/docbridge/internal/transcode"
	"github.com/ydb-platform/docbridge/internal/types"
)

// Stamp returns a copy of the document with the write timestamp set.
func Stamp(doc types.Document, now time.Time) types.Document {
	res := types.CloneDocument(doc)
	res[transcode.BackendTimestampField] = transcode.DateToMillis(now)

	return res
}

// ID returns the document identifier.
func ID(doc types.Document) string {
	id, _ := doc[transcode.BackendIDField].(string)
	return id
}

// CreatedAt returns the ordering timestamp of the document in epoch milliseconds:
// the creation time if it is numeric, the write timestamp otherwise.
func CreatedAt(doc types.Document) int64 {
	for _, k := range []string{transcode.BackendCreatedAtField, transcode.BackendTimestampField} {
		if f, ok := transcode.ToFloat(doc[k]); ok {
			return int64(f)
		}
	}

	return 0
}

// CompareOrder compares documents in the backend order: by creation time, then by identifier.
func CompareOrder(a, b types.Document) int {
	if c := cmp.Compare(CreatedAt(a), CreatedAt(b)); c != 0 {
		return c
	}

	return cmp.Compare(ID(a), ID(b))
}
