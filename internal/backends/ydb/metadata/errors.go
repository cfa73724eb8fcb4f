package metadata

import (
	"github.com/ydb-platform/ydb-go-genproto/protos/Ydb"
	"github.com/ydb-platform/ydb-go-sdk/v3"
)

// YDB issue codes.
const (
	tableNotFoundCode       = 2003
	conflictExistingKeyCode = 2012
)

// IsOperationErrorTableNotFound returns true if err reports a missing table.
func IsOperationErrorTableNotFound(err error) bool {
	if err == nil || !ydb.IsOperationError(err, Ydb.StatusIds_SCHEME_ERROR) {
		return false
	}

	return hasIssueCode(err, tableNotFoundCode)
}

// IsOperationErrorConflictExistingKey returns true if err reports an INSERT of an existing primary key.
func IsOperationErrorConflictExistingKey(err error) bool {
	if err == nil || !ydb.IsOperationError(err, Ydb.StatusIds_PRECONDITION_FAILED) {
		return false
	}

	return hasIssueCode(err, conflictExistingKeyCode)
}

func hasIssueCode(err error, code uint32) (found bool) {
	ydb.IterateByIssues(err, func(_ string, c Ydb.StatusIds_StatusCode, _ uint32) {
		found = found || uint32(c) == code
	})

	return
}
