package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ROCm/roc-optiq-sub003/internal/result"
)

// classifyDBError maps a storage-layer error onto a Result:
// DbAccessFailed -> UnknownError, DbAbort -> Cancelled, NotLoaded ->
// NotLoaded.
func classifyDBError(err error) result.Result {
	if err == nil {
		return result.Success
	}
	switch {
	case errors.Is(err, context.Canceled):
		return result.Cancelled
	case errors.Is(err, context.DeadlineExceeded):
		return result.Timeout
	case errors.Is(err, sql.ErrNoRows):
		return result.NotLoaded
	case errors.Is(err, sql.ErrConnDone):
		return result.UnknownError
	default:
		return result.UnknownError
	}
}

// UnknownErrorResult is the default Result for storage failures that
// don't classify more specifically.
func UnknownErrorResult() result.Result {
	return result.UnknownError
}
