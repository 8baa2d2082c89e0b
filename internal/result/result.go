// Package result defines the stable Result enumeration that every
// operation in the query & runtime layer returns, and its mapping onto
// infrastructure/errors' ErrorCode space.
package result

import (
	"github.com/ROCm/roc-optiq-sub003/infrastructure/errors"
)

// Result is the ABI-stable outcome of a controller or property-ABI call.
type Result int

const (
	Success Result = iota
	UnknownError
	InvalidArgument
	InvalidEnum
	InvalidType
	ReadOnly
	OutOfRange
	MemoryAllocError
	NotLoaded
	NotSupported
	Pending
	Cancelled
	Timeout
)

func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case UnknownError:
		return "UnknownError"
	case InvalidArgument:
		return "InvalidArgument"
	case InvalidEnum:
		return "InvalidEnum"
	case InvalidType:
		return "InvalidType"
	case ReadOnly:
		return "ReadOnly"
	case OutOfRange:
		return "OutOfRange"
	case MemoryAllocError:
		return "MemoryAllocError"
	case NotLoaded:
		return "NotLoaded"
	case NotSupported:
		return "NotSupported"
	case Pending:
		return "Pending"
	case Cancelled:
		return "Cancelled"
	case Timeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// FromError maps an error (typically an *errors.ServiceError produced by
// internal/data or internal/storage) onto a Result. Unrecognized errors
// default to UnknownError.
func FromError(err error) Result {
	if err == nil {
		return Success
	}
	switch errors.CodeOf(err) {
	case errors.ErrCodeInvalidArgument:
		return InvalidArgument
	case errors.ErrCodeInvalidEnum:
		return InvalidEnum
	case errors.ErrCodeInvalidType:
		return InvalidType
	case errors.ErrCodeReadOnly:
		return ReadOnly
	case errors.ErrCodeOutOfRange:
		return OutOfRange
	case errors.ErrCodeMemoryAlloc:
		return MemoryAllocError
	case errors.ErrCodeNotLoaded:
		return NotLoaded
	case errors.ErrCodeNotSupported:
		return NotSupported
	case errors.ErrCodePending:
		return Pending
	case errors.ErrCodeCancelled:
		return Cancelled
	case errors.ErrCodeTimeout:
		return Timeout
	case errors.ErrCodeUnknown:
		return UnknownError
	default:
		return UnknownError
	}
}

// ToError maps a Result back onto a *errors.ServiceError, for call sites
// that need an error value (e.g. to return from a Go function whose
// caller uses ordinary error handling) while the ABI-facing caller still
// observes the Result via the facade.
func ToError(r Result, detail string) error {
	switch r {
	case Success:
		return nil
	case InvalidArgument:
		return errors.InvalidArgument(detail)
	case InvalidEnum:
		return errors.InvalidEnum(detail)
	case InvalidType:
		return errors.InvalidType(detail, "", "")
	case ReadOnly:
		return errors.ReadOnly(detail)
	case OutOfRange:
		return errors.OutOfRange(detail, 0, 0)
	case MemoryAllocError:
		return errors.MemoryAllocError(0)
	case NotLoaded:
		return errors.NotLoaded(detail)
	case NotSupported:
		return errors.NotSupported(detail)
	case Pending:
		return errors.Pending()
	case Cancelled:
		return errors.Cancelled()
	case Timeout:
		return errors.Timeout(detail)
	default:
		return errors.Unknown(detail, nil)
	}
}

// IsTerminal reports whether r represents a final outcome (as opposed to
// Pending, which a caller may still be waiting on).
func IsTerminal(r Result) bool {
	return r != Pending
}
