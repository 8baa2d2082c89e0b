package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ServiceError
		want string
	}{
		{
			name: "error without underlying error",
			err:  New(ErrCodeInvalidArgument, "test message", http.StatusBadRequest),
			want: "[ARG_1001] test message",
		},
		{
			name: "error with underlying error",
			err:  Wrap(ErrCodeUnknown, "test message", http.StatusInternalServerError, errors.New("underlying")),
			want: "[STORE_3001] test message: underlying",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestServiceError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(ErrCodeUnknown, "test", http.StatusInternalServerError, underlying)
	assert.Equal(t, underlying, err.Unwrap())
	assert.True(t, errors.Is(err, underlying))
}

func TestServiceError_WithDetails(t *testing.T) {
	err := New(ErrCodeInvalidArgument, "test", http.StatusBadRequest)
	err.WithDetails("field", "trackId").WithDetails("reason", "missing")

	assert.Len(t, err.Details, 2)
	assert.Equal(t, "trackId", err.Details["field"])
	assert.Equal(t, "missing", err.Details["reason"])
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, ErrCodeOutOfRange, CodeOf(OutOfRange("TrackName", 5, 3)))
	assert.Equal(t, ErrCodeUnhandledProperty, CodeOf(UnhandledProperty("Graph", "TrackMinTimestamp")))
	assert.Equal(t, ErrCodeReadOnly, CodeOf(ReadOnly("EventLevel")))
	assert.True(t, IsServiceError(Cancelled()))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("plain")))
}
