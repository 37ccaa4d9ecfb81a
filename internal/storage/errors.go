package storage

import "fmt"

type Reason string

const (
	ReasonQuotaExceeded       Reason = "quota-exceeded"
	ReasonSerializationFailed Reason = "serialization-failed"
	ReasonWriteFailed         Reason = "write-failed"
)

// StorageError is returned when the event list could not be saved. It is
// never retried; callers surface Message to the user.
type StorageError struct {
	Reason Reason
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("save events (%s): %v", e.Reason, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Message is the user-facing description of the failure.
func (e *StorageError) Message() string {
	switch e.Reason {
	case ReasonQuotaExceeded:
		return "Unable to save events. Storage may be full."
	case ReasonSerializationFailed:
		return "Unable to save events. The event data could not be encoded."
	default:
		return "Unable to save events. Storage is unavailable."
	}
}
