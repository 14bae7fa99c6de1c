package core

import (
	"errors"
	"fmt"
)

// ErrLinkUnready means a command required a vehicle connection that does not exist.
var ErrLinkUnready = errors.New("vehicle connection not ready")

// ErrRecorderInactive means csv_stop was issued with no active recording session.
var ErrRecorderInactive = errors.New("csv logging not started")

// TimeoutError reports a wait predicate that never became true within its bound.
type TimeoutError struct {
	What string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s", e.What)
}

// IsTimeout reports whether err is a wait timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
