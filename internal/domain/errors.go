package domain

import (
	"errors"
	"fmt"
)

// ErrLockTimeout reports that the booking critical section could not be
// entered within the bounded wait. Distinct from a seat being unavailable.
var ErrLockTimeout = errors.New("booking lock wait timed out")

// NotFoundError: the referenced trip, stop or PNR does not exist.
type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// InvalidRequestError: malformed input the caller must correct, such as a
// segment with from >= to or an empty seat list.
type InvalidRequestError struct {
	Msg string
}

func (e InvalidRequestError) Error() string {
	if e.Msg == "" {
		return "invalid request"
	}
	return e.Msg
}

// RejectedError: a business rule refused the booking. Reason is shown to
// the caller; resubmitting with different parameters may succeed.
type RejectedError struct {
	Reason string
}

func (e RejectedError) Error() string { return e.Reason }

// ConflictError: the request lost a commit race. Callers see it as "seat
// unavailable"; it stays a distinct type for metrics.
type ConflictError struct {
	SeatNo string
	Err    error
}

func (e ConflictError) Error() string {
	if e.SeatNo != "" {
		return fmt.Sprintf("seat %s is not available", e.SeatNo)
	}
	return "booking conflict"
}

func (e ConflictError) Unwrap() error { return e.Err }

// SeatUnavailable builds the rejection for a seat already claimed on an
// overlapping segment.
func SeatUnavailable(seatNo string) RejectedError {
	return RejectedError{Reason: fmt.Sprintf("seat %s is not available", seatNo)}
}
