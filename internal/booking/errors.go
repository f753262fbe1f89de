package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a class of booking failure. Values are stable and may be
// exposed to clients.
type Kind string

const (
	KindMalformedInput          Kind = "MALFORMED_INPUT"
	KindInvalidTimeRange        Kind = "INVALID_TIME_RANGE"
	KindMinDurationNotMet       Kind = "MIN_DURATION_NOT_MET"
	KindMaxDurationExceeded     Kind = "MAX_DURATION_EXCEEDED"
	KindOutsideBusinessHours    Kind = "OUTSIDE_BUSINESS_HOURS"
	KindCrossDayBooking         Kind = "CROSS_DAY_BOOKING"
	KindMinAdvanceNotMet        Kind = "MIN_ADVANCE_NOT_MET"
	KindMaxAdvanceExceeded      Kind = "MAX_ADVANCE_EXCEEDED"
	KindResourceNotFound        Kind = "RESOURCE_NOT_FOUND"
	KindReservationNotFound     Kind = "RESERVATION_NOT_FOUND"
	KindBookingConflict         Kind = "BOOKING_CONFLICT"
	KindBufferViolation         Kind = "BUFFER_VIOLATION"
	KindInvalidStatusTransition Kind = "INVALID_STATUS_TRANSITION"
	KindConcurrencyConflict     Kind = "CONCURRENCY_CONFLICT"
	KindCancellationTooLate     Kind = "CANCELLATION_TOO_LATE"
	KindCompletionTooEarly      Kind = "COMPLETION_TOO_EARLY"
	KindDeleteNotAllowed        Kind = "DELETE_NOT_ALLOWED"
	KindUnauthorized            Kind = "UNAUTHORIZED"
	KindStorageError            Kind = "STORAGE_ERROR"
)

// Class groups kinds by how a transport layer should treat them.
type Class string

const (
	ClassInvalid      Class = "invalid"
	ClassNotFound     Class = "not_found"
	ClassConflict     Class = "conflict"
	ClassPrecondition Class = "precondition"
	ClassForbidden    Class = "forbidden"
	ClassInternal     Class = "internal"
)

// Class returns the semantic group of k.
func (k Kind) Class() Class {
	switch k {
	case KindMalformedInput, KindInvalidTimeRange, KindMinDurationNotMet, KindMaxDurationExceeded,
		KindOutsideBusinessHours, KindCrossDayBooking, KindMinAdvanceNotMet, KindMaxAdvanceExceeded:
		return ClassInvalid
	case KindResourceNotFound, KindReservationNotFound:
		return ClassNotFound
	case KindBookingConflict, KindBufferViolation, KindConcurrencyConflict:
		return ClassConflict
	case KindInvalidStatusTransition, KindCancellationTooLate, KindCompletionTooEarly, KindDeleteNotAllowed:
		return ClassPrecondition
	case KindUnauthorized:
		return ClassForbidden
	default:
		return ClassInternal
	}
}

// Retryable reports whether a caller may transparently retry the operation.
// Only storage faults qualify; business rejections are final.
func (k Kind) Retryable() bool {
	return k == KindStorageError
}

// Failure is the error returned by engine operations.
type Failure struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (f *Failure) Error() string {
	var sb strings.Builder
	sb.WriteString(string(f.Kind))
	if f.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(f.Message)
	}
	if f.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(f.Err.Error())
	}
	return sb.String()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches failures by kind so errors.Is(err, &Failure{Kind: k}) works.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return t.Kind == f.Kind && t.Message == "" && t.Err == nil
}

func fail(kind Kind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (f *Failure) with(key string, value any) *Failure {
	if f.Details == nil {
		f.Details = make(map[string]any)
	}
	f.Details[key] = value
	return f
}

func storageFailure(op string, err error) *Failure {
	return &Failure{Kind: KindStorageError, Message: op, Err: err}
}

// KindOf extracts the failure kind from err. Errors that are not failures are
// reported as storage errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindStorageError
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ErrNotFound is returned by stores when a row does not exist.
var ErrNotFound = errors.New("not found")

// ConflictSignal is returned by stores when the atomic write boundary
// detects a conflict at commit time.
type ConflictSignal struct {
	Result ConflictResult
}

func (s *ConflictSignal) Error() string {
	if s.Result.Conflict != nil {
		return fmt.Sprintf("%s with reservation %s", s.Result.Reason, s.Result.Conflict.ID)
	}
	return string(s.Result.Reason)
}

// translateStoreError maps storage errors to failures. notFound is the kind
// reported for ErrNotFound.
func translateStoreError(op string, err error, notFound Kind) error {
	var signal *ConflictSignal
	switch {
	case errors.As(err, &signal):
		return conflictFailure(signal.Result)
	case errors.Is(err, ErrNotFound):
		return fail(notFound, "%s: not found", op)
	default:
		return storageFailure(op, err)
	}
}

func conflictFailure(res ConflictResult) *Failure {
	var f *Failure
	switch res.Reason {
	case KindBufferViolation:
		f = fail(KindBufferViolation, "requested time is within the buffer of a confirmed reservation")
	case KindConcurrencyConflict:
		f = fail(KindConcurrencyConflict, "reservation was modified concurrently")
		if res.Conflict != nil {
			f.with("current_status", res.Conflict.Status)
		}
		return f
	default:
		f = fail(KindBookingConflict, "time slot is already booked")
	}
	if res.Conflict != nil {
		f.with("conflicting_reservation_id", res.Conflict.ID)
	}
	return f
}
