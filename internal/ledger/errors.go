package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrFeeMismatch means the caller's quote diverged from the ledger's
	// own fee computation. That is configuration drift, not a transient
	// failure, so it is never retried automatically.
	ErrFeeMismatch = errors.New("submitted fee does not match ledger fee")
)

type SubmissionReason string

const (
	ReasonInsufficientFunds SubmissionReason = "insufficient_funds"
	ReasonSlotTaken         SubmissionReason = "slot_taken"
	ReasonBookingNotFound   SubmissionReason = "booking_not_found"
	ReasonUnavailable       SubmissionReason = "backend_unavailable"
)

// SubmissionError is a backend-originated rejection, surfaced to the
// caller verbatim. Retry only after re-validating against fresh index
// state; a lost race means the slot is simply gone.
type SubmissionError struct {
	Reason SubmissionReason
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submission rejected (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("submission rejected (%s)", e.Reason)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func NewSubmissionError(reason SubmissionReason, err error) *SubmissionError {
	return &SubmissionError{Reason: reason, Err: err}
}

// AsSubmissionError unwraps err into a SubmissionError if it is one.
func AsSubmissionError(err error) (*SubmissionError, bool) {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
