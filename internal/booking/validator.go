package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courtbook/internal/availability"
	"courtbook/internal/ledger"
	"courtbook/internal/slot"
)

var (
	ErrPastBooking  = errors.New("booking time must be in the future")
	ErrSlotConflict = errors.New("slot overlaps an existing booking")
)

type State string

const (
	StateDrafting  State = "drafting"
	StateValidated State = "validated"
	StateSubmitted State = "submitted"
	StateConfirmed State = "confirmed"
	StateRejected  State = "rejected"
)

type Kind string

const (
	// KindResident pays the per-slot fee from the requester's funds.
	KindResident Kind = "resident"
	// KindAdmin is the explicitly privileged request: the building
	// collects the fee out of band, so the ledger charge is waived.
	KindAdmin Kind = "admin"
)

// Request is one booking attempt walking
// drafting -> validated -> submitted -> confirmed | rejected.
// No terminal state retries; a caller starts over from a fresh draft
// with a fresh clock reading.
type Request struct {
	Kind      Kind
	Requester string
	Facility  string
	Interval  slot.Interval
	Fee       int64

	state State
}

func (r *Request) State() State {
	return r.state
}

// Validator gates booking attempts against the availability index and
// prices them before anything is submitted to the ledger. It never
// mutates the index; confirmed bookings reach it through the event feed.
type Validator struct {
	engine   *availability.Engine
	pricing  slot.Pricing
	backend  ledger.Backend
	facility string
}

func NewValidator(engine *availability.Engine, pricing slot.Pricing, backend ledger.Backend, facility string) *Validator {
	return &Validator{engine: engine, pricing: pricing, backend: backend, facility: facility}
}

func (v *Validator) Draft(kind Kind, requester string, iv slot.Interval) *Request {
	return &Request{
		Kind:      kind,
		Requester: requester,
		Facility:  v.facility,
		Interval:  iv,
		state:     StateDrafting,
	}
}

// Validate moves a draft to validated, or reports exactly one reason it
// cannot be booked. The quote set here must match the ledger's own
// computation bit for bit or submission fails with a fee mismatch.
func (v *Validator) Validate(req *Request, now time.Time) error {
	if req.state != StateDrafting {
		return fmt.Errorf("cannot validate request in state %q", req.state)
	}

	if !req.Interval.Start.Before(req.Interval.End) {
		return slot.ErrInvalidInterval
	}
	if !req.Interval.Start.After(now) || !req.Interval.End.After(now) {
		return ErrPastBooking
	}
	if !v.engine.IsFree(req.Interval) {
		return ErrSlotConflict
	}

	if req.Kind == KindAdmin {
		req.Fee = 0
	} else {
		req.Fee = v.pricing.Fee(req.Interval)
	}
	req.state = StateValidated
	return nil
}

// Submit hands a validated request to the ledger. On success the
// request is confirmed and the booking event will surface through the
// feed; the validator itself touches no index state either way.
func (v *Validator) Submit(ctx context.Context, req *Request) (*ledger.Event, error) {
	if req.state != StateValidated {
		return nil, fmt.Errorf("cannot submit request in state %q", req.state)
	}
	req.state = StateSubmitted

	event, err := v.backend.SubmitBooking(ctx, req.Requester, req.Interval, req.Facility, req.Fee, req.Kind == KindAdmin)
	if err != nil {
		req.state = StateRejected
		return nil, err
	}

	req.state = StateConfirmed
	return event, nil
}

// Cancel submits a cancellation for any booking of the requester
// overlapping iv. Only shape is validated locally; ownership is the
// ledger's call.
func (v *Validator) Cancel(ctx context.Context, requester string, iv slot.Interval) (*ledger.Event, error) {
	if !iv.Start.Before(iv.End) {
		return nil, slot.ErrInvalidInterval
	}
	return v.backend.SubmitCancellation(ctx, requester, iv, v.facility)
}
