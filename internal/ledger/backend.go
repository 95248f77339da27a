package ledger

import (
	"context"

	"courtbook/internal/slot"
)

// Backend is the transactional ledger the availability index is derived
// from. The index never writes through this interface except via the
// explicit submit calls; everything it knows it learns from EventsSince.
type Backend interface {
	// SubmitBooking durably records a booking and debits the requester.
	// The fee is the caller's quote; the ledger recomputes it and rejects
	// with ErrFeeMismatch on divergence. Admin bookings pass waiveFee to
	// skip the charge.
	SubmitBooking(ctx context.Context, requester string, iv slot.Interval, facility string, fee int64, waiveFee bool) (*Event, error)

	// SubmitCancellation cancels any booking of the requester overlapping
	// iv and credits its fee to the requester's refundable pot.
	SubmitCancellation(ctx context.Context, requester string, iv slot.Interval, facility string) (*Event, error)

	// EventsSince returns all events with sequence > after, in
	// non-decreasing sequence order. Duplicates are allowed; the
	// projection replays idempotently.
	EventsSince(ctx context.Context, after int64) ([]Event, error)

	// RefundableAmount is the ledger's authoritative value; the local
	// refund view is only an optimistic cache of it.
	RefundableAmount(ctx context.Context, requester string) (int64, error)

	// IssueRefund pays out the requester's whole refundable pot and
	// emits a refund_issued event. Returns the amount paid.
	IssueRefund(ctx context.Context, requester string) (int64, error)

	// CurrentBalance is the facility pot: collected fees not yet refunded.
	CurrentBalance(ctx context.Context, facility string) (int64, error)

	// TopUp credits spendable funds to a requester.
	TopUp(ctx context.Context, requester string, amount int64) error

	// FundsBalance is the requester's spendable balance.
	FundsBalance(ctx context.Context, requester string) (int64, error)
}
