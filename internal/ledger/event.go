package ledger

import (
	"time"

	"courtbook/internal/slot"
)

type EventKind string

const (
	KindBookingCreated   EventKind = "booking_created"
	KindBookingCancelled EventKind = "booking_cancelled"
	KindRefundIssued     EventKind = "refund_issued"
)

// Event is one append-only ledger record. Sequence is assigned by the
// ledger and is the only ordering that matters: wall-clock booking time
// says nothing about arrival order. Events are immutable once emitted
// and may be delivered more than once.
type Event struct {
	Sequence  int64         `db:"id" json:"sequence"`
	Kind      EventKind     `db:"kind" json:"kind"`
	Requester string        `db:"requester" json:"requester"`
	Facility  string        `db:"facility" json:"facility"`
	Interval  slot.Interval `json:"interval"`
	FeePaid   int64         `db:"fee_paid" json:"fee_paid"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// eventRow is the flat sqlx scan target; Interval splits into two columns.
type eventRow struct {
	Sequence  int64     `db:"id"`
	Kind      string    `db:"kind"`
	Requester string    `db:"requester"`
	Facility  string    `db:"facility"`
	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`
	FeePaid   int64     `db:"fee_paid"`
	CreatedAt time.Time `db:"created_at"`
}

func (r eventRow) toEvent() Event {
	return Event{
		Sequence:  r.Sequence,
		Kind:      EventKind(r.Kind),
		Requester: r.Requester,
		Facility:  r.Facility,
		Interval:  slot.Interval{Start: r.StartTime, End: r.EndTime},
		FeePaid:   r.FeePaid,
		CreatedAt: r.CreatedAt,
	}
}
