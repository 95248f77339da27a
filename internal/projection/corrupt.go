package projection

import (
	"fmt"

	"courtbook/internal/ledger"
)

// CorruptEventError marks an event from the trusted log that still
// failed basic shape checks. The fold skips it and reports; one bad row
// must never abort a replay.
type CorruptEventError struct {
	Sequence int64
	Kind     ledger.EventKind
	Reason   string
}

func (e *CorruptEventError) Error() string {
	return fmt.Sprintf("corrupt event seq=%d kind=%q: %s", e.Sequence, e.Kind, e.Reason)
}

func newCorruptEvent(e ledger.Event, reason string) error {
	return &CorruptEventError{Sequence: e.Sequence, Kind: e.Kind, Reason: reason}
}

// kindRank orders events sharing a sequence number: a cancellation
// always folds after the booking it refers to, so replays converge.
func kindRank(k ledger.EventKind) int {
	switch k {
	case ledger.KindBookingCreated:
		return 0
	case ledger.KindBookingCancelled:
		return 1
	default:
		return 2
	}
}
