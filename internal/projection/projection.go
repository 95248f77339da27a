package projection

import (
	"sort"
	"sync"

	"courtbook/internal/ledger"
	"courtbook/internal/slot"
)

// Booking is one occupied interval as the index sees it.
type Booking struct {
	Interval  slot.Interval `json:"interval"`
	Requester string        `json:"requester"`
	FeePaid   int64         `json:"fee_paid"`
}

// Index is the in-memory availability projection: a fold of the ledger's
// event stream into day-bucketed occupancy and per-requester ownership,
// plus the optimistic refundable pot per requester. It is rebuilt from
// sequence zero on startup and holds no durable state of its own.
//
// There is exactly one writer (the fold); readers get consistent
// snapshots, and the lock guarantees no query ever observes a
// half-applied event.
type Index struct {
	mu       sync.RWMutex
	facility string

	occupancy  map[slot.DayKey][]Booking
	ownership  map[string][]slot.Interval
	refundable map[string]int64

	lastSeq  int64
	lastRank int
	skipped  int64
}

func NewIndex(facility string) *Index {
	return &Index{
		facility:   facility,
		occupancy:  make(map[slot.DayKey][]Booking),
		ownership:  make(map[string][]slot.Interval),
		refundable: make(map[string]int64),
	}
}

// ApplyBatch folds a batch of events delivered in non-decreasing
// sequence order. Ties are re-sorted so a cancellation lands after the
// booking it supersedes, and already-applied sequences are dropped, so
// overlapping redeliveries from the ledger converge to the same index.
// Corrupt events are counted and reported, never fatal.
func (ix *Index) ApplyBatch(events []ledger.Event) (applied int, corrupt []error) {
	ordered := make([]ledger.Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Sequence != ordered[j].Sequence {
			return ordered[i].Sequence < ordered[j].Sequence
		}
		return kindRank(ordered[i].Kind) < kindRank(ordered[j].Kind)
	})

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, e := range ordered {
		// The fold cursor is (sequence, kind rank) so a cancellation
		// sharing its booking's sequence still folds, while plain
		// redeliveries are dropped.
		rank := kindRank(e.Kind)
		if e.Sequence < ix.lastSeq || (e.Sequence == ix.lastSeq && rank <= ix.lastRank) {
			continue
		}
		if err := ix.apply(e); err != nil {
			ix.skipped++
			corrupt = append(corrupt, err)
			continue
		}
		ix.lastSeq = e.Sequence
		ix.lastRank = rank
		applied++
	}
	return applied, corrupt
}

// Apply folds a single event regardless of sequence bookkeeping. The
// fold itself is idempotent, so tests can replay at will.
func (ix *Index) Apply(e ledger.Event) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.apply(e)
}

func (ix *Index) apply(e ledger.Event) error {
	switch e.Kind {
	case ledger.KindBookingCreated:
		if err := checkEvent(e); err != nil {
			return err
		}
		ix.applyBooking(e)
	case ledger.KindBookingCancelled:
		if err := checkEvent(e); err != nil {
			return err
		}
		ix.applyCancellation(e)
	case ledger.KindRefundIssued:
		if e.Requester == "" {
			return newCorruptEvent(e, "refund without requester")
		}
		ix.refundable[e.Requester] = 0
	default:
		return newCorruptEvent(e, "unknown event kind")
	}
	return nil
}

func checkEvent(e ledger.Event) error {
	if e.Requester == "" {
		return newCorruptEvent(e, "missing requester")
	}
	if !e.Interval.Start.Before(e.Interval.End) {
		return newCorruptEvent(e, "interval start not before end")
	}
	return nil
}

// applyBooking is last-writer-wins on overlap: anything the new interval
// touches is evicted first (a cancellation may have arrived before the
// booking it superseded), then the new interval goes in. Replaying the
// same booking evicts itself and reinserts, so the fold is idempotent.
func (ix *Index) applyBooking(e ledger.Event) {
	day := e.Interval.DayKey()
	evicted := ix.evictOccupancy(day, e.Interval)
	for _, old := range evicted {
		ix.removeOwnership(old.Requester, old.Interval)
	}

	ix.insertOccupancy(day, Booking{Interval: e.Interval, Requester: e.Requester, FeePaid: e.FeePaid})
	ix.removeOwnershipOverlapping(e.Requester, e.Interval)
	ix.insertOwnership(e.Requester, e.Interval)
}

func (ix *Index) applyCancellation(e ledger.Event) {
	day := e.Interval.DayKey()
	evicted := ix.evictOccupancy(day, e.Interval)
	for _, old := range evicted {
		ix.removeOwnership(old.Requester, old.Interval)
		// Refund accrues only for the canceller's own bookings; the
		// ledger is the single writer of the reset back to zero.
		if old.Requester == e.Requester {
			ix.refundable[e.Requester] += old.FeePaid
		}
	}
	ix.removeOwnershipOverlapping(e.Requester, e.Interval)
}

func (ix *Index) evictOccupancy(day slot.DayKey, iv slot.Interval) []Booking {
	stored := ix.occupancy[day]
	kept := stored[:0:0]
	var evicted []Booking
	for _, b := range stored {
		if b.Interval.Overlaps(iv) {
			evicted = append(evicted, b)
		} else {
			kept = append(kept, b)
		}
	}
	if len(kept) == 0 {
		delete(ix.occupancy, day)
	} else {
		ix.occupancy[day] = kept
	}
	return evicted
}

func (ix *Index) insertOccupancy(day slot.DayKey, b Booking) {
	stored := ix.occupancy[day]
	i := sort.Search(len(stored), func(i int) bool {
		return !stored[i].Interval.Start.Before(b.Interval.Start)
	})
	stored = append(stored, Booking{})
	copy(stored[i+1:], stored[i:])
	stored[i] = b
	ix.occupancy[day] = stored
}

func (ix *Index) insertOwnership(requester string, iv slot.Interval) {
	owned := ix.ownership[requester]
	i := sort.Search(len(owned), func(i int) bool {
		return !owned[i].Start.Before(iv.Start)
	})
	owned = append(owned, slot.Interval{})
	copy(owned[i+1:], owned[i:])
	owned[i] = iv
	ix.ownership[requester] = owned
}

func (ix *Index) removeOwnership(requester string, iv slot.Interval) {
	owned := ix.ownership[requester]
	kept := owned[:0:0]
	for _, o := range owned {
		if !o.Equal(iv) {
			kept = append(kept, o)
		}
	}
	if len(kept) == 0 {
		delete(ix.ownership, requester)
	} else {
		ix.ownership[requester] = kept
	}
}

func (ix *Index) removeOwnershipOverlapping(requester string, iv slot.Interval) {
	owned := ix.ownership[requester]
	kept := owned[:0:0]
	for _, o := range owned {
		if !o.Overlaps(iv) {
			kept = append(kept, o)
		}
	}
	if len(kept) == 0 {
		delete(ix.ownership, requester)
	} else {
		ix.ownership[requester] = kept
	}
}
