package projection

import (
	"sort"

	"courtbook/internal/slot"
)

// Conflicts reports whether any stored booking on iv's day overlaps iv.
func (ix *Index) Conflicts(iv slot.Interval) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for _, b := range ix.occupancy[iv.DayKey()] {
		if b.Interval.Overlaps(iv) {
			return true
		}
	}
	return false
}

// OccupiedOn returns the day's bookings ordered by start time.
func (ix *Index) OccupiedOn(day slot.DayKey) []Booking {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	stored := ix.occupancy[day]
	out := make([]Booking, len(stored))
	copy(out, stored)
	return out
}

// OwnedBy returns the requester's intervals ordered by start time.
func (ix *Index) OwnedBy(requester string) []slot.Interval {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	owned := ix.ownership[requester]
	out := make([]slot.Interval, len(owned))
	copy(out, owned)
	return out
}

// AllBookings returns every stored booking across all days, ordered by
// start time. Cancellations folded out of order never resurface here:
// the occupancy map is the only source.
func (ix *Index) AllBookings() []Booking {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []Booking
	for _, stored := range ix.occupancy {
		out = append(out, stored...)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Interval.Start.Before(out[j].Interval.Start)
	})
	return out
}

// Refundable is the locally derived refundable amount: fees of the
// requester's cancelled-but-unrefunded bookings. The ledger's value is
// ground truth; this one is the cheap read.
func (ix *Index) Refundable(requester string) int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.refundable[requester]
}

func (ix *Index) Facility() string {
	return ix.facility
}

// LastSequence is the highest sequence folded so far; the feed resumes
// from here.
func (ix *Index) LastSequence() int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.lastSeq
}

// CorruptSkipped counts events dropped by skip-with-report.
func (ix *Index) CorruptSkipped() int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.skipped
}

// Reset drops all derived state. Used before a full replay.
func (ix *Index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.occupancy = make(map[slot.DayKey][]Booking)
	ix.ownership = make(map[string][]slot.Interval)
	ix.refundable = make(map[string]int64)
	ix.lastSeq = 0
	ix.lastRank = 0
	ix.skipped = 0
}
