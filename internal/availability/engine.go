package availability

import (
	"time"

	"courtbook/internal/projection"
	"courtbook/internal/slot"
)

// Rules is the facility's operating calendar: a daily open/close window
// and weekdays the facility does not open at all.
type Rules struct {
	OpenHour       int
	CloseHour      int
	ClosedWeekdays map[time.Weekday]bool
	Granularity    time.Duration
}

func (r Rules) openOn(day time.Time) bool {
	return !r.ClosedWeekdays[day.Weekday()]
}

func (r Rules) window(day time.Time) slot.Interval {
	y, m, d := day.Date()
	open := time.Date(y, m, d, r.OpenHour, 0, 0, 0, day.Location())
	close := time.Date(y, m, d, r.CloseHour, 0, 0, 0, day.Location())
	return slot.Interval{Start: open, End: close}
}

// Engine answers availability queries against the projection. It never
// mutates the index; every call reads a fresh snapshot, since the fold
// may run between calls.
type Engine struct {
	index *projection.Index
	rules Rules
}

func NewEngine(index *projection.Index, rules Rules) *Engine {
	return &Engine{index: index, rules: rules}
}

func (e *Engine) Rules() Rules {
	return e.rules
}

// IsFree reports whether iv can be booked right now: inside the
// operating window on an open day, and overlapping nothing stored. A
// slot ending exactly at closing time is still inside the window.
func (e *Engine) IsFree(iv slot.Interval) bool {
	if !e.rules.openOn(iv.Start) {
		return false
	}
	window := e.rules.window(iv.Start)
	if iv.Start.Before(window.Start) || window.End.Before(iv.End) {
		return false
	}
	return !e.index.Conflicts(iv)
}

// FreeSlotsOnDay enumerates every free granularity-sized slot inside the
// day's operating window. The result is finite and recomputed from the
// current index state on each call, never memoized.
func (e *Engine) FreeSlotsOnDay(day time.Time) []slot.Interval {
	if !e.rules.openOn(day) {
		return nil
	}

	var free []slot.Interval
	window := e.rules.window(day)
	for start := window.Start; start.Before(window.End); start = start.Add(e.rules.Granularity) {
		end := start.Add(e.rules.Granularity)
		if window.End.Before(end) {
			break
		}
		iv := slot.Interval{Start: start, End: end}
		if !e.index.Conflicts(iv) {
			free = append(free, iv)
		}
	}
	return free
}

// UpcomingFor lists the requester's bookings starting at or after now,
// ascending by start time.
func (e *Engine) UpcomingFor(requester string, now time.Time) []slot.Interval {
	var upcoming []slot.Interval
	for _, iv := range e.index.OwnedBy(requester) {
		if !iv.Start.Before(now) {
			upcoming = append(upcoming, iv)
		}
	}
	return upcoming
}

// AllUpcoming is the administrative view: every future booking with its
// occupant. A slot can never appear under two requesters because the
// occupancy index is the single source.
func (e *Engine) AllUpcoming(now time.Time) []projection.Booking {
	var upcoming []projection.Booking
	for _, b := range e.index.AllBookings() {
		if !b.Interval.Start.Before(now) {
			upcoming = append(upcoming, b)
		}
	}
	return upcoming
}
