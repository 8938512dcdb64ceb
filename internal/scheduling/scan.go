package scheduling

import (
	"time"

	"calbook/internal/domain"
)

// busySide is one participant's sorted busy intervals plus a cursor into them.
type busySide struct {
	intervals []domain.AppointmentInterval
	buffer    time.Duration
	next      int
}

// boundary is the buffered start of the next unconsumed interval, capped at
// latest. An exhausted side reports latest.
func (s *busySide) boundary(latest time.Time) time.Time {
	if s.next >= len(s.intervals) {
		return latest
	}
	return earliestOf(s.intervals[s.next].Start.Add(-s.buffer), latest)
}

// release is the first instant after the current interval at which this side
// is free again: its buffered start plus the duration and a buffer on each
// side, i.e. end + buffer.
func (s *busySide) release() time.Time {
	iv := s.intervals[s.next]
	return iv.Start.Add(-s.buffer).Add(iv.Duration() + 2*s.buffer)
}

// freeScan merges two busy streams into the free slots both sides share.
// When both sides reach the same boundary, side A is consumed first.
type freeScan struct {
	a busySide
	b busySide
}

func (f *freeScan) run(earliest, latest time.Time) []Slot {
	slots := []Slot{}
	cursor := earliest
	for {
		nextA := f.a.boundary(latest)
		nextB := f.b.boundary(latest)

		next := earliestOf(nextA, nextB)
		if next.After(cursor) {
			slots = append(slots, Slot{Start: cursor, End: next})
		}
		if !nextA.Before(latest) && !nextB.Before(latest) {
			return slots
		}

		side := &f.a
		if nextB.Before(nextA) {
			side = &f.b
		}
		cursor = latestOf(cursor, side.release())
		side.next++
	}
}
