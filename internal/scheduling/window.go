package scheduling

import (
	"time"

	"calbook/internal/domain"
)

type window struct {
	start time.Time
	end   time.Time
}

// sharedWindow intersects both daily windows and anchors the offsets at day,
// which must be a midnight.
func sharedWindow(day time.Time, a, b domain.AvailabilityProfile) window {
	return window{
		start: day.Add(max(a.DayStart, b.DayStart)),
		end:   day.Add(min(a.DayEnd, b.DayEnd)),
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func ceilMinute(t time.Time) time.Time {
	down := t.Truncate(time.Minute)
	if down.Equal(t) {
		return t
	}
	return down.Add(time.Minute)
}

func earliestOf(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

func latestOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
