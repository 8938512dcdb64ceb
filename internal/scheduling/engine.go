package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"calbook/internal/domain"
	"calbook/internal/store"
)

var (
	ErrUnknownUser    = errors.New("unknown user")
	ErrInvalidProfile = domain.ErrInvalidProfile
)

// Slot is a free interval [Start, End).
type Slot struct {
	Start time.Time
	End   time.Time
}

// DaySlots holds the free slots of one calendar day, Date being its midnight
// in the engine location.
type DaySlots struct {
	Date  time.Time
	Slots []Slot
}

// Engine computes mutual free time and validates candidate bookings. It keeps
// no state between calls.
type Engine struct {
	profiles store.ProfileReader
	busy     store.BusyIntervalReader
	loc      *time.Location
	now      func() time.Time
}

type Option func(*Engine)

// WithLocation sets the timezone whose midnights delimit calendar days.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(profiles store.ProfileReader, busy store.BusyIntervalReader, opts ...Option) *Engine {
	e := &Engine{
		profiles: profiles,
		busy:     busy,
		loc:      time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// ComputeFreeSlots returns, for each of the horizonDays calendar days starting
// today, the intervals during which both users are free. Days are ascending and
// every day of the horizon is present, possibly with no slots.
func (e *Engine) ComputeFreeSlots(ctx context.Context, userA, userB string, horizonDays int) ([]DaySlots, error) {
	if horizonDays <= 0 {
		return []DaySlots{}, nil
	}

	profA, profB, err := e.profilePair(ctx, userA, userB)
	if err != nil {
		return nil, err
	}

	now := ceilMinute(e.now().In(e.loc))
	today := midnight(now)

	out := make([]DaySlots, 0, horizonDays)
	for d := 0; d < horizonDays; d++ {
		day := today.AddDate(0, 0, d)
		slots, err := e.daySlots(ctx, day, now, participant{name: userA, profile: profA}, participant{name: userB, profile: profB})
		if err != nil {
			return nil, err
		}
		out = append(out, DaySlots{Date: day, Slots: slots})
	}
	return out, nil
}

type participant struct {
	name    string
	profile domain.AvailabilityProfile
}

func (e *Engine) daySlots(ctx context.Context, day, now time.Time, a, b participant) ([]Slot, error) {
	wd := day.Weekday()
	if !a.profile.AvailableOn(wd) || !b.profile.AvailableOn(wd) {
		return []Slot{}, nil
	}

	win := sharedWindow(day, a.profile, b.profile)
	if !win.start.Before(win.end) {
		return []Slot{}, nil
	}
	start := win.start
	if now.After(start) {
		start = now
	}
	if !start.Before(win.end) {
		return []Slot{}, nil
	}

	// Appointments starting up to one buffer past the window still push their
	// buffered start into it.
	busyA, err := e.busyIntervals(ctx, a.name, day, win.end.Add(a.profile.Buffer))
	if err != nil {
		return nil, err
	}
	busyB, err := e.busyIntervals(ctx, b.name, day, win.end.Add(b.profile.Buffer))
	if err != nil {
		return nil, err
	}

	scan := freeScan{
		a: busySide{intervals: busyA, buffer: a.profile.Buffer},
		b: busySide{intervals: busyB, buffer: b.profile.Buffer},
	}
	return scan.run(start, win.end), nil
}

// IsSlotAvailable reports whether candidate fits the user's weekday mask and
// daily window and keeps the user's buffer clear of every appointment that
// starts on the same day.
func (e *Engine) IsSlotAvailable(ctx context.Context, user string, candidate domain.AppointmentInterval) (bool, error) {
	prof, err := e.profile(ctx, user)
	if err != nil {
		return false, err
	}
	if candidate.DurationMinutes <= 0 {
		return false, nil
	}

	start := candidate.Start.In(e.loc)
	if !prof.AvailableOn(start.Weekday()) {
		return false, nil
	}
	day := midnight(start)
	if start.Before(day.Add(prof.DayStart)) {
		return false, nil
	}
	if candidate.End().After(day.Add(prof.DayEnd)) {
		return false, nil
	}

	busy, err := e.busyIntervals(ctx, user, day, day.AddDate(0, 0, 1).Add(-time.Nanosecond))
	if err != nil {
		return false, err
	}
	return !conflictsWithAny(candidate, prof.Buffer, busy), nil
}

// conflictsWithAny treats the buffered candidate as the half-open span
// [start-buffer, end+buffer). It conflicts with b when its buffered start or
// end falls strictly inside b, or when b starts inside the span.
func conflictsWithAny(candidate domain.AppointmentInterval, buffer time.Duration, busy []domain.AppointmentInterval) bool {
	lo := candidate.Start.Add(-buffer)
	hi := candidate.End().Add(buffer)
	for _, b := range busy {
		if lo.Before(b.End()) && b.Start.Before(hi) {
			return true
		}
	}
	return false
}

func (e *Engine) profilePair(ctx context.Context, userA, userB string) (domain.AvailabilityProfile, domain.AvailabilityProfile, error) {
	var profA, profB domain.AvailabilityProfile

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := e.profile(gctx, userA)
		profA = p
		return err
	})
	g.Go(func() error {
		p, err := e.profile(gctx, userB)
		profB = p
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.AvailabilityProfile{}, domain.AvailabilityProfile{}, err
	}
	return profA, profB, nil
}

func (e *Engine) profile(ctx context.Context, user string) (domain.AvailabilityProfile, error) {
	p, err := e.profiles.Profile(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AvailabilityProfile{}, fmt.Errorf("%w: %s", ErrUnknownUser, user)
		}
		if errors.Is(err, ErrInvalidProfile) {
			return domain.AvailabilityProfile{}, fmt.Errorf("user %s: %w", user, err)
		}
		return domain.AvailabilityProfile{}, err
	}
	if err := p.Validate(); err != nil {
		return domain.AvailabilityProfile{}, fmt.Errorf("user %s: %w", user, err)
	}
	return p, nil
}

// busyIntervals reads the user's appointments starting in [minStart, maxStart]
// and returns them sorted, deduplicated and without empty entries.
func (e *Engine) busyIntervals(ctx context.Context, user string, minStart, maxStart time.Time) ([]domain.AppointmentInterval, error) {
	rows, err := e.busy.BusyIntervals(ctx, user, store.BusyQuery{}.Between(minStart, maxStart))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUser, user)
		}
		return nil, err
	}

	out := make([]domain.AppointmentInterval, 0, len(rows))
	for _, r := range rows {
		if r.DurationMinutes > 0 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].DurationMinutes < out[j].DurationMinutes
		}
		return out[i].Start.Before(out[j].Start)
	})

	dedup := out[:0]
	for _, r := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Start.Equal(r.Start) && dedup[n-1].DurationMinutes == r.DurationMinutes {
			continue
		}
		dedup = append(dedup, r)
	}
	return dedup, nil
}
