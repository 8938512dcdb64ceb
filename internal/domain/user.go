package domain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

const (
	DefaultWeekdayMask   = "yyyyy"
	DefaultDayStart      = 9 * time.Hour
	DefaultDayEnd        = 18 * time.Hour
	DefaultBufferMinutes = 15
)

var ErrInvalidProfile = errors.New("invalid availability profile")

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	Name              string    `bun:"name,pk"`
	AvailDays         string    `bun:"avail_days,notnull"`
	AvailStartMinutes int       `bun:"avail_start_minutes,notnull"`
	AvailEndMinutes   int       `bun:"avail_end_minutes,notnull"`
	BufferMinutes     int       `bun:"buffer_minutes,notnull"`
	SecretHash        string    `bun:"secret_hash,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
}

func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Profile converts the stored columns into an AvailabilityProfile. It does not
// check the DayStart < DayEnd invariant; callers decide how to report that.
func (u User) Profile() (AvailabilityProfile, error) {
	mask, err := ParseWeekdayMask(u.AvailDays)
	if err != nil {
		return AvailabilityProfile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return AvailabilityProfile{
		Weekdays: mask,
		DayStart: time.Duration(u.AvailStartMinutes) * time.Minute,
		DayEnd:   time.Duration(u.AvailEndMinutes) * time.Minute,
		Buffer:   time.Duration(u.BufferMinutes) * time.Minute,
	}, nil
}

// SetProfile stores p in the availability columns.
func (u *User) SetProfile(p AvailabilityProfile) {
	u.AvailDays = FormatWeekdayMask(p.Weekdays)
	u.AvailStartMinutes = int(p.DayStart / time.Minute)
	u.AvailEndMinutes = int(p.DayEnd / time.Minute)
	u.BufferMinutes = int(p.Buffer / time.Minute)
}

// AvailabilityProfile describes when a user can be booked. Weekdays holds the
// Monday..Friday flags; weekends are never bookable.
type AvailabilityProfile struct {
	Weekdays [5]bool
	DayStart time.Duration
	DayEnd   time.Duration
	Buffer   time.Duration
}

func DefaultProfile() AvailabilityProfile {
	return AvailabilityProfile{
		Weekdays: [5]bool{true, true, true, true, true},
		DayStart: DefaultDayStart,
		DayEnd:   DefaultDayEnd,
		Buffer:   DefaultBufferMinutes * time.Minute,
	}
}

func (p AvailabilityProfile) Validate() error {
	if p.DayStart < 0 || p.DayEnd > 24*time.Hour {
		return fmt.Errorf("%w: daily window %s-%s is outside a day", ErrInvalidProfile, FormatClock(p.DayStart), FormatClock(p.DayEnd))
	}
	if p.DayStart >= p.DayEnd {
		return fmt.Errorf("%w: day start %s is not before day end %s", ErrInvalidProfile, FormatClock(p.DayStart), FormatClock(p.DayEnd))
	}
	if p.Buffer < 0 {
		return fmt.Errorf("%w: buffer must not be negative", ErrInvalidProfile)
	}
	return nil
}

func (p AvailabilityProfile) AvailableOn(wd time.Weekday) bool {
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return p.Weekdays[int(wd)-1]
}

// ParseWeekdayMask reads a five character Monday..Friday mask where 'y' marks
// an available day and 'n' an unavailable one.
func ParseWeekdayMask(s string) ([5]bool, error) {
	var mask [5]bool
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != len(mask) {
		return mask, fmt.Errorf("weekday mask %q must have 5 characters", s)
	}
	for i, c := range s {
		switch c {
		case 'y':
			mask[i] = true
		case 'n':
		default:
			return mask, fmt.Errorf("weekday mask %q has invalid flag %q", s, c)
		}
	}
	return mask, nil
}

func FormatWeekdayMask(mask [5]bool) string {
	var b strings.Builder
	for _, on := range mask {
		if on {
			b.WriteByte('y')
		} else {
			b.WriteByte('n')
		}
	}
	return b.String()
}

// FormatClock renders a time-of-day offset as HH:MM.
func FormatClock(d time.Duration) string {
	mins := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// ParseClock reads an HH:MM time-of-day offset. "24:00" is accepted as the
// end of the day.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("clock %q must look like HH:MM", s)
	}
	for _, c := range s[:2] + s[3:] {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("clock %q must look like HH:MM", s)
		}
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	if m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock %q is out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}
