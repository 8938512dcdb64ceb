package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments,alias:a"`

	ID              uuid.UUID `bun:"id,pk,type:uuid"`
	CalendarID      uuid.UUID `bun:"calendar_id,notnull,type:uuid"`
	Name            string    `bun:"name,notnull"`
	StartTime       time.Time `bun:"start_time,notnull"`
	DurationMinutes int       `bun:"duration_minutes,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

func (a Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

func (a Appointment) Interval() AppointmentInterval {
	return AppointmentInterval{Start: a.StartTime, DurationMinutes: a.DurationMinutes}
}

// AppointmentInterval is a committed (or candidate) booking reduced to its
// time span.
type AppointmentInterval struct {
	Start           time.Time
	DurationMinutes int
}

func (i AppointmentInterval) Duration() time.Duration {
	return time.Duration(i.DurationMinutes) * time.Minute
}

func (i AppointmentInterval) End() time.Time {
	return i.Start.Add(i.Duration())
}
