package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"calbook/internal/domain"
)

// BusyQuery narrows a busy-interval read. Nil bounds are unbounded; bounds are
// inclusive and apply to the appointment start.
type BusyQuery struct {
	MinStart     *time.Time
	MaxStart     *time.Time
	NameContains string
}

func (q BusyQuery) Between(minStart, maxStart time.Time) BusyQuery {
	q.MinStart = &minStart
	q.MaxStart = &maxStart
	return q
}

type ProfileReader interface {
	Profile(ctx context.Context, userName string) (domain.AvailabilityProfile, error)
}

type BusyIntervalReader interface {
	BusyIntervals(ctx context.Context, userName string, q BusyQuery) ([]domain.AppointmentInterval, error)
}

// SchedulingTx is the transaction-scoped view used while booking. Reads made
// through it observe the locks taken by the enclosing transaction.
type SchedulingTx interface {
	ProfileReader
	BusyIntervalReader

	FindCalendar(ctx context.Context, ownerName, calendarName string) (domain.Calendar, error)
	FindAppointmentOnDay(ctx context.Context, calendarID uuid.UUID, name string, dayStart, dayEnd time.Time) (domain.Appointment, error)
	InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	DeleteAppointment(ctx context.Context, calendarID uuid.UUID, name string, start time.Time) (domain.Appointment, error)
	ShareCalendar(ctx context.Context, userName string, calendarID uuid.UUID) error
}

type BookingRepository interface {
	ProfileReader
	BusyIntervalReader

	SearchAppointments(ctx context.Context, userName string, q BusyQuery) ([]domain.Appointment, error)
	InUsersTransaction(ctx context.Context, userNames []string, fn func(ctx context.Context, tx SchedulingTx) error) error
}

// CalendarWithStatus is a newly created calendar and the association status
// its owner received for it.
type CalendarWithStatus struct {
	Calendar domain.Calendar
	Status   domain.AssociationStatus
}

// DirectoryRepository manages users, their availability and their calendars.
type DirectoryRepository interface {
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	GetUser(ctx context.Context, name string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateAvailability(ctx context.Context, name string, p domain.AvailabilityProfile) (domain.User, error)
	CreateCalendar(ctx context.Context, ownerName, calendarName string) (CalendarWithStatus, error)
	ListCalendarAppointments(ctx context.Context, ownerName, calendarName string) ([]domain.Appointment, error)
}
