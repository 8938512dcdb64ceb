package booking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"calbook/internal/domain"
	"calbook/internal/events"
	"calbook/internal/export/freebusy"
	"calbook/internal/scheduling"
	"calbook/internal/store"
)

const (
	maxNameLength     = 100
	maxUserNameLength = 20
	maxDuration       = 24 * 60
)

var ErrSlotUnavailable = errors.New("slot unavailable")

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Observer receives booking and free-slot counts. *telemetry.Metrics
// satisfies it.
type Observer interface {
	ObserveBooking(outcome string)
	ObserveFreeSlots(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveBooking(string) {}
func (nopObserver) ObserveFreeSlots(int)  {}

type Config struct {
	Location           *time.Location
	DefaultHorizonDays int
	MaxHorizonDays     int
}

type Service struct {
	repo     store.BookingRepository
	profiles store.ProfileReader
	engine   *scheduling.Engine

	loc            *time.Location
	now            func() time.Time
	defaultHorizon int
	maxHorizon     int

	publisher events.Publisher
	observer  Observer
	logger    *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

// WithProfiles reads profiles outside booking transactions from p, typically
// a cache in front of the repository.
func WithProfiles(p store.ProfileReader) Option {
	return func(s *Service) {
		if p != nil {
			s.profiles = p
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo store.BookingRepository, cfg Config, opts ...Option) *Service {
	s := &Service{
		repo:           repo,
		profiles:       repo,
		loc:            cfg.Location,
		now:            time.Now,
		defaultHorizon: cfg.DefaultHorizonDays,
		maxHorizon:     cfg.MaxHorizonDays,
		publisher:      events.Nop{},
		observer:       nopObserver{},
		logger:         slog.Default(),
		tracer:         otel.Tracer("calbook/service/booking"),
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.defaultHorizon <= 0 {
		s.defaultHorizon = 7
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "booking"))
	s.engine = s.engineFor(s.profiles, repo)
	return s
}

func (s *Service) engineFor(profiles store.ProfileReader, busy store.BusyIntervalReader) *scheduling.Engine {
	return scheduling.NewEngine(profiles, busy, scheduling.WithLocation(s.loc), scheduling.WithClock(s.now))
}

type FreeSlotsInput struct {
	UserA       string
	UserB       string
	HorizonDays *int
}

type FreeSlotsResult struct {
	HorizonDays int
	Days        []scheduling.DaySlots
}

func (s *Service) FreeSlots(ctx context.Context, in FreeSlotsInput) (FreeSlotsResult, error) {
	ctx, span := s.tracer.Start(ctx, "booking.FreeSlots")
	defer span.End()

	userA := strings.TrimSpace(in.UserA)
	userB := strings.TrimSpace(in.UserB)
	if userA == "" || userB == "" {
		return FreeSlotsResult{}, validationError("user_a and user_b are required")
	}

	horizon := s.defaultHorizon
	if in.HorizonDays != nil {
		horizon = *in.HorizonDays
	}
	if s.maxHorizon > 0 && horizon > s.maxHorizon {
		horizon = s.maxHorizon
	}
	span.SetAttributes(
		attribute.String("calbook.user_a", userA),
		attribute.String("calbook.user_b", userB),
		attribute.Int("calbook.horizon_days", horizon),
	)

	days, err := s.engine.ComputeFreeSlots(ctx, userA, userB, horizon)
	if err != nil {
		recordError(span, err)
		return FreeSlotsResult{}, err
	}

	n := 0
	for _, d := range days {
		n += len(d.Slots)
	}
	s.observer.ObserveFreeSlots(n)

	return FreeSlotsResult{HorizonDays: horizon, Days: days}, nil
}

type CheckSlotInput struct {
	UserID          string
	Start           time.Time
	DurationMinutes int
}

func (s *Service) CheckSlot(ctx context.Context, in CheckSlotInput) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "booking.CheckSlot")
	defer span.End()

	user := strings.TrimSpace(in.UserID)
	if user == "" {
		return false, validationError("user_id is required")
	}
	if in.Start.IsZero() {
		return false, validationError("start is required")
	}
	if in.DurationMinutes > maxDuration {
		return false, validationError("duration too long")
	}

	ok, err := s.engine.IsSlotAvailable(ctx, user, domain.AppointmentInterval{Start: in.Start, DurationMinutes: in.DurationMinutes})
	if err != nil {
		recordError(span, err)
		return false, err
	}
	span.SetAttributes(attribute.Bool("calbook.available", ok))
	return ok, nil
}

type BookInput struct {
	Owner           string
	Calendar        string
	Participant     string
	Name            string
	Start           time.Time
	DurationMinutes int
}

type BookResult struct {
	Appointment domain.Appointment
	Updated     bool
}

// Book stores the appointment in the owner's calendar after re-checking both
// parties under their locks. An appointment with the same name on the same
// day of that calendar is replaced rather than duplicated.
func (s *Service) Book(ctx context.Context, in BookInput) (BookResult, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Book")
	defer span.End()

	in, err := s.normalizeBook(in)
	if err != nil {
		s.observer.ObserveBooking("invalid")
		return BookResult{}, err
	}
	span.SetAttributes(
		attribute.String("calbook.owner", in.Owner),
		attribute.String("calbook.participant", in.Participant),
		attribute.String("calbook.calendar", in.Calendar),
	)

	users := []string{in.Owner}
	if in.Participant != "" {
		users = append(users, in.Participant)
	}

	var res BookResult
	err = s.repo.InUsersTransaction(ctx, users, func(ctx context.Context, tx store.SchedulingTx) error {
		cal, err := tx.FindCalendar(ctx, in.Owner, in.Calendar)
		if err != nil {
			return fmt.Errorf("calendar %q of %s: %w", in.Calendar, in.Owner, err)
		}

		appt := domain.Appointment{
			CalendarID:      cal.ID,
			Name:            in.Name,
			StartTime:       in.Start,
			DurationMinutes: in.DurationMinutes,
		}

		day := midnight(in.Start.In(s.loc))
		existing, err := tx.FindAppointmentOnDay(ctx, cal.ID, in.Name, day, day.AddDate(0, 0, 1))
		switch {
		case err == nil:
			if _, err := tx.DeleteAppointment(ctx, cal.ID, existing.Name, existing.StartTime); err != nil {
				return err
			}
			appt.ID = existing.ID
			appt.CreatedAt = existing.CreatedAt
			res.Updated = true
		case errors.Is(err, store.ErrNotFound):
		default:
			return err
		}

		engine := s.engineFor(tx, tx)
		candidate := appt.Interval()
		for _, u := range users {
			ok, err := engine.IsSlotAvailable(ctx, u, candidate)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w for %s", ErrSlotUnavailable, u)
			}
		}

		saved, err := tx.InsertAppointment(ctx, appt)
		if err != nil {
			return err
		}
		if in.Participant != "" {
			if err := tx.ShareCalendar(ctx, in.Participant, cal.ID); err != nil {
				return err
			}
		}
		res.Appointment = saved
		return nil
	})
	if err != nil {
		s.observer.ObserveBooking(bookingOutcome(err))
		recordError(span, err)
		return BookResult{}, err
	}

	s.observer.ObserveBooking("booked")
	s.publish(ctx, events.AppointmentEvent{
		Type:            events.TypeAppointmentBooked,
		AppointmentID:   res.Appointment.ID.String(),
		CalendarID:      res.Appointment.CalendarID.String(),
		Owner:           in.Owner,
		Participant:     in.Participant,
		Name:            res.Appointment.Name,
		Start:           res.Appointment.StartTime,
		DurationMinutes: res.Appointment.DurationMinutes,
		Updated:         res.Updated,
	})
	return res, nil
}

func (s *Service) normalizeBook(in BookInput) (BookInput, error) {
	in.Owner = strings.TrimSpace(in.Owner)
	in.Calendar = strings.TrimSpace(in.Calendar)
	in.Participant = strings.TrimSpace(in.Participant)
	in.Name = strings.TrimSpace(in.Name)

	if in.Owner == "" {
		return in, validationError("owner is required")
	}
	if len(in.Owner) > maxUserNameLength || len(in.Participant) > maxUserNameLength {
		return in, validationError("user name too long")
	}
	if in.Calendar == "" {
		return in, validationError("calendar is required")
	}
	if in.Name == "" {
		return in, validationError("name is required")
	}
	if len(in.Name) > maxNameLength {
		return in, validationError("name too long")
	}
	if in.Start.IsZero() {
		return in, validationError("start is required")
	}
	if in.DurationMinutes <= 0 {
		return in, validationError("duration_minutes must be positive")
	}
	if in.DurationMinutes > maxDuration {
		return in, validationError("duration too long")
	}
	if in.Start.Before(s.now()) {
		return in, validationError("start must not be in the past")
	}
	if in.Participant == in.Owner {
		in.Participant = ""
	}
	in.Start = in.Start.UTC()
	return in, nil
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, scheduling.ErrUnknownUser):
		return "not_found"
	case errors.Is(err, store.ErrConflict):
		return "conflict"
	case errors.Is(err, scheduling.ErrInvalidProfile):
		return "invalid_profile"
	default:
		return "error"
	}
}

type CancelInput struct {
	Owner    string
	Calendar string
	Name     string
	Start    time.Time
}

func (s *Service) Cancel(ctx context.Context, in CancelInput) (domain.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Cancel")
	defer span.End()

	owner := strings.TrimSpace(in.Owner)
	calendar := strings.TrimSpace(in.Calendar)
	name := strings.TrimSpace(in.Name)
	if owner == "" || calendar == "" || name == "" {
		return domain.Appointment{}, validationError("owner, calendar and name are required")
	}
	if in.Start.IsZero() {
		return domain.Appointment{}, validationError("start is required")
	}

	var removed domain.Appointment
	err := s.repo.InUsersTransaction(ctx, []string{owner}, func(ctx context.Context, tx store.SchedulingTx) error {
		cal, err := tx.FindCalendar(ctx, owner, calendar)
		if err != nil {
			return fmt.Errorf("calendar %q of %s: %w", calendar, owner, err)
		}
		removed, err = tx.DeleteAppointment(ctx, cal.ID, name, in.Start.UTC())
		return err
	})
	if err != nil {
		recordError(span, err)
		return domain.Appointment{}, err
	}

	s.publish(ctx, events.AppointmentEvent{
		Type:            events.TypeAppointmentCancelled,
		AppointmentID:   removed.ID.String(),
		CalendarID:      removed.CalendarID.String(),
		Owner:           owner,
		Name:            removed.Name,
		Start:           removed.StartTime,
		DurationMinutes: removed.DurationMinutes,
	})
	return removed, nil
}

type SearchInput struct {
	UserID       string
	NameContains string
	From         *time.Time
	To           *time.Time
}

func (s *Service) Search(ctx context.Context, in SearchInput) ([]domain.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Search")
	defer span.End()

	user := strings.TrimSpace(in.UserID)
	if user == "" {
		return nil, validationError("user_id is required")
	}
	if in.From != nil && in.To != nil && in.To.Before(*in.From) {
		return nil, validationError("to must not be before from")
	}

	rows, err := s.repo.SearchAppointments(ctx, user, store.BusyQuery{
		MinStart:     in.From,
		MaxStart:     in.To,
		NameContains: in.NameContains,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = fmt.Errorf("%w: %s", scheduling.ErrUnknownUser, user)
		}
		recordError(span, err)
		return nil, err
	}
	return rows, nil
}

// ExportFreeBusy renders the free slots of the pair as an iCalendar
// VFREEBUSY document.
func (s *Service) ExportFreeBusy(ctx context.Context, in FreeSlotsInput) ([]byte, error) {
	res, err := s.FreeSlots(ctx, in)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	start := midnight(now)
	doc := freebusy.Document{
		Attendees: []string{strings.TrimSpace(in.UserA), strings.TrimSpace(in.UserB)},
		Start:     start,
		End:       start.AddDate(0, 0, max(res.HorizonDays, 0)),
		Stamp:     now,
		Days:      res.Days,
	}

	var buf bytes.Buffer
	if err := freebusy.Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// publish never fails the caller: the booking has already committed.
func (s *Service) publish(ctx context.Context, ev events.AppointmentEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "publish event failed",
			slog.String("type", ev.Type),
			slog.String("appointment_id", ev.AppointmentID),
			slog.Any("err", err),
		)
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
