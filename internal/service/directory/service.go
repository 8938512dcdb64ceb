package directory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"calbook/internal/domain"
	"calbook/internal/store"
)

const (
	maxUserNameLength     = 20
	maxCalendarNameLength = 100
	secretBytes           = 16
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ProfileInvalidator drops cached availability after a write.
// *rediscache.ProfileCache satisfies it.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, userName string) error
}

type Service struct {
	repo        store.DirectoryRepository
	invalidator ProfileInvalidator
	logger      *slog.Logger
	tracer      trace.Tracer

	newSecret func() (string, error)
	hashCost  int
}

type Option func(*Service)

func WithInvalidator(inv ProfileInvalidator) Option {
	return func(s *Service) {
		if inv != nil {
			s.invalidator = inv
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

func NewService(repo store.DirectoryRepository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		logger:    slog.Default(),
		tracer:    otel.Tracer("calbook/service/directory"),
		newSecret: randomSecret,
		hashCost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "directory"))
	return s
}

func randomSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type CreateUserResult struct {
	User domain.User
	// Secret is only ever returned here; the store keeps its bcrypt hash.
	Secret string
}

// CreateUser registers name with the default availability profile and a
// freshly generated secret.
func (s *Service) CreateUser(ctx context.Context, name string) (CreateUserResult, error) {
	ctx, span := s.tracer.Start(ctx, "directory.CreateUser")
	defer span.End()

	name, err := userName(name)
	if err != nil {
		return CreateUserResult{}, err
	}

	secret, err := s.newSecret()
	if err != nil {
		recordError(span, err)
		return CreateUserResult{}, fmt.Errorf("generate secret: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.hashCost)
	if err != nil {
		recordError(span, err)
		return CreateUserResult{}, fmt.Errorf("hash secret: %w", err)
	}

	u := domain.User{Name: name, SecretHash: string(hash)}
	u.SetProfile(domain.DefaultProfile())

	created, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		recordError(span, err)
		return CreateUserResult{}, fmt.Errorf("user %q: %w", name, err)
	}
	s.invalidate(ctx, name)

	return CreateUserResult{User: created, Secret: secret}, nil
}

func (s *Service) GetUser(ctx context.Context, name string) (domain.User, error) {
	name, err := userName(name)
	if err != nil {
		return domain.User{}, err
	}
	u, err := s.repo.GetUser(ctx, name)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %q: %w", name, err)
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}

// UpdateAvailabilityInput changes a user's profile. Empty strings and a nil
// buffer keep the stored value.
type UpdateAvailabilityInput struct {
	Name          string
	Days          string
	Start         string
	End           string
	BufferMinutes *int
}

func (s *Service) UpdateAvailability(ctx context.Context, in UpdateAvailabilityInput) (domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "directory.UpdateAvailability")
	defer span.End()

	name, err := userName(in.Name)
	if err != nil {
		return domain.User{}, err
	}

	current, err := s.repo.GetUser(ctx, name)
	if err != nil {
		recordError(span, err)
		return domain.User{}, fmt.Errorf("user %q: %w", name, err)
	}
	p, err := current.Profile()
	if err != nil {
		// A corrupt stored mask falls back to the default profile.
		p = domain.DefaultProfile()
	}

	if days := strings.TrimSpace(in.Days); days != "" {
		mask, err := domain.ParseWeekdayMask(days)
		if err != nil {
			return domain.User{}, validationError("days: %v", err)
		}
		p.Weekdays = mask
	}
	if start := strings.TrimSpace(in.Start); start != "" {
		d, err := domain.ParseClock(start)
		if err != nil {
			return domain.User{}, validationError("start: %v", err)
		}
		p.DayStart = d
	}
	if end := strings.TrimSpace(in.End); end != "" {
		d, err := domain.ParseClock(end)
		if err != nil {
			return domain.User{}, validationError("end: %v", err)
		}
		p.DayEnd = d
	}
	if in.BufferMinutes != nil {
		if *in.BufferMinutes < 0 || *in.BufferMinutes > 24*60 {
			return domain.User{}, validationError("buffer_minutes must be within [0, 1440]")
		}
		p.Buffer = time.Duration(*in.BufferMinutes) * time.Minute
	}
	if err := p.Validate(); err != nil {
		return domain.User{}, validationError("%v", err)
	}

	updated, err := s.repo.UpdateAvailability(ctx, name, p)
	if err != nil {
		recordError(span, err)
		return domain.User{}, fmt.Errorf("user %q: %w", name, err)
	}
	s.invalidate(ctx, name)

	s.logger.InfoContext(ctx, "availability updated",
		slog.String("user", name),
		slog.String("days", updated.AvailDays),
		slog.String("start", domain.FormatClock(time.Duration(updated.AvailStartMinutes)*time.Minute)),
		slog.String("end", domain.FormatClock(time.Duration(updated.AvailEndMinutes)*time.Minute)),
		slog.Int("buffer_minutes", updated.BufferMinutes),
	)
	return updated, nil
}

// CreateCalendar adds a calendar to owner. The first calendar of a user is
// its default one.
func (s *Service) CreateCalendar(ctx context.Context, owner, calendar string) (store.CalendarWithStatus, error) {
	ctx, span := s.tracer.Start(ctx, "directory.CreateCalendar")
	defer span.End()

	owner, err := userName(owner)
	if err != nil {
		return store.CalendarWithStatus{}, err
	}
	calendar, err = calendarName(calendar)
	if err != nil {
		return store.CalendarWithStatus{}, err
	}

	out, err := s.repo.CreateCalendar(ctx, owner, calendar)
	if err != nil {
		recordError(span, err)
		return store.CalendarWithStatus{}, fmt.Errorf("calendar %q of %s: %w", calendar, owner, err)
	}
	return out, nil
}

func (s *Service) ListCalendarAppointments(ctx context.Context, owner, calendar string) ([]domain.Appointment, error) {
	owner, err := userName(owner)
	if err != nil {
		return nil, err
	}
	calendar, err = calendarName(calendar)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListCalendarAppointments(ctx, owner, calendar)
	if err != nil {
		return nil, fmt.Errorf("calendar %q of %s: %w", calendar, owner, err)
	}
	return rows, nil
}

func (s *Service) invalidate(ctx context.Context, name string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, name); err != nil {
		s.logger.WarnContext(ctx, "profile cache invalidation failed", slog.String("user", name), slog.Any("err", err))
	}
}

func userName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", validationError("user name is required")
	}
	if utf8.RuneCountInString(name) > maxUserNameLength {
		return "", validationError("user name too long")
	}
	return name, nil
}

func calendarName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", validationError("calendar is required")
	}
	if utf8.RuneCountInString(name) > maxCalendarNameLength {
		return "", validationError("calendar name too long")
	}
	return name, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
