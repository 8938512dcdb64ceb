package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	calbookv1 "calbook/internal/api/calbook/v1"
	"calbook/internal/domain"
	"calbook/internal/service/directory"
	"calbook/internal/store"
)

type DirectoryServer struct {
	calbookv1.UnimplementedDirectoryServiceServer

	svc directoryService
	log *slog.Logger
}

type directoryService interface {
	CreateUser(ctx context.Context, name string) (directory.CreateUserResult, error)
	GetUser(ctx context.Context, name string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateAvailability(ctx context.Context, in directory.UpdateAvailabilityInput) (domain.User, error)
	CreateCalendar(ctx context.Context, owner, calendar string) (store.CalendarWithStatus, error)
	ListCalendarAppointments(ctx context.Context, owner, calendar string) ([]domain.Appointment, error)
}

func NewDirectoryServer(svc directoryService, log *slog.Logger) *DirectoryServer {
	if log == nil {
		log = slog.Default()
	}
	return &DirectoryServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.directory")),
	}
}

func (s *DirectoryServer) CreateUser(ctx context.Context, req *calbookv1.CreateUserRequest) (*calbookv1.CreateUserResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateUser"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	res, err := s.svc.CreateUser(ctx, req.Name)
	if err != nil {
		return nil, directoryStatus(log, "create user failed", err, slog.String("user", req.Name))
	}

	log.Info("user created", slog.String("user", res.User.Name))
	return &calbookv1.CreateUserResponse{User: toAPIUser(res.User), Secret: res.Secret}, nil
}

func (s *DirectoryServer) GetUser(ctx context.Context, req *calbookv1.GetUserRequest) (*calbookv1.GetUserResponse, error) {
	log := s.log.With(slog.String("rpc", "GetUser"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	u, err := s.svc.GetUser(ctx, req.Name)
	if err != nil {
		return nil, directoryStatus(log, "get user failed", err, slog.String("user", req.Name))
	}
	return &calbookv1.GetUserResponse{User: toAPIUser(u)}, nil
}

func (s *DirectoryServer) ListUsers(ctx context.Context, _ *calbookv1.ListUsersRequest) (*calbookv1.ListUsersResponse, error) {
	log := s.log.With(slog.String("rpc", "ListUsers"))

	users, err := s.svc.ListUsers(ctx)
	if err != nil {
		return nil, directoryStatus(log, "list users failed", err)
	}

	out := make([]*calbookv1.User, 0, len(users))
	for _, u := range users {
		out = append(out, toAPIUser(u))
	}
	return &calbookv1.ListUsersResponse{Users: out}, nil
}

func (s *DirectoryServer) UpdateAvailability(ctx context.Context, req *calbookv1.UpdateAvailabilityRequest) (*calbookv1.UpdateAvailabilityResponse, error) {
	log := s.log.With(slog.String("rpc", "UpdateAvailability"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in := directory.UpdateAvailabilityInput{
		Name:  req.Name,
		Days:  req.Days,
		Start: req.Start,
		End:   req.End,
	}
	if req.BufferMinutes != nil {
		b := int(*req.BufferMinutes)
		in.BufferMinutes = &b
	}

	u, err := s.svc.UpdateAvailability(ctx, in)
	if err != nil {
		return nil, directoryStatus(log, "update availability failed", err, slog.String("user", req.Name))
	}
	return &calbookv1.UpdateAvailabilityResponse{User: toAPIUser(u)}, nil
}

func (s *DirectoryServer) CreateCalendar(ctx context.Context, req *calbookv1.CreateCalendarRequest) (*calbookv1.CreateCalendarResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateCalendar"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	c, err := s.svc.CreateCalendar(ctx, req.Owner, req.Name)
	if err != nil {
		return nil, directoryStatus(log, "create calendar failed", err, slog.String("owner", req.Owner), slog.String("calendar", req.Name))
	}

	log.Info("calendar created",
		slog.String("owner", c.Calendar.OwnerName),
		slog.String("calendar", c.Calendar.Name),
		slog.String("status", string(c.Status)),
	)
	return &calbookv1.CreateCalendarResponse{Calendar: &calbookv1.Calendar{
		ID:     c.Calendar.ID.String(),
		Owner:  c.Calendar.OwnerName,
		Name:   c.Calendar.Name,
		Status: string(c.Status),
	}}, nil
}

func (s *DirectoryServer) ListCalendarAppointments(ctx context.Context, req *calbookv1.ListCalendarAppointmentsRequest) (*calbookv1.ListCalendarAppointmentsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListCalendarAppointments"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	rows, err := s.svc.ListCalendarAppointments(ctx, req.Owner, req.Calendar)
	if err != nil {
		return nil, directoryStatus(log, "list calendar failed", err, slog.String("owner", req.Owner), slog.String("calendar", req.Calendar))
	}

	out := make([]*calbookv1.Appointment, 0, len(rows))
	for _, a := range rows {
		out = append(out, toAPIAppointment(a))
	}
	return &calbookv1.ListCalendarAppointmentsResponse{Appointments: out}, nil
}

// directoryStatus reports duplicate names as AlreadyExists and defers
// everything else to statusFromError.
func directoryStatus(log *slog.Logger, msg string, err error, attrs ...any) error {
	var vErr *directory.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", append([]any{slog.Any("err", err)}, attrs...)...)
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.Is(err, store.ErrConflict):
		log.Info(msg, append([]any{slog.Any("err", err)}, attrs...)...)
		return status.Error(codes.AlreadyExists, "already exists")
	default:
		return statusFromError(log, msg, err, attrs...)
	}
}

func toAPIUser(u domain.User) *calbookv1.User {
	out := &calbookv1.User{
		Name: u.Name,
		Profile: &calbookv1.UserProfile{
			Days:          u.AvailDays,
			Start:         domain.FormatClock(time.Duration(u.AvailStartMinutes) * time.Minute),
			End:           domain.FormatClock(time.Duration(u.AvailEndMinutes) * time.Minute),
			BufferMinutes: int32(u.BufferMinutes),
		},
	}
	if !u.CreatedAt.IsZero() {
		out.CreatedAt = calbookv1.NewTimestamp(u.CreatedAt)
	}
	return out
}
