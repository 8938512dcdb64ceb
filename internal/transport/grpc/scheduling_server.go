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
	"calbook/internal/scheduling"
	"calbook/internal/service/booking"
	"calbook/internal/store"
)

type SchedulingServer struct {
	calbookv1.UnimplementedSchedulingServiceServer

	svc bookingService
	log *slog.Logger
}

type bookingService interface {
	FreeSlots(ctx context.Context, in booking.FreeSlotsInput) (booking.FreeSlotsResult, error)
	CheckSlot(ctx context.Context, in booking.CheckSlotInput) (bool, error)
	Book(ctx context.Context, in booking.BookInput) (booking.BookResult, error)
	Cancel(ctx context.Context, in booking.CancelInput) (domain.Appointment, error)
	Search(ctx context.Context, in booking.SearchInput) ([]domain.Appointment, error)
	ExportFreeBusy(ctx context.Context, in booking.FreeSlotsInput) ([]byte, error)
}

func NewSchedulingServer(svc bookingService, log *slog.Logger) *SchedulingServer {
	if log == nil {
		log = slog.Default()
	}
	return &SchedulingServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.scheduling")),
	}
}

func (s *SchedulingServer) ComputeFreeSlots(ctx context.Context, req *calbookv1.ComputeFreeSlotsRequest) (*calbookv1.ComputeFreeSlotsResponse, error) {
	log := s.log.With(slog.String("rpc", "ComputeFreeSlots"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	res, err := s.svc.FreeSlots(ctx, booking.FreeSlotsInput{
		UserA:       req.UserA,
		UserB:       req.UserB,
		HorizonDays: horizon(req.HorizonDays),
	})
	if err != nil {
		return nil, statusFromError(log, "free slots failed", err, slog.String("user_a", req.UserA), slog.String("user_b", req.UserB))
	}

	views := booking.RenderDays(res.Days)
	days := make([]*calbookv1.DaySlots, 0, len(res.Days))
	for i, d := range res.Days {
		out := &calbookv1.DaySlots{Date: views[i].Date, Slots: make([]*calbookv1.FreeSlot, 0, len(d.Slots))}
		for j, sl := range d.Slots {
			out.Slots = append(out.Slots, &calbookv1.FreeSlot{
				Start:      calbookv1.NewTimestamp(sl.Start),
				End:        calbookv1.NewTimestamp(sl.End),
				StartClock: views[i].Slots[j].Start,
				EndClock:   views[i].Slots[j].End,
			})
		}
		days = append(days, out)
	}

	log.Debug(
		"free slots computed",
		slog.String("user_a", req.UserA),
		slog.String("user_b", req.UserB),
		slog.Int("horizon_days", res.HorizonDays),
	)

	return &calbookv1.ComputeFreeSlotsResponse{HorizonDays: int32(res.HorizonDays), Days: days}, nil
}

func (s *SchedulingServer) CheckSlot(ctx context.Context, req *calbookv1.CheckSlotRequest) (*calbookv1.CheckSlotResponse, error) {
	log := s.log.With(slog.String("rpc", "CheckSlot"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.Start == nil {
		log.Warn("invalid request", slog.String("reason", "missing_start"), slog.String("user_id", req.UserID))
		return nil, status.Error(codes.InvalidArgument, "start is required")
	}

	ok, err := s.svc.CheckSlot(ctx, booking.CheckSlotInput{
		UserID:          req.UserID,
		Start:           req.Start.AsTime(),
		DurationMinutes: int(req.DurationMinutes),
	})
	if err != nil {
		return nil, statusFromError(log, "slot check failed", err, slog.String("user_id", req.UserID))
	}
	return &calbookv1.CheckSlotResponse{Available: ok}, nil
}

func (s *SchedulingServer) BookAppointment(ctx context.Context, req *calbookv1.BookAppointmentRequest) (*calbookv1.BookAppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "BookAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.Start == nil {
		log.Warn("invalid request", slog.String("reason", "missing_start"), slog.String("owner", req.Owner))
		return nil, status.Error(codes.InvalidArgument, "start is required")
	}

	res, err := s.svc.Book(ctx, booking.BookInput{
		Owner:           req.Owner,
		Calendar:        req.Calendar,
		Participant:     req.Participant,
		Name:            req.Name,
		Start:           req.Start.AsTime(),
		DurationMinutes: int(req.DurationMinutes),
	})
	if err != nil {
		return nil, statusFromError(log, "booking failed", err,
			slog.String("owner", req.Owner),
			slog.String("participant", req.Participant),
			slog.Time("start", req.Start.AsTime()),
		)
	}

	log.Info(
		"appointment booked",
		slog.String("appointment_id", res.Appointment.ID.String()),
		slog.String("owner", req.Owner),
		slog.String("participant", req.Participant),
		slog.Time("start", res.Appointment.StartTime),
		slog.Bool("updated", res.Updated),
	)

	return &calbookv1.BookAppointmentResponse{Appointment: toAPIAppointment(res.Appointment), Updated: res.Updated}, nil
}

func (s *SchedulingServer) CancelAppointment(ctx context.Context, req *calbookv1.CancelAppointmentRequest) (*calbookv1.CancelAppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "CancelAppointment"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.Start == nil {
		log.Warn("invalid request", slog.String("reason", "missing_start"), slog.String("owner", req.Owner))
		return nil, status.Error(codes.InvalidArgument, "start is required")
	}

	removed, err := s.svc.Cancel(ctx, booking.CancelInput{
		Owner:    req.Owner,
		Calendar: req.Calendar,
		Name:     req.Name,
		Start:    req.Start.AsTime(),
	})
	if err != nil {
		return nil, statusFromError(log, "cancel failed", err, slog.String("owner", req.Owner), slog.String("name", req.Name))
	}

	log.Info("appointment cancelled", slog.String("appointment_id", removed.ID.String()), slog.String("owner", req.Owner))
	return &calbookv1.CancelAppointmentResponse{Appointment: toAPIAppointment(removed)}, nil
}

func (s *SchedulingServer) SearchAppointments(ctx context.Context, req *calbookv1.SearchAppointmentsRequest) (*calbookv1.SearchAppointmentsResponse, error) {
	log := s.log.With(slog.String("rpc", "SearchAppointments"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	rows, err := s.svc.Search(ctx, booking.SearchInput{
		UserID:       req.UserID,
		NameContains: req.NameContains,
		From:         optionalTime(req.From),
		To:           optionalTime(req.To),
	})
	if err != nil {
		return nil, statusFromError(log, "search failed", err, slog.String("user_id", req.UserID))
	}

	out := make([]*calbookv1.Appointment, 0, len(rows))
	for _, a := range rows {
		out = append(out, toAPIAppointment(a))
	}

	log.Debug("appointments searched", slog.String("user_id", req.UserID), slog.Int("count", len(out)))
	return &calbookv1.SearchAppointmentsResponse{Appointments: out}, nil
}

func (s *SchedulingServer) ExportFreeBusy(ctx context.Context, req *calbookv1.ExportFreeBusyRequest) (*calbookv1.ExportFreeBusyResponse, error) {
	log := s.log.With(slog.String("rpc", "ExportFreeBusy"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	doc, err := s.svc.ExportFreeBusy(ctx, booking.FreeSlotsInput{
		UserA:       req.UserA,
		UserB:       req.UserB,
		HorizonDays: horizon(req.HorizonDays),
	})
	if err != nil {
		return nil, statusFromError(log, "free/busy export failed", err, slog.String("user_a", req.UserA), slog.String("user_b", req.UserB))
	}
	return &calbookv1.ExportFreeBusyResponse{ICalendar: string(doc)}, nil
}

// statusFromError maps service errors to gRPC codes. Only unexpected errors
// are logged at error level; their detail never reaches the client.
func statusFromError(log *slog.Logger, msg string, err error, attrs ...any) error {
	args := append([]any{slog.Any("err", err)}, attrs...)

	var vErr *booking.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", args...)
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.Is(err, scheduling.ErrUnknownUser):
		log.Info(msg, args...)
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, store.ErrNotFound):
		log.Info(msg, args...)
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, scheduling.ErrInvalidProfile):
		log.Warn(msg, args...)
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		log.Info(msg, args...)
		return status.Error(codes.FailedPrecondition, "That time is not available. Pick a different slot.")
	case errors.Is(err, store.ErrConflict):
		log.Info(msg, args...)
		return status.Error(codes.FailedPrecondition, "An appointment with that name already starts at that time.")
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn(msg, args...)
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	default:
		log.Error(msg, args...)
		return status.Error(codes.Internal, "internal error")
	}
}

func horizon(v *int32) *int {
	if v == nil {
		return nil
	}
	h := int(*v)
	return &h
}

func optionalTime(ts *calbookv1.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.AsTime()
	return &t
}

func toAPIAppointment(a domain.Appointment) *calbookv1.Appointment {
	out := &calbookv1.Appointment{
		ID:              a.ID.String(),
		CalendarID:      a.CalendarID.String(),
		Name:            a.Name,
		Start:           calbookv1.NewTimestamp(a.StartTime),
		End:             calbookv1.NewTimestamp(a.EndTime()),
		DurationMinutes: int32(a.DurationMinutes),
	}
	if !a.CreatedAt.IsZero() {
		out.CreatedAt = calbookv1.NewTimestamp(a.CreatedAt)
	}
	if !a.UpdatedAt.IsZero() {
		out.UpdatedAt = calbookv1.NewTimestamp(a.UpdatedAt)
	}
	return out
}
