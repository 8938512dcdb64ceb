package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	calbookv1 "calbook/internal/api/calbook/v1"
	"calbook/internal/domain"
	"calbook/internal/service/directory"
	"calbook/internal/store"
)

type fakeDirectoryService struct {
	createUserFn      func(ctx context.Context, name string) (directory.CreateUserResult, error)
	getUserFn         func(ctx context.Context, name string) (domain.User, error)
	listUsersFn       func(ctx context.Context) ([]domain.User, error)
	updateFn          func(ctx context.Context, in directory.UpdateAvailabilityInput) (domain.User, error)
	createCalendarFn  func(ctx context.Context, owner, calendar string) (store.CalendarWithStatus, error)
	listAppointmentFn func(ctx context.Context, owner, calendar string) ([]domain.Appointment, error)
}

func (f *fakeDirectoryService) CreateUser(ctx context.Context, name string) (directory.CreateUserResult, error) {
	if f.createUserFn == nil {
		panic("CreateUser not configured")
	}
	return f.createUserFn(ctx, name)
}

func (f *fakeDirectoryService) GetUser(ctx context.Context, name string) (domain.User, error) {
	if f.getUserFn == nil {
		panic("GetUser not configured")
	}
	return f.getUserFn(ctx, name)
}

func (f *fakeDirectoryService) ListUsers(ctx context.Context) ([]domain.User, error) {
	if f.listUsersFn == nil {
		panic("ListUsers not configured")
	}
	return f.listUsersFn(ctx)
}

func (f *fakeDirectoryService) UpdateAvailability(ctx context.Context, in directory.UpdateAvailabilityInput) (domain.User, error) {
	if f.updateFn == nil {
		panic("UpdateAvailability not configured")
	}
	return f.updateFn(ctx, in)
}

func (f *fakeDirectoryService) CreateCalendar(ctx context.Context, owner, calendar string) (store.CalendarWithStatus, error) {
	if f.createCalendarFn == nil {
		panic("CreateCalendar not configured")
	}
	return f.createCalendarFn(ctx, owner, calendar)
}

func (f *fakeDirectoryService) ListCalendarAppointments(ctx context.Context, owner, calendar string) ([]domain.Appointment, error) {
	if f.listAppointmentFn == nil {
		panic("ListCalendarAppointments not configured")
	}
	return f.listAppointmentFn(ctx, owner, calendar)
}

func aliceUser() domain.User {
	u := domain.User{Name: "alice", CreatedAt: time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)}
	u.SetProfile(domain.AvailabilityProfile{
		Weekdays: [5]bool{true, true, false, true, true},
		DayStart: 7*time.Hour + 45*time.Minute,
		DayEnd:   17 * time.Hour,
		Buffer:   10 * time.Minute,
	})
	return u
}

func TestDirectoryServerCreateUser(t *testing.T) {
	srv := NewDirectoryServer(&fakeDirectoryService{
		createUserFn: func(ctx context.Context, name string) (directory.CreateUserResult, error) {
			if name != "alice" {
				t.Fatalf("name = %q", name)
			}
			return directory.CreateUserResult{User: aliceUser(), Secret: "s3cret"}, nil
		},
	}, slog.Default())

	resp, err := srv.CreateUser(context.Background(), &calbookv1.CreateUserRequest{Name: "alice"})
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if resp.Secret != "s3cret" || resp.User.Name != "alice" {
		t.Fatalf("resp = %+v", resp)
	}
	want := calbookv1.UserProfile{Days: "yynyy", Start: "07:45", End: "17:00", BufferMinutes: 10}
	if *resp.User.Profile != want {
		t.Fatalf("profile = %+v, want %+v", *resp.User.Profile, want)
	}
	if !resp.User.CreatedAt.AsTime().Equal(aliceUser().CreatedAt) {
		t.Fatalf("created_at = %v", resp.User.CreatedAt.AsTime())
	}
}

func TestDirectoryServer_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{err: fmt.Errorf("user %q: %w", "alice", store.ErrConflict), code: codes.AlreadyExists},
		{err: fmt.Errorf("user %q: %w", "ghost", store.ErrNotFound), code: codes.NotFound},
		{err: &directory.ValidationError{}, code: codes.InvalidArgument},
		{err: context.DeadlineExceeded, code: codes.DeadlineExceeded},
		{err: errors.New("boom"), code: codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.code.String(), func(t *testing.T) {
			srv := NewDirectoryServer(&fakeDirectoryService{
				createCalendarFn: func(ctx context.Context, owner, calendar string) (store.CalendarWithStatus, error) {
					return store.CalendarWithStatus{}, tc.err
				},
			}, slog.Default())

			_, err := srv.CreateCalendar(context.Background(), &calbookv1.CreateCalendarRequest{Owner: "alice", Name: "work"})
			if got := status.Code(err); got != tc.code {
				t.Fatalf("code = %s, want %s (%v)", got, tc.code, err)
			}
		})
	}
}

func TestDirectoryServerUpdateAvailability_Passthrough(t *testing.T) {
	var got directory.UpdateAvailabilityInput
	srv := NewDirectoryServer(&fakeDirectoryService{
		updateFn: func(ctx context.Context, in directory.UpdateAvailabilityInput) (domain.User, error) {
			got = in
			return aliceUser(), nil
		},
	}, slog.Default())

	buffer := int32(10)
	if _, err := srv.UpdateAvailability(context.Background(), &calbookv1.UpdateAvailabilityRequest{
		Name:          "alice",
		Days:          "yynyy",
		Start:         "07:45",
		BufferMinutes: &buffer,
	}); err != nil {
		t.Fatalf("UpdateAvailability error: %v", err)
	}
	if got.Name != "alice" || got.Days != "yynyy" || got.Start != "07:45" || got.End != "" {
		t.Fatalf("input = %+v", got)
	}
	if got.BufferMinutes == nil || *got.BufferMinutes != 10 {
		t.Fatalf("buffer = %v", got.BufferMinutes)
	}

	if _, err := srv.UpdateAvailability(context.Background(), nil); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("nil request code = %s", status.Code(err))
	}
}

func TestDirectoryServerCreateCalendarAndList(t *testing.T) {
	calID := uuid.New()
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	srv := NewDirectoryServer(&fakeDirectoryService{
		createCalendarFn: func(ctx context.Context, owner, calendar string) (store.CalendarWithStatus, error) {
			return store.CalendarWithStatus{
				Calendar: domain.Calendar{ID: calID, OwnerName: owner, Name: calendar},
				Status:   domain.AssociationStatusDefault,
			}, nil
		},
		listAppointmentFn: func(ctx context.Context, owner, calendar string) ([]domain.Appointment, error) {
			return []domain.Appointment{{ID: uuid.New(), CalendarID: calID, Name: "standup", StartTime: start, DurationMinutes: 15}}, nil
		},
	}, slog.Default())

	created, err := srv.CreateCalendar(context.Background(), &calbookv1.CreateCalendarRequest{Owner: "alice", Name: "work"})
	if err != nil {
		t.Fatalf("CreateCalendar error: %v", err)
	}
	if created.Calendar.ID != calID.String() || created.Calendar.Status != "default" {
		t.Fatalf("calendar = %+v", created.Calendar)
	}

	listed, err := srv.ListCalendarAppointments(context.Background(), &calbookv1.ListCalendarAppointmentsRequest{Owner: "alice", Calendar: "work"})
	if err != nil {
		t.Fatalf("ListCalendarAppointments error: %v", err)
	}
	if len(listed.Appointments) != 1 || !listed.Appointments[0].End.AsTime().Equal(start.Add(15*time.Minute)) {
		t.Fatalf("appointments = %+v", listed.Appointments)
	}
}

func TestServer_DirectoryRoundTrip(t *testing.T) {
	conn := dialServer(t, &fakeBookingService{}, &fakeDirectoryService{
		listUsersFn: func(ctx context.Context) ([]domain.User, error) {
			return []domain.User{aliceUser()}, nil
		},
	}, ServerOptions{})
	client := calbookv1.NewDirectoryServiceClient(conn)

	resp, err := client.ListUsers(context.Background(), &calbookv1.ListUsersRequest{})
	if err != nil {
		t.Fatalf("ListUsers error: %v", err)
	}
	if len(resp.Users) != 1 || resp.Users[0].Profile.Start != "07:45" {
		t.Fatalf("users = %+v", resp.Users)
	}
	if !resp.Users[0].CreatedAt.AsTime().Equal(aliceUser().CreatedAt) {
		t.Fatalf("created_at = %v", resp.Users[0].CreatedAt.AsTime())
	}
}

func TestServer_DirectoryUnregisteredWithoutService(t *testing.T) {
	conn := dialServer(t, &fakeBookingService{}, nil, ServerOptions{})
	client := calbookv1.NewDirectoryServiceClient(conn)

	_, err := client.ListUsers(context.Background(), &calbookv1.ListUsersRequest{})
	if status.Code(err) != codes.Unimplemented {
		t.Fatalf("code = %s, want Unimplemented", status.Code(err))
	}
}
