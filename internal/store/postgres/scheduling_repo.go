package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"calbook/internal/domain"
	"calbook/internal/store"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// SchedulingRepo reads profiles and busy time and runs booking transactions.
type SchedulingRepo struct {
	db *bun.DB
	queries
}

func NewSchedulingRepo(db *bun.DB) *SchedulingRepo {
	return &SchedulingRepo{db: db, queries: queries{db: db}}
}

var _ store.BookingRepository = (*SchedulingRepo)(nil)

// InUsersTransaction runs fn in one transaction holding an advisory lock per
// user. Locks are taken in sorted order so two bookings over the same pair
// cannot deadlock.
func (r *SchedulingRepo) InUsersTransaction(ctx context.Context, userNames []string, fn func(ctx context.Context, tx store.SchedulingTx) error) error {
	names := lockOrder(userNames)
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, name := range names {
			if err := lockUser(ctx, tx, name); err != nil {
				return err
			}
		}
		return fn(ctx, schedulingTx{queries{db: tx}})
	})
}

func lockOrder(userNames []string) []string {
	seen := make(map[string]struct{}, len(userNames))
	out := make([]string, 0, len(userNames))
	for _, n := range userNames {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func lockUser(ctx context.Context, tx bun.Tx, userName string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", userName).Exec(ctx)
	return err
}

type schedulingTx struct {
	queries
}

var _ store.SchedulingTx = schedulingTx{}

// queries holds the reads and writes shared by the pool and transaction views.
type queries struct {
	db bun.IDB
}

func (q queries) Profile(ctx context.Context, userName string) (domain.AvailabilityProfile, error) {
	var u domain.User
	err := q.db.NewSelect().
		Model(&u).
		Where("u.name = ?", userName).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AvailabilityProfile{}, store.ErrNotFound
		}
		return domain.AvailabilityProfile{}, err
	}
	return u.Profile()
}

func (q queries) BusyIntervals(ctx context.Context, userName string, bq store.BusyQuery) ([]domain.AppointmentInterval, error) {
	rows, err := q.SearchAppointments(ctx, userName, bq)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AppointmentInterval, 0, len(rows))
	for _, a := range rows {
		out = append(out, a.Interval())
	}
	return out, nil
}

// SearchAppointments lists the appointments visible to userName through any
// of its calendar associations.
func (q queries) SearchAppointments(ctx context.Context, userName string, bq store.BusyQuery) ([]domain.Appointment, error) {
	exists, err := q.db.NewSelect().
		Model((*domain.User)(nil)).
		Where("u.name = ?", userName).
		Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	var rows []domain.Appointment
	sel := q.db.NewSelect().
		Model(&rows).
		Join("JOIN calendar_associations AS ca ON ca.calendar_id = a.calendar_id").
		Where("ca.user_name = ?", userName)
	if bq.MinStart != nil {
		sel = sel.Where("a.start_time >= ?", bq.MinStart.UTC())
	}
	if bq.MaxStart != nil {
		sel = sel.Where("a.start_time <= ?", bq.MaxStart.UTC())
	}
	if s := strings.TrimSpace(bq.NameContains); s != "" {
		sel = sel.Where("a.name ILIKE ?", "%"+escapeLike(s)+"%")
	}
	err = sel.OrderExpr("a.start_time ASC, a.id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (q queries) FindCalendar(ctx context.Context, ownerName, calendarName string) (domain.Calendar, error) {
	var c domain.Calendar
	err := q.db.NewSelect().
		Model(&c).
		Where("c.owner_name = ?", ownerName).
		Where("c.name = ?", calendarName).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Calendar{}, store.ErrNotFound
		}
		return domain.Calendar{}, err
	}
	return c, nil
}

// FindAppointmentOnDay returns the appointment called name that starts in
// [dayStart, dayEnd) on the calendar.
func (q queries) FindAppointmentOnDay(ctx context.Context, calendarID uuid.UUID, name string, dayStart, dayEnd time.Time) (domain.Appointment, error) {
	var a domain.Appointment
	err := q.db.NewSelect().
		Model(&a).
		Where("a.calendar_id = ?", calendarID).
		Where("a.name = ?", name).
		Where("a.start_time >= ?", dayStart.UTC()).
		Where("a.start_time < ?", dayEnd.UTC()).
		OrderExpr("a.start_time ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return a, nil
}

func (q queries) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	m.StartTime = appt.StartTime.UTC()

	if _, err := q.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Appointment{}, mapConstraintError(err)
	}
	return m, nil
}

// mapConstraintError turns unique and foreign key violations into the store
// sentinels and passes everything else through.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return store.ErrConflict
		case pgForeignKeyViolation:
			return store.ErrNotFound
		}
	}
	return err
}

func (q queries) DeleteAppointment(ctx context.Context, calendarID uuid.UUID, name string, start time.Time) (domain.Appointment, error) {
	var a domain.Appointment
	err := q.db.NewSelect().
		Model(&a).
		Where("a.calendar_id = ?", calendarID).
		Where("a.name = ?", name).
		Where("a.start_time = ?", start.UTC()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}

	res, err := q.db.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("id = ?", a.ID).
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return a, nil
}

// ShareCalendar associates userName with the calendar unless an association
// already exists.
func (q queries) ShareCalendar(ctx context.Context, userName string, calendarID uuid.UUID) error {
	assoc := domain.CalendarAssociation{
		UserName:   userName,
		CalendarID: calendarID,
		Status:     domain.AssociationStatusShared,
	}
	_, err := q.db.NewInsert().
		Model(&assoc).
		On("CONFLICT (user_name, calendar_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}
