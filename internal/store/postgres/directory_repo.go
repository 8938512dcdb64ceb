package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"calbook/internal/domain"
	"calbook/internal/store"
)

// DirectoryRepo stores users, their availability and their calendars.
type DirectoryRepo struct {
	db *bun.DB
	queries
}

func NewDirectoryRepo(db *bun.DB) *DirectoryRepo {
	return &DirectoryRepo{db: db, queries: queries{db: db}}
}

var _ store.DirectoryRepository = (*DirectoryRepo)(nil)

func (r *DirectoryRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	m := u
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.User{}, mapConstraintError(err)
	}
	return m, nil
}

func (r *DirectoryRepo) GetUser(ctx context.Context, name string) (domain.User, error) {
	var u domain.User
	err := r.db.NewSelect().
		Model(&u).
		Where("u.name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, store.ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

func (r *DirectoryRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := r.db.NewSelect().Model(&users).OrderExpr("u.name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *DirectoryRepo) UpdateAvailability(ctx context.Context, name string, p domain.AvailabilityProfile) (domain.User, error) {
	u := domain.User{Name: name}
	u.SetProfile(p)

	res, err := r.db.NewUpdate().
		Model(&u).
		Column("avail_days", "avail_start_minutes", "avail_end_minutes", "buffer_minutes").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.User{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.User{}, err
	}
	if affected == 0 {
		return domain.User{}, store.ErrNotFound
	}
	return r.GetUser(ctx, name)
}

// CreateCalendar adds a calendar for ownerName. The owner's first calendar
// becomes the default one, later calendars are associated as own. The owner
// lock serialises concurrent creations so only one can claim the default.
func (r *DirectoryRepo) CreateCalendar(ctx context.Context, ownerName, calendarName string) (store.CalendarWithStatus, error) {
	var out store.CalendarWithStatus
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockUser(ctx, tx, ownerName); err != nil {
			return err
		}

		exists, err := tx.NewSelect().
			Model((*domain.User)(nil)).
			Where("u.name = ?", ownerName).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return store.ErrNotFound
		}

		cal := domain.Calendar{OwnerName: ownerName, Name: calendarName}
		if _, err := tx.NewInsert().Model(&cal).Exec(ctx); err != nil {
			return mapConstraintError(err)
		}

		hasDefault, err := tx.NewSelect().
			Model((*domain.CalendarAssociation)(nil)).
			Where("ca.user_name = ?", ownerName).
			Where("ca.status = ?", domain.AssociationStatusDefault).
			Exists(ctx)
		if err != nil {
			return err
		}

		status := domain.AssociationStatusDefault
		if hasDefault {
			status = domain.AssociationStatusOwn
		}
		assoc := domain.CalendarAssociation{UserName: ownerName, CalendarID: cal.ID, Status: status}
		if _, err := tx.NewInsert().Model(&assoc).Exec(ctx); err != nil {
			return mapConstraintError(err)
		}

		out = store.CalendarWithStatus{Calendar: cal, Status: status}
		return nil
	})
	if err != nil {
		return store.CalendarWithStatus{}, err
	}
	return out, nil
}

// ListCalendarAppointments returns every appointment of the named calendar in
// start order.
func (r *DirectoryRepo) ListCalendarAppointments(ctx context.Context, ownerName, calendarName string) ([]domain.Appointment, error) {
	cal, err := r.FindCalendar(ctx, ownerName, calendarName)
	if err != nil {
		return nil, err
	}

	var rows []domain.Appointment
	err = r.db.NewSelect().
		Model(&rows).
		Where("a.calendar_id = ?", cal.ID).
		OrderExpr("a.start_time ASC, a.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
