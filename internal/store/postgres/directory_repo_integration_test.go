package postgres

import (
	"context"
	"errors"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"calbook/internal/domain"
	"calbook/internal/store"
)

func TestPostgresIntegration_Directory(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("CALBOOK_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("CALBOOK_TEST_DATABASE_URL not set")
	}

	admin, err := Open(databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = Close(admin) })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := "calbook_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = admin.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
	})

	err = admin.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema).Exec(ctx); err != nil {
			return err
		}
		return applyMigrations(ctx, tx)
	})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()

	db, err := Open(u.String(), PoolConfig{MaxOpenConns: 2})
	if err != nil {
		t.Fatalf("Open schema db: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })

	repo := NewDirectoryRepo(db)

	alice := domain.User{Name: "alice", SecretHash: "x"}
	alice.SetProfile(domain.DefaultProfile())
	if _, err := repo.CreateUser(ctx, alice); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := repo.CreateUser(ctx, alice); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate CreateUser err = %v, want ErrConflict", err)
	}

	first, err := repo.CreateCalendar(ctx, "alice", "work")
	if err != nil {
		t.Fatalf("CreateCalendar work: %v", err)
	}
	if first.Status != domain.AssociationStatusDefault {
		t.Fatalf("first calendar status = %s", first.Status)
	}
	second, err := repo.CreateCalendar(ctx, "alice", "home")
	if err != nil {
		t.Fatalf("CreateCalendar home: %v", err)
	}
	if second.Status != domain.AssociationStatusOwn {
		t.Fatalf("second calendar status = %s", second.Status)
	}
	if _, err := repo.CreateCalendar(ctx, "alice", "work"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate calendar err = %v, want ErrConflict", err)
	}
	if _, err := repo.CreateCalendar(ctx, "ghost", "work"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("ghost calendar err = %v, want ErrNotFound", err)
	}

	p := domain.DefaultProfile()
	p.Weekdays[0] = false
	p.Buffer = 0
	updated, err := repo.UpdateAvailability(ctx, "alice", p)
	if err != nil {
		t.Fatalf("UpdateAvailability: %v", err)
	}
	if updated.AvailDays != "nyyyy" || updated.BufferMinutes != 0 || updated.SecretHash != "x" {
		t.Fatalf("updated user = %+v", updated)
	}

	appts, err := repo.ListCalendarAppointments(ctx, "alice", "home")
	if err != nil {
		t.Fatalf("ListCalendarAppointments: %v", err)
	}
	if len(appts) != 0 {
		t.Fatalf("home calendar has %d appointments", len(appts))
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].Name != "alice" {
		t.Fatalf("users = %+v", users)
	}
}
