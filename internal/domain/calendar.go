package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Calendar struct {
	bun.BaseModel `bun:"table:calendars,alias:c"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	OwnerName string    `bun:"owner_name,notnull"`
	Name      string    `bun:"name,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (c *Calendar) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if c.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		c.ID = id
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return nil
}

type AssociationStatus string

const (
	AssociationStatusDefault AssociationStatus = "default"
	AssociationStatusOwn     AssociationStatus = "own"
	AssociationStatusShared  AssociationStatus = "shared"
)

// CalendarAssociation links a user to a calendar whose appointments the user
// sees as busy time.
type CalendarAssociation struct {
	bun.BaseModel `bun:"table:calendar_associations,alias:ca"`

	UserName   string            `bun:"user_name,pk"`
	CalendarID uuid.UUID         `bun:"calendar_id,pk,type:uuid"`
	Status     AssociationStatus `bun:"status,notnull"`
	CreatedAt  time.Time         `bun:"created_at,notnull"`
}

func (a *CalendarAssociation) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}
