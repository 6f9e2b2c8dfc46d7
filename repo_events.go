package campus

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// registeredCountExpr computes the live registration count of an event.
const registeredCountExpr = "(SELECT COUNT(*) FROM registrations AS r WHERE r.event_id = ?TableAlias.id) AS registered_count"

// Events stores events. Reads fill RegisteredCount from a live aggregate.
type Events interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Event, error)
	LockTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Event, error)
	CountRegistrationsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (int, error)
	List(ctx context.Context, page Page) ([]*Event, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Event) (*Event, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *Event) (*Event, error)
	DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type events struct {
	base repository.Repository[*Event]
	db   *bun.DB
}

var _ Events = (*events)(nil)

// NewEventsRepository returns the bun backed Events store.
func NewEventsRepository(db *bun.DB) Events {
	return &events{
		db: db,
		base: repository.NewRepository[*Event](db, repository.ModelHandlers[*Event]{
			NewRecord: func() *Event { return &Event{} },
			GetID: func(e *Event) uuid.UUID {
				if e == nil {
					return uuid.Nil
				}
				return e.ID
			},
			SetID: func(e *Event, id uuid.UUID) {
				if e != nil {
					e.ID = id
				}
			},
			GetIdentifier: func() string {
				return "id"
			},
		}),
	}
}

func (r *events) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

func (r *events) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Event, error) {
	record := &Event{}
	err := tx.NewSelect().
		Model(record).
		ColumnExpr("?TableAlias.*").
		ColumnExpr(registeredCountExpr).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundAs(err, ErrEventNotFound, map[string]any{"id": id.String()})
	}
	return record, nil
}

// LockTx loads the event row for update. PostgreSQL takes a row lock that
// is held until tx ends; SQLite already serializes writers.
func (r *events) LockTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Event, error) {
	record := &Event{}
	q := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1)

	if tx.Dialect().Name() == dialect.PG {
		q = q.For("UPDATE")
	}

	if err := q.Scan(ctx); err != nil {
		return nil, notFoundAs(err, ErrEventNotFound, map[string]any{"id": id.String()})
	}
	return record, nil
}

func (r *events) CountRegistrationsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (int, error) {
	return tx.NewSelect().
		Model((*Registration)(nil)).
		Where("event_id = ?", id).
		Count(ctx)
}

// List returns events ordered by start time.
func (r *events) List(ctx context.Context, page Page) ([]*Event, error) {
	page = page.Normalize()
	records := []*Event{}
	err := r.db.NewSelect().
		Model(&records).
		ColumnExpr("?TableAlias.*").
		ColumnExpr(registeredCountExpr).
		OrderExpr("?TableAlias.start_time ASC").
		Offset(page.Skip).
		Limit(page.Limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *events) CreateTx(ctx context.Context, tx bun.IDB, record *Event) (*Event, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now
	return r.base.CreateTx(ctx, tx, record)
}

// UpdateTx persists the mutable event fields, nullable ones included.
func (r *events) UpdateTx(ctx context.Context, tx bun.IDB, record *Event) (*Event, error) {
	record.UpdatedAt = time.Now()
	res, err := tx.NewUpdate().
		Model(record).
		Column("title", "description", "venue", "start_time", "end_time", "capacity", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res, ErrEventNotFound, record.ID); err != nil {
		return nil, err
	}
	return r.GetByIDTx(ctx, tx, record.ID)
}

// DeleteTx removes the event and its registrations.
func (r *events) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	if _, err := tx.NewDelete().Model((*Registration)(nil)).Where("event_id = ?", id).Exec(ctx); err != nil {
		return err
	}

	res, err := tx.NewDelete().Model((*Event)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return expectAffected(res, ErrEventNotFound, id)
}
