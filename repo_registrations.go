package campus

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Registrations stores the user to event join records.
type Registrations interface {
	ExistsTx(ctx context.Context, tx bun.IDB, userID, eventID uuid.UUID) (bool, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Registration) (*Registration, error)
	DeleteTx(ctx context.Context, tx bun.IDB, userID, eventID uuid.UUID) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*Registration, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Registration, error)
}

type registrations struct {
	base repository.Repository[*Registration]
	db   *bun.DB
}

var _ Registrations = (*registrations)(nil)

// NewRegistrationsRepository returns the bun backed Registrations store.
func NewRegistrationsRepository(db *bun.DB) Registrations {
	return &registrations{
		db: db,
		base: repository.NewRepository[*Registration](db, repository.ModelHandlers[*Registration]{
			NewRecord: func() *Registration { return &Registration{} },
			GetID: func(r *Registration) uuid.UUID {
				if r == nil {
					return uuid.Nil
				}
				return r.ID
			},
			SetID: func(r *Registration, id uuid.UUID) {
				if r != nil {
					r.ID = id
				}
			},
			GetIdentifier: func() string {
				return "id"
			},
		}),
	}
}

func (r *registrations) ExistsTx(ctx context.Context, tx bun.IDB, userID, eventID uuid.UUID) (bool, error) {
	return tx.NewSelect().
		Model((*Registration)(nil)).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Exists(ctx)
}

// CreateTx inserts the registration, mapping the (user_id, event_id)
// unique constraint to ErrAlreadyRegistered.
func (r *registrations) CreateTx(ctx context.Context, tx bun.IDB, record *Registration) (*Registration, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.RegisteredAt = time.Now()

	created, err := r.base.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRegistered.Clone().WithMetadata(map[string]any{
				"user_id":  record.UserID.String(),
				"event_id": record.EventID.String(),
			})
		}
		return nil, err
	}
	return created, nil
}

func (r *registrations) DeleteTx(ctx context.Context, tx bun.IDB, userID, eventID uuid.UUID) error {
	res, err := tx.NewDelete().
		Model((*Registration)(nil)).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectAffected(res, ErrRegistrationNotFound, eventID)
}

func (r *registrations) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*Registration, error) {
	records := []*Registration{}
	err := r.db.NewSelect().
		Model(&records).
		Relation("User").
		Where("?TableAlias.event_id = ?", eventID).
		OrderExpr("?TableAlias.registered_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *registrations) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Registration, error) {
	records := []*Registration{}
	err := r.db.NewSelect().
		Model(&records).
		Relation("Event").
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.registered_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}
