package campus

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Students stores the enrollment extension of users.
type Students interface {
	GetByUserIDTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Student, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Student) (*Student, error)
	SetVerifiedTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, verified bool) (*Student, error)
}

type students struct {
	base repository.Repository[*Student]
	db   *bun.DB
}

var _ Students = (*students)(nil)

// NewStudentsRepository returns the bun backed Students store.
func NewStudentsRepository(db *bun.DB) Students {
	return &students{
		db: db,
		base: repository.NewRepository[*Student](db, repository.ModelHandlers[*Student]{
			NewRecord: func() *Student { return &Student{} },
			GetID: func(s *Student) uuid.UUID {
				if s == nil {
					return uuid.Nil
				}
				return s.ID
			},
			SetID: func(s *Student, id uuid.UUID) {
				if s != nil {
					s.ID = id
				}
			},
			GetIdentifier: func() string {
				return "user_id"
			},
		}),
	}
}

func (r *students) GetByUserIDTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Student, error) {
	record := &Student{}
	err := tx.NewSelect().
		Model(record).
		Relation("College").
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundAs(err, ErrStudentNotFound, map[string]any{"user_id": userID.String()})
	}
	return record, nil
}

func (r *students) CreateTx(ctx context.Context, tx bun.IDB, record *Student) (*Student, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()
	return r.base.CreateTx(ctx, tx, record)
}

func (r *students) SetVerifiedTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, verified bool) (*Student, error) {
	res, err := tx.NewUpdate().
		Model((*Student)(nil)).
		Set("is_verified = ?", verified).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res, ErrStudentNotFound, userID); err != nil {
		return nil, err
	}
	return r.GetByUserIDTx(ctx, tx, userID)
}
