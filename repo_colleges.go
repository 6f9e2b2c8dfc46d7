package campus

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Colleges stores institutions.
type Colleges interface {
	GetByID(ctx context.Context, id uuid.UUID) (*College, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*College, error)
	GetByCodeTx(ctx context.Context, tx bun.IDB, code string) (*College, error)
	CodeExistsTx(ctx context.Context, tx bun.IDB, code string) (bool, error)
	List(ctx context.Context, page Page, activeOnly bool) ([]*College, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *College) (*College, error)
	DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type colleges struct {
	base repository.Repository[*College]
	db   *bun.DB
}

var _ Colleges = (*colleges)(nil)

// NewCollegesRepository returns the bun backed Colleges store.
func NewCollegesRepository(db *bun.DB) Colleges {
	return &colleges{
		db: db,
		base: repository.NewRepository[*College](db, repository.ModelHandlers[*College]{
			NewRecord: func() *College { return &College{} },
			GetID: func(c *College) uuid.UUID {
				if c == nil {
					return uuid.Nil
				}
				return c.ID
			},
			SetID: func(c *College, id uuid.UUID) {
				if c != nil {
					c.ID = id
				}
			},
			GetIdentifier: func() string {
				return "code"
			},
		}),
	}
}

func (r *colleges) GetByID(ctx context.Context, id uuid.UUID) (*College, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

func (r *colleges) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*College, error) {
	record := &College{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundAs(err, ErrCollegeNotFound, map[string]any{"id": id.String()})
	}
	return record, nil
}

func (r *colleges) GetByCodeTx(ctx context.Context, tx bun.IDB, code string) (*College, error) {
	record, err := r.base.GetByIdentifierTx(ctx, tx, NormalizeCollegeCode(code))
	if err != nil {
		return nil, notFoundAs(err, ErrCollegeNotFound, map[string]any{"code": code})
	}
	return record, nil
}

func (r *colleges) CodeExistsTx(ctx context.Context, tx bun.IDB, code string) (bool, error) {
	return tx.NewSelect().
		Model((*College)(nil)).
		Where("?TableAlias.code = ?", NormalizeCollegeCode(code)).
		Exists(ctx)
}

func (r *colleges) List(ctx context.Context, page Page, activeOnly bool) ([]*College, error) {
	page = page.Normalize()
	records := []*College{}
	q := r.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.name ASC").
		Offset(page.Skip).
		Limit(page.Limit)

	if activeOnly {
		q = q.Where("?TableAlias.is_active = ?", true)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *colleges) CreateTx(ctx context.Context, tx bun.IDB, record *College) (*College, error) {
	record.Code = NormalizeCollegeCode(record.Code)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	created, err := r.base.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCollegeCode.Clone().WithMetadata(map[string]any{"code": record.Code})
		}
		return nil, err
	}
	return created, nil
}

// DeleteTx removes the college and the student profiles enrolled in it.
// The owning user accounts are kept.
func (r *colleges) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	if _, err := tx.NewDelete().Model((*Student)(nil)).Where("college_id = ?", id).Exec(ctx); err != nil {
		return err
	}

	res, err := tx.NewDelete().Model((*College)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return expectAffected(res, ErrCollegeNotFound, id)
}

// NormalizeCollegeCode trims and upper cases a college code.
func NormalizeCollegeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
