package campus

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users stores identity records.
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*User, error)
	UsernameExistsTx(ctx context.Context, tx bun.IDB, username string) (bool, error)
	List(ctx context.Context, page Page, activeOnly bool) ([]*User, error)

	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	UpdateProfileTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	SetActiveTx(ctx context.Context, tx bun.IDB, id uuid.UUID, active bool) (*User, error)
	UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string, mustChange bool) error
	DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error
	TrackSucccessfulLogin(ctx context.Context, user *User) error
	TrackSucccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error
}

type users struct {
	base repository.Repository[*User]
	db   *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository returns the bun backed Users store.
func NewUsersRepository(db *bun.DB) Users {
	return &users{
		db: db,
		base: repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
			NewRecord: func() *User { return &User{} },
			GetID: func(u *User) uuid.UUID {
				if u == nil {
					return uuid.Nil
				}
				return u.ID
			},
			SetID: func(u *User, id uuid.UUID) {
				if u != nil {
					u.ID = id
				}
			},
			GetIdentifier: func() string {
				return "username"
			},
		}),
	}
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Relation("Student").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, map[string]any{"id": id.String()})
	}
	return record, nil
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier)
}

// GetByIdentifierTx resolves a user by login handle only. Ids are not
// accepted so a user id can never stand in for a handle at login.
func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*User, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil, ErrUserNotFound
	}

	record, err := a.base.GetByIdentifierTx(ctx, tx, NormalizeHandle(trimmed))
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, map[string]any{"identifier": identifier})
	}
	return record, nil
}

func (a *users) UsernameExistsTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.username = ?", NormalizeHandle(username)).
		Exists(ctx)
}

func (a *users) List(ctx context.Context, page Page, activeOnly bool) ([]*User, error) {
	page = page.Normalize()
	records := []*User{}
	q := a.db.NewSelect().
		Model(&records).
		Relation("Student").
		OrderExpr("?TableAlias.created_at ASC").
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

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)
	created, err := a.base.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrHandleTaken.Clone().WithMetadata(map[string]any{"username": record.Username})
		}
		return nil, err
	}
	return created, nil
}

// UpdateProfileTx persists the self editable profile fields.
func (a *users) UpdateProfileTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	record.UpdatedAt = time.Now()
	res, err := tx.NewUpdate().
		Model(record).
		Column("email", "first_name", "last_name", "phone_number", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res, ErrUserNotFound, record.ID); err != nil {
		return nil, err
	}
	return a.GetByIDTx(ctx, tx, record.ID)
}

func (a *users) SetActiveTx(ctx context.Context, tx bun.IDB, id uuid.UUID, active bool) (*User, error) {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("is_active = ?", active).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res, ErrUserNotFound, id); err != nil {
		return nil, err
	}
	return a.GetByIDTx(ctx, tx, id)
}

func (a *users) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string, mustChange bool) error {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("must_change_password = ?", mustChange).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectAffected(res, ErrUserNotFound, id)
}

// DeleteTx removes the user and everything hanging from it: registrations
// made by the user, events the user created along with their registrations,
// and the student profile.
func (a *users) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	createdEvents := tx.NewSelect().
		Model((*Event)(nil)).
		Column("id").
		Where("created_by = ?", id)

	steps := []*bun.DeleteQuery{
		tx.NewDelete().Model((*Registration)(nil)).Where("user_id = ?", id),
		tx.NewDelete().Model((*Registration)(nil)).Where("event_id IN (?)", createdEvents),
		tx.NewDelete().Model((*Event)(nil)).Where("created_by = ?", id),
		tx.NewDelete().Model((*Student)(nil)).Where("user_id = ?", id),
	}

	for _, q := range steps {
		if _, err := q.Exec(ctx); err != nil {
			return err
		}
	}

	res, err := tx.NewDelete().Model((*User)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return expectAffected(res, ErrUserNotFound, id)
}

func (a *users) TrackSucccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSucccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSucccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	loggedInAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "users"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE "id" = ?;
	`, loggedInAt, user.ID).Exec(ctx)
	if err == nil {
		user.LoggedInAt = &loggedInAt
		user.LoginAttempts = 0
		user.LoginAttemptAt = nil
	}
	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, user)
}

// TrackAttemptedLoginTx counts a failed login in the database so that
// concurrent failures are not lost. A zero LoginAttempts on user means the
// previous window expired and the counter starts over.
func (a *users) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	now := time.Now()
	q := tx.NewUpdate().
		Model((*User)(nil)).
		Set("login_attempt_at = ?", now).
		Where("id = ?", user.ID)

	if user.LoginAttempts == 0 {
		q = q.Set("login_attempts = 1")
	} else {
		q = q.Set("login_attempts = login_attempts + 1")
	}

	if _, err := q.Exec(ctx); err != nil {
		return err
	}

	user.LoginAttempts++
	user.LoginAttemptAt = &now
	return nil
}

// NormalizeHandle lower cases and trims a login handle.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Username = NormalizeHandle(record.Username)
	record.Email = strings.TrimSpace(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
}
