package campus

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	DB() *bun.DB
	Users() Users
	Colleges() Colleges
	Students() Students
	Events() Events
	Registrations() Registrations
}

type mngr struct {
	db            *bun.DB
	users         Users
	colleges      Colleges
	students      Students
	events        Events
	registrations Registrations
}

// NewRepositoryManager wires every repository against db.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:            db,
		users:         NewUsersRepository(db),
		colleges:      NewCollegesRepository(db),
		students:      NewStudentsRepository(db),
		events:        NewEventsRepository(db),
		registrations: NewRegistrationsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("database should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.colleges == nil {
		return errors.New("repository colleges should be initialized")
	}

	if m.students == nil {
		return errors.New("repository students should be initialized")
	}

	if m.events == nil {
		return errors.New("repository events should be initialized")
	}

	if m.registrations == nil {
		return errors.New("repository registrations should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) DB() *bun.DB {
	return m.db
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Colleges() Colleges {
	return m.colleges
}

func (m mngr) Students() Students {
	return m.students
}

func (m mngr) Events() Events {
	return m.events
}

func (m mngr) Registrations() Registrations {
	return m.registrations
}
