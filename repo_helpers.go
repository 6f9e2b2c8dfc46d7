package campus

import (
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// notFoundAs translates a repository not found error into the domain
// sentinel, passing any other error through.
func notFoundAs(err error, target *errors.Error, metadata map[string]any) error {
	if !errors.Is(err, sql.ErrNoRows) && !repository.IsRecordNotFound(err) {
		return err
	}
	return target.Clone().WithMetadata(metadata)
}

func expectAffected(res sql.Result, notFound *errors.Error, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound.Clone().WithMetadata(map[string]any{"id": id.String()})
	}
	return nil
}
