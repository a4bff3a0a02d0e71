package pgutil

import (
	"database/sql"
	"errors"
	"fmt"
	"github.com/burenotti/go_health_funnel/internal/adapter/storage"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
	"strings"
)

var (
	ErrUnsupportedChange = errors.New("unsupported change")
)

func ViolatesConstraint(err error, constraintName string) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) &&
		pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) &&
		pgErr.ConstraintName == constraintName
}

func Peek[K comparable, V any](items map[K]V, defaultValue ...V) V {
	for _, item := range items {
		return item
	}

	if len(defaultValue) != 0 {
		return defaultValue[0]
	}
	return *new(V)
}

func PeekOrErr[K comparable, V any](items map[K]V, err, notFoundErr error) (V, error) {
	if err != nil {
		return *new(V), err
	}

	if len(items) == 0 {
		return *new(V), notFoundErr
	}

	return Peek(items), nil
}

// MakeUpdateQuery adds a SET clause for every changed column. The changelog
// must come from diffing two flat row structs whose diff tags are column names.
func MakeUpdateQuery(stmt *sqlf.Stmt, changes diff.Changelog) (*sqlf.Stmt, error) {
	for _, c := range changes {
		if c.Type != "update" {
			return nil, fmt.Errorf("%w: %s of %s", ErrUnsupportedChange, c.Type, strings.Join(c.Path, "."))
		}
		if len(c.Path) != 1 {
			return nil, fmt.Errorf("%w: nested path %s", ErrUnsupportedChange, strings.Join(c.Path, "."))
		}
		stmt = stmt.Set(c.Path[0], c.To)
	}
	return stmt, nil
}

func AssertUpdated(res sql.Result, err error, notUpdatedError error) error {
	if err != nil {
		return storage.InternalError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storage.InternalError(err)
	}

	if affected == 0 {
		return notUpdatedError
	}
	return nil
}
