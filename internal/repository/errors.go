// Package repository implements the MySQL side of the service.  Driver
// failures leave this package wrapped as apperr.StoreError; the only driver
// outcomes given business meaning are a duplicate key (apperr.ErrConflict)
// and an empty result or zero affected rows (apperr.ErrNotFound).
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/placenote/internal/apperr"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// rowErr maps sql.ErrNoRows to apperr.ErrNotFound and wraps anything else.
func rowErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return apperr.Store(op, err)
}

// affectedOne turns an Exec result into ErrNotFound when no row matched.
func affectedOne(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Store(op, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
