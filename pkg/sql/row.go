package lsql

import (
	"github.com/jmoiron/sqlx"
)

// Row defers query errors to Scan so callers can chain
// QueryRowContext(...).Scan(...) without a separate error check.
type Row struct {
	err error
	row *sqlx.Row
}

func (r *Row) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	return r.row.Scan(dest...)
}
