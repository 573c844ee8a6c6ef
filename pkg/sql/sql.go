package lsql

import (
	"fmt"
)

var (
	ErrDatabaseEngineNotSupported = fmt.Errorf("database engine not supported")
	ErrConstraintViolation        = fmt.Errorf("constraint violation")
)
