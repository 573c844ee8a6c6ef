package lsql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSqliteInitialize(t *testing.T) {
	db, err := initializeTest(t)
	assert.Nil(t, err)
	assert.NotNil(t, db)
	_, err = db.ExecContext(context.Background(), "create table t(i);")
	assert.Nil(t, err)
}

func TestSqliteExecAndReturnId(t *testing.T) {
	db, err := initializeTest(t)
	assert.Nil(t, err)

	ctx := context.Background()
	_, err = db.ExecContext(ctx, "create table runs(id integer primary key autoincrement, name text);")
	assert.Nil(t, err)

	id, err := db.ExecAndReturnId(ctx, "INSERT INTO runs (name) VALUES (?) RETURNING id", "first")
	assert.Nil(t, err)
	assert.Equal(t, int64(1), id)

	id, err = db.ExecAndReturnId(ctx, "INSERT INTO runs (name) VALUES (?) RETURNING id", "second")
	assert.Nil(t, err)
	assert.Equal(t, int64(2), id)
}

func TestTransactionRollback(t *testing.T) {
	db, err := initializeTest(t)
	assert.Nil(t, err)

	ctx := context.Background()
	_, err = db.ExecContext(ctx, "create table runs(id integer primary key autoincrement, name text);")
	assert.Nil(t, err)

	wantErr := assert.AnError
	err = db.Transaction(ctx, func(ctx context.Context, tx *Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO runs (name) VALUES (?)", "doomed"); err != nil {
			return err
		}
		return wantErr
	})
	assert.Equal(t, wantErr, err)

	var count int
	err = db.QueryRowContext(ctx, "SELECT count(*) FROM runs").Scan(&count)
	assert.Nil(t, err)
	assert.Equal(t, 0, count)
}
