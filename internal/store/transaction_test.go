package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInTransaction(t *testing.T) {
	errWork := errors.New("grade rejected")
	errDriver := errors.New("driver gone")

	tests := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
		work   TxFn
		check  func(t *testing.T, err error)
	}{
		{
			name: "commits when work succeeds",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit()
			},
			work:  func(context.Context, *sql.Tx) error { return nil },
			check: func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name: "rolls back and returns the work error unchanged",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			work:  func(context.Context, *sql.Tx) error { return errWork },
			check: func(t *testing.T, err error) { assert.Same(t, errWork, err) },
		},
		{
			name: "begin failure",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errDriver)
			},
			work: func(context.Context, *sql.Tx) error {
				t.Fatal("work must not run without a transaction")
				return nil
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrTransactionFailed)
				assert.ErrorIs(t, err, errDriver)
			},
		},
		{
			name: "commit failure",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit().WillReturnError(errDriver)
			},
			work: func(context.Context, *sql.Tx) error { return nil },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrTransactionFailed)
				assert.ErrorIs(t, err, errDriver)
			},
		},
		{
			name: "rollback failure keeps the work error",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback().WillReturnError(errDriver)
			},
			work: func(context.Context, *sql.Tx) error { return errWork },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, errWork)
				assert.Contains(t, err.Error(), "driver gone")
			},
		},
		{
			name: "a failed second write undoes the first",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO review_logs").WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("INSERT INTO memory_states").WillReturnError(errors.New("constraint"))
				mock.ExpectRollback()
			},
			work: func(ctx context.Context, tx *sql.Tx) error {
				if _, err := tx.ExecContext(ctx, "INSERT INTO review_logs (id) VALUES (1)"); err != nil {
					return err
				}
				_, err := tx.ExecContext(ctx, "INSERT INTO memory_states (card_id) VALUES ('kanji:日')")
				return err
			},
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "constraint") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			tt.expect(mock)
			tt.check(t, RunInTransaction(context.Background(), db, tt.work))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRunInTransaction_RepanicsAfterRollback(t *testing.T) {
	for _, rollbackErr := range []error{nil, errors.New("rollback failed")} {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(rollbackErr)

		assert.PanicsWithValue(t, "scheduler bug", func() {
			_ = RunInTransaction(context.Background(), db, func(context.Context, *sql.Tx) error {
				panic("scheduler bug")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	}
}
