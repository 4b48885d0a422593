package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohyerolo/inflearn-jpa/internal/store"
	"github.com/mohyerolo/inflearn-jpa/internal/store/storetest"
)

func TestRebind(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
		{"INSERT INTO t (a, b, c) VALUES (?, ?, ?)", "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)"},
		{"WHERE id IN (" + store.Placeholders(3) + ")", "WHERE id IN ($1, $2, $3)"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, store.Rebind(tc.in), tc.in)
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", store.Placeholders(0))
	assert.Equal(t, "?", store.Placeholders(1))
	assert.Equal(t, "?, ?, ?", store.Placeholders(3))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), store.Options{Driver: "oracle"})
	assert.Error(t, err)
}

func TestInTx_CommitAndRollback(t *testing.T) {
	db := storetest.New(t)
	ctx := context.Background()

	err := db.InTx(ctx, func(q store.DBTX) error {
		_, err := q.ExecContext(ctx, `INSERT INTO member (name) VALUES (?)`, "kim")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.InTx(ctx, func(q store.DBTX) error {
		if _, err := q.ExecContext(ctx, `INSERT INTO member (name) VALUES (?)`, "lee"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM member`).Scan(&n))
	assert.Equal(t, 1, n, "rolled back insert must not be visible")
}

func TestInTx_PanicRollsBack(t *testing.T) {
	db := storetest.New(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = db.InTx(ctx, func(q store.DBTX) error {
			_, _ = q.ExecContext(ctx, `INSERT INTO member (name) VALUES (?)`, "park")
			panic("handler blew up")
		})
	})

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM member`).Scan(&n))
	assert.Zero(t, n)
}

func TestIsUniqueViolation(t *testing.T) {
	db := storetest.New(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO member (name) VALUES (?)`, "kim")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO member (name) VALUES (?)`, "kim")
	require.Error(t, err)

	assert.True(t, store.IsUniqueViolation(err))
	assert.True(t, store.IsUniqueViolation(store.Wrap("insert member", err)))
	assert.False(t, store.IsUniqueViolation(errors.New("other")))
}

func TestQueries_Counted(t *testing.T) {
	db := storetest.New(t)
	ctx := context.Background()
	db.ResetQueries()

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM item`).Scan(&n))
	require.NoError(t, db.InTx(ctx, func(q store.DBTX) error {
		return q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n)
	}))

	assert.Equal(t, int64(2), db.Queries())
}

func TestWrap(t *testing.T) {
	assert.NoError(t, store.Wrap("op", nil))

	inner := errors.New("conn reset")
	err := store.Wrap("select", inner)
	var se *store.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "select", se.Op)
	assert.ErrorIs(t, err, inner)

	// already wrapped errors keep their original op
	again := store.Wrap("outer", err)
	require.ErrorAs(t, again, &se)
	assert.Equal(t, "select", se.Op)
}
