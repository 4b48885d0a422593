// Package storetest opens throwaway in-memory stores for tests.
package storetest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mohyerolo/inflearn-jpa/internal/store"
)

// New returns an empty sqlite store with the schema applied. It is closed
// when the test ends.
func New(t testing.TB) *store.DB {
	t.Helper()
	db, err := store.Open(context.Background(), store.Options{
		Driver: "sqlite",
		DSN:    ":memory:",
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
