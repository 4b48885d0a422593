package item

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohyerolo/inflearn-jpa/internal/store/storetest"
)

func TestRemoveStock(t *testing.T) {
	it := &Item{ID: 1, Name: "JPA", StockQuantity: 3}

	require.NoError(t, it.RemoveStock(2))
	assert.Equal(t, 1, it.StockQuantity)

	err := it.RemoveStock(2)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, 1, it.StockQuantity, "failed removal must not change stock")

	assert.ErrorIs(t, it.RemoveStock(0), ErrInvalidCount)
	require.NoError(t, it.RemoveStock(1))
	assert.Zero(t, it.StockQuantity)
}

func TestAddStock(t *testing.T) {
	it := &Item{StockQuantity: 1}
	it.AddStock(4)
	assert.Equal(t, 5, it.StockQuantity)
}

func TestVariants_RoundTrip(t *testing.T) {
	repo := NewSQLRepo(storetest.New(t))
	ctx := context.Background()

	items := []*Item{
		{Name: "JPA BOOK", Price: 10000, StockQuantity: 10, Variant: Book{Author: "kim", ISBN: "1234"}},
		{Name: "ALBUM", Price: 20000, StockQuantity: 5, Variant: Album{Artist: "iu", Etc: "live"}},
		{Name: "MOVIE", Price: 30000, StockQuantity: 1, Variant: Movie{Director: "bong", Actor: "song"}},
	}
	for _, it := range items {
		require.NoError(t, repo.Save(ctx, it))
		require.Positive(t, it.ID)
	}

	for _, want := range items {
		got, err := repo.FindOne(ctx, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestService_UpdateItem(t *testing.T) {
	svc := NewService(storetest.New(t))
	ctx := context.Background()

	id, err := svc.SaveItem(ctx, &Item{Name: "JPA", Price: 100, StockQuantity: 1, Variant: Book{Author: "kim"}})
	require.NoError(t, err)

	updated, err := svc.UpdateItem(ctx, id, "JPA 2nd", 200, 7)
	require.NoError(t, err)
	assert.Equal(t, Book{Author: "kim"}, updated.Variant, "variant fields survive the update")

	got, err := svc.FindOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "JPA 2nd", got.Name)
	assert.Equal(t, 200, got.Price)
	assert.Equal(t, 7, got.StockQuantity)

	_, err = svc.UpdateItem(ctx, 999, "x", 1, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.UpdateItem(ctx, id, "x", 1, -1)
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestService_FindItems(t *testing.T) {
	svc := NewService(storetest.New(t))
	ctx := context.Background()

	for _, name := range []string{"JPA1 BOOK", "JPA2 BOOK", "SPRING1 BOOK"} {
		_, err := svc.SaveItem(ctx, &Item{Name: name, Price: 1, StockQuantity: 1})
		require.NoError(t, err)
	}

	all, err := svc.FindItems(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	jpa, err := svc.FindItems(ctx, Query{Q: "jpa"})
	require.NoError(t, err)
	require.Len(t, jpa, 2)
	assert.Equal(t, "JPA1 BOOK", jpa[0].Name)

	page, err := svc.FindItems(ctx, Query{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "SPRING1 BOOK", page[0].Name)
}

func TestUpdateStock_NotFound(t *testing.T) {
	repo := NewSQLRepo(storetest.New(t))

	err := repo.UpdateStock(context.Background(), 7, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
