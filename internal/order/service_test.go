package order

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohyerolo/inflearn-jpa/internal/item"
	"github.com/mohyerolo/inflearn-jpa/internal/member"
	"github.com/mohyerolo/inflearn-jpa/internal/store"
	"github.com/mohyerolo/inflearn-jpa/internal/store/storetest"
)

type fixture struct {
	db      *store.DB
	orders  *Service
	query   *QueryService
	members []int64
	items   []int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storetest.New(t)
	return &fixture{db: db, orders: NewService(db, zerolog.Nop()), query: NewQueryService(db)}
}

func (f *fixture) member(t *testing.T, name, city string) int64 {
	t.Helper()
	id, err := member.NewService(f.db).Join(context.Background(), &member.Member{
		Name:    name,
		Address: member.Address{City: city, Street: "street " + name, Zipcode: "0000"},
	})
	require.NoError(t, err)
	f.members = append(f.members, id)
	return id
}

func (f *fixture) item(t *testing.T, name string, price, stock int) int64 {
	t.Helper()
	id, err := item.NewService(f.db).SaveItem(context.Background(), &item.Item{
		Name: name, Price: price, StockQuantity: stock, Variant: item.Book{Author: "kim"},
	})
	require.NoError(t, err)
	f.items = append(f.items, id)
	return id
}

func (f *fixture) stock(t *testing.T, id int64) int {
	t.Helper()
	it, err := item.NewService(f.db).FindOne(context.Background(), id)
	require.NoError(t, err)
	return it.StockQuantity
}

// seed places n orders alternating over two members, each with perOrder
// lines spread over perOrder+2 items.
func (f *fixture) seed(t *testing.T, n, perOrder int) {
	t.Helper()
	a := f.member(t, "userA", "Seoul")
	b := f.member(t, "userB", "Busan")
	for i := 0; i < perOrder+2; i++ {
		f.item(t, fmt.Sprintf("BOOK-%d", i), 1000*(i+1), 1000)
	}
	for k := 0; k < n; k++ {
		m := a
		if k%2 == 1 {
			m = b
		}
		lines := make([]LineRequest, perOrder)
		for j := range lines {
			lines[j] = LineRequest{ItemID: f.items[(k+j)%len(f.items)], Count: j + 1}
		}
		_, err := f.orders.PlaceOrder(context.Background(), m, lines)
		require.NoError(t, err)
	}
}

func TestService_Order(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "kim", "Seoul")
	book := f.item(t, "JPA BOOK", 10000, 10)

	id, err := f.orders.Order(ctx, m, book, 2)
	require.NoError(t, err)

	got, err := f.orders.FindOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusOrdered, got.Status)
	assert.Equal(t, DeliveryReady, got.Delivery.Status)
	assert.Equal(t, "Seoul", got.Delivery.Address.City, "delivery ships to the member's address")
	assert.Equal(t, "kim", got.Member.Name)
	require.Len(t, got.OrderItems, 1)
	assert.Equal(t, 10000, got.OrderItems[0].OrderPrice)
	assert.Equal(t, 20000, got.TotalPrice())
	assert.Equal(t, 8, f.stock(t, book))
}

func TestService_PlaceOrder_SameItemTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "kim", "Seoul")
	book := f.item(t, "JPA BOOK", 100, 5)

	_, err := f.orders.PlaceOrder(ctx, m, []LineRequest{{ItemID: book, Count: 3}, {ItemID: book, Count: 3}})
	assert.ErrorIs(t, err, item.ErrOutOfStock)
	assert.Equal(t, 5, f.stock(t, book))

	_, err = f.orders.PlaceOrder(ctx, m, []LineRequest{{ItemID: book, Count: 2}, {ItemID: book, Count: 3}})
	require.NoError(t, err)
	assert.Zero(t, f.stock(t, book))
}

func TestService_Order_OutOfStockRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "kim", "Seoul")
	a := f.item(t, "A", 100, 5)
	b := f.item(t, "B", 100, 1)

	_, err := f.orders.PlaceOrder(ctx, m, []LineRequest{{ItemID: a, Count: 2}, {ItemID: b, Count: 2}})
	assert.ErrorIs(t, err, item.ErrOutOfStock)

	assert.Equal(t, 5, f.stock(t, a))
	assert.Equal(t, 1, f.stock(t, b))
	all, err := f.orders.FindOrders(ctx, Search{})
	require.NoError(t, err)
	assert.Empty(t, all, "no order is stored when a line fails")
}

func TestService_Order_Missing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "kim", "Seoul")
	book := f.item(t, "A", 100, 5)

	_, err := f.orders.Order(ctx, 999, book, 1)
	assert.ErrorIs(t, err, member.ErrNotFound)
	_, err = f.orders.Order(ctx, m, 999, 1)
	assert.ErrorIs(t, err, item.ErrNotFound)
	_, err = f.orders.PlaceOrder(ctx, m, nil)
	assert.ErrorIs(t, err, ErrNoLines)
}

func TestService_CancelOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "kim", "Seoul")
	book := f.item(t, "JPA BOOK", 10000, 10)

	id, err := f.orders.Order(ctx, m, book, 2)
	require.NoError(t, err)
	require.NoError(t, f.orders.CancelOrder(ctx, id))

	got, err := f.orders.FindOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, got.Status)
	assert.Equal(t, 10, f.stock(t, book))

	assert.ErrorIs(t, f.orders.CancelOrder(ctx, id), ErrIllegalState)
	assert.Equal(t, 10, f.stock(t, book))
	assert.ErrorIs(t, f.orders.CancelOrder(ctx, 999), ErrNotFound)
}

func TestService_CancelAfterDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "kim", "Seoul")
	book := f.item(t, "JPA BOOK", 10000, 10)

	id, err := f.orders.Order(ctx, m, book, 2)
	require.NoError(t, err)
	require.NoError(t, f.orders.CompleteDelivery(ctx, id))

	assert.ErrorIs(t, f.orders.CancelOrder(ctx, id), ErrIllegalState)

	got, err := f.orders.FindOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusOrdered, got.Status)
	assert.Equal(t, DeliveryCompleted, got.Delivery.Status)
	assert.Equal(t, 8, f.stock(t, book))
}

func TestService_FindOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, 4, 2)
	require.NoError(t, f.orders.CancelOrder(ctx, 1))

	all, err := f.orders.FindOrders(ctx, Search{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, o := range all {
		assert.Equal(t, int64(i+1), o.ID)
		require.NotNil(t, o.Member)
	}

	canceled, err := f.orders.FindOrders(ctx, Search{Status: StatusCanceled})
	require.NoError(t, err)
	require.Len(t, canceled, 1)
	assert.Equal(t, int64(1), canceled[0].ID)

	byName, err := f.orders.FindOrders(ctx, Search{MemberName: "USERb"})
	require.NoError(t, err)
	require.Len(t, byName, 2)
	for _, o := range byName {
		assert.Equal(t, "userB", o.Member.Name)
	}

	both, err := f.orders.FindOrders(ctx, Search{Status: StatusOrdered, MemberName: "userA"})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, int64(3), both[0].ID)
}

func TestService_FailuresLoggedUnwrapped(t *testing.T) {
	var buf bytes.Buffer
	f := newFixture(t)
	f.orders = NewService(f.db, zerolog.New(&buf))
	ctx := context.Background()
	m := f.member(t, "kim", "Seoul")
	book := f.item(t, "JPA BOOK", 100, 5)

	id, err := f.orders.Order(ctx, m, book, 1)
	require.NoError(t, err)
	require.NoError(t, f.orders.CancelOrder(ctx, id))

	err = f.orders.CompleteDelivery(ctx, id)
	assert.ErrorIs(t, err, ErrIllegalState)
	assert.NotContains(t, err.Error(), "complete delivery:")
	assert.Contains(t, buf.String(), "[order] complete delivery failed")

	assert.ErrorIs(t, f.orders.CancelOrder(ctx, id), ErrIllegalState)
	assert.Contains(t, buf.String(), "[order] cancel failed")
}
