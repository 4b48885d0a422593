package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohyerolo/inflearn-jpa/internal/member"
)

func TestGroupFlat(t *testing.T) {
	day := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	addr := member.Address{City: "Seoul"}
	flat := func(id int64, itemName string) FlatDto {
		return FlatDto{OrderID: id, Name: "kim", OrderDate: day, OrderStatus: StatusOrdered,
			Address: addr, ItemName: itemName, OrderPrice: 100, Count: 1}
	}

	got := GroupFlat([]FlatDto{flat(1, "A"), flat(1, "B"), flat(2, "C")})
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].OrderID)
	require.Len(t, got[0].OrderItems, 2)
	assert.Equal(t, "A", got[0].OrderItems[0].ItemName)
	assert.Equal(t, "B", got[0].OrderItems[1].ItemName)

	assert.Equal(t, int64(2), got[1].OrderID)
	require.Len(t, got[1].OrderItems, 1)
	assert.Equal(t, "C", got[1].OrderItems[0].ItemName)
}

func TestGroupFlat_SameInstantOtherZone(t *testing.T) {
	day := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a := FlatDto{OrderID: 1, OrderDate: day, ItemName: "A"}
	b := FlatDto{OrderID: 1, OrderDate: day.In(time.FixedZone("KST", 9*3600)), ItemName: "B"}

	got := GroupFlat([]FlatDto{a, b})
	require.Len(t, got, 1)
	assert.Len(t, got[0].OrderItems, 2)
}

func TestGroupFlat_Empty(t *testing.T) {
	got := GroupFlat(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAttachItems(t *testing.T) {
	headers := []OrderDto{
		{SimpleOrderDto: SimpleOrderDto{OrderID: 1}},
		{SimpleOrderDto: SimpleOrderDto{OrderID: 2}},
	}
	byOrder := groupByOrderID([]OrderItemDto{
		{OrderID: 1, ItemName: "A"},
		{OrderID: 1, ItemName: "B"},
	})

	attachItems(headers, byOrder)
	assert.Len(t, headers[0].OrderItems, 2)
	assert.NotNil(t, headers[1].OrderItems)
	assert.Empty(t, headers[1].OrderItems)
}

func TestCollapseGraph(t *testing.T) {
	row := func(orderID, orderItemID int64) graphRow {
		return graphRow{order: Order{ID: orderID}, orderItem: OrderItem{ID: orderItemID}}
	}

	got := collapseGraph([]graphRow{row(2, 10), row(2, 11), row(1, 12), row(2, 11)})
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID, "first-seen order first")
	assert.Len(t, got[0].OrderItems, 2)
	assert.Equal(t, int64(1), got[1].ID)
	assert.Len(t, got[1].OrderItems, 1)
}
