package order

import (
	"github.com/mohyerolo/inflearn-jpa/internal/member"
)

// headerKey identifies an order header in flat rows. Dates are compared as
// instants so equal times read with different locations group together.
type headerKey struct {
	orderID   int64
	name      string
	orderDate int64
	status    Status
	address   member.Address
}

// GroupFlat regroups flat (order, item) rows into one OrderDto per distinct
// header, in order of first appearance, keeping the rows' item order within
// each group. It is pure: no state survives the call.
func GroupFlat(flats []FlatDto) []OrderDto {
	index := make(map[headerKey]int)
	out := make([]OrderDto, 0)
	for _, f := range flats {
		k := headerKey{
			orderID:   f.OrderID,
			name:      f.Name,
			orderDate: f.OrderDate.UnixNano(),
			status:    f.OrderStatus,
			address:   f.Address,
		}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, OrderDto{
				SimpleOrderDto: SimpleOrderDto{
					OrderID:     f.OrderID,
					Name:        f.Name,
					OrderDate:   f.OrderDate,
					OrderStatus: f.OrderStatus,
					Address:     f.Address,
				},
			})
		}
		out[i].OrderItems = append(out[i].OrderItems, OrderItemDto{
			OrderID:    f.OrderID,
			ItemName:   f.ItemName,
			OrderPrice: f.OrderPrice,
			Count:      f.Count,
		})
	}
	return out
}

// groupByOrderID buckets line items by their order, preserving row order.
func groupByOrderID(items []OrderItemDto) map[int64][]OrderItemDto {
	m := make(map[int64][]OrderItemDto)
	for _, it := range items {
		m[it.OrderID] = append(m[it.OrderID], it)
	}
	return m
}

// attachItems fills each header's OrderItems from byOrder. Orders without
// rows get an empty, non-nil slice.
func attachItems(headers []OrderDto, byOrder map[int64][]OrderItemDto) {
	for i := range headers {
		items := byOrder[headers[i].OrderID]
		if items == nil {
			items = []OrderItemDto{}
		}
		headers[i].OrderItems = items
	}
}

// graphRow is one row of the to-many fetch join: the order with its to-one
// side plus a single order item.
type graphRow struct {
	order     Order
	orderItem OrderItem
}

// collapseGraph removes the fan-out of a to-many join: one Order per id in
// first-seen order, each keeping its distinct order item rows in row order.
func collapseGraph(rows []graphRow) []Order {
	index := make(map[int64]int)
	seen := make(map[int64]struct{})
	var out []Order
	for _, r := range rows {
		i, ok := index[r.order.ID]
		if !ok {
			i = len(out)
			index[r.order.ID] = i
			o := r.order
			o.OrderItems = nil
			out = append(out, o)
		}
		if _, dup := seen[r.orderItem.ID]; dup {
			continue
		}
		seen[r.orderItem.ID] = struct{}{}
		out[i].OrderItems = append(out[i].OrderItems, r.orderItem)
	}
	return out
}
