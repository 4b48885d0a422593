package order

import (
	"context"

	"github.com/mohyerolo/inflearn-jpa/internal/store"
)

// QueryRepository reads order data straight into DTOs. Nothing it returns
// is an entity, so nothing it returns can be changed and saved back.
type QueryRepository struct{ db store.DBTX }

func NewQueryRepository(db store.DBTX) *QueryRepository { return &QueryRepository{db: db} }

const headerSelect = `
	SELECT o.id, m.name, o.order_date, o.status, d.city, d.street, d.zipcode
	FROM orders o
	JOIN member m ON m.id = o.member_id
	JOIN delivery d ON d.order_id = o.id`

func headerTargets(h *SimpleOrderDto) []any {
	return []any{&h.OrderID, &h.Name, &h.OrderDate, &h.OrderStatus,
		&h.Address.City, &h.Address.Street, &h.Address.Zipcode}
}

// FindOrderDtos projects only the to-one side: one query, one row per order.
func (r *QueryRepository) FindOrderDtos(ctx context.Context) ([]SimpleOrderDto, error) {
	rows, err := r.db.QueryContext(ctx, headerSelect+` ORDER BY o.id`)
	if err != nil {
		return nil, store.Wrap("select order headers", err)
	}
	defer rows.Close()

	var out []SimpleOrderDto
	for rows.Next() {
		var h SimpleOrderDto
		if err := rows.Scan(headerTargets(&h)...); err != nil {
			return nil, store.Wrap("scan order header", err)
		}
		out = append(out, h)
	}
	return out, store.Wrap("iterate order headers", rows.Err())
}

// findOrders is FindOrderDtos with a filter, wrapped as OrderDto headers.
func (r *QueryRepository) findOrders(ctx context.Context, s Search) ([]OrderDto, error) {
	where, args := s.where()
	args = append(args, MaxResults)
	rows, err := r.db.QueryContext(ctx, headerSelect+where+`
		ORDER BY o.id
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, store.Wrap("select order headers", err)
	}
	defer rows.Close()

	var out []OrderDto
	for rows.Next() {
		var o OrderDto
		if err := rows.Scan(headerTargets(&o.SimpleOrderDto)...); err != nil {
			return nil, store.Wrap("scan order header", err)
		}
		out = append(out, o)
	}
	return out, store.Wrap("iterate order headers", rows.Err())
}

const orderItemSelect = `
	SELECT oi.order_id, i.name, oi.order_price, oi.count
	FROM order_item oi
	JOIN item i ON i.id = oi.item_id`

func (r *QueryRepository) scanOrderItems(ctx context.Context, query string, args ...any) ([]OrderItemDto, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Wrap("select order items", err)
	}
	defer rows.Close()

	var out []OrderItemDto
	for rows.Next() {
		var it OrderItemDto
		if err := rows.Scan(&it.OrderID, &it.ItemName, &it.OrderPrice, &it.Count); err != nil {
			return nil, store.Wrap("scan order item", err)
		}
		out = append(out, it)
	}
	return out, store.Wrap("iterate order items", rows.Err())
}

func (r *QueryRepository) findOrderItems(ctx context.Context, orderID int64) ([]OrderItemDto, error) {
	return r.scanOrderItems(ctx, orderItemSelect+`
		WHERE oi.order_id = ?
		ORDER BY oi.id
	`, orderID)
}

// FindOrderQueryDtos queries the headers, then each order's items on its
// own: 1 + N queries.
func (r *QueryRepository) FindOrderQueryDtos(ctx context.Context) ([]OrderDto, error) {
	result, err := r.findOrders(ctx, Search{})
	if err != nil {
		return nil, err
	}
	for i := range result {
		items, err := r.findOrderItems(ctx, result[i].OrderID)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []OrderItemDto{}
		}
		result[i].OrderItems = items
	}
	return result, nil
}

// FindAllByDtoOptimization queries the filtered headers, then every line
// item of those orders with one IN query, and matches them up through a map.
// Two queries regardless of N; one when nothing matches.
func (r *QueryRepository) FindAllByDtoOptimization(ctx context.Context, s Search) ([]OrderDto, error) {
	result, err := r.findOrders(ctx, s)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	byOrder, err := r.findOrderItemMap(ctx, toOrderIDs(result))
	if err != nil {
		return nil, err
	}
	attachItems(result, byOrder)
	return result, nil
}

func (r *QueryRepository) findOrderItemMap(ctx context.Context, orderIDs []any) (map[int64][]OrderItemDto, error) {
	items, err := r.scanOrderItems(ctx, orderItemSelect+`
		WHERE oi.order_id IN (`+store.Placeholders(len(orderIDs))+`)
		ORDER BY oi.order_id, oi.id
	`, orderIDs...)
	if err != nil {
		return nil, err
	}
	return groupByOrderID(items), nil
}

func toOrderIDs(orders []OrderDto) []any {
	ids := make([]any, len(orders))
	for i, o := range orders {
		ids[i] = o.OrderID
	}
	return ids
}

// FindAllByDtoFlat returns one denormalized row per order item in a single
// query. GroupFlat turns the rows back into orders.
func (r *QueryRepository) FindAllByDtoFlat(ctx context.Context) ([]FlatDto, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, m.name, o.order_date, o.status, d.city, d.street, d.zipcode,
		       i.name, oi.order_price, oi.count
		FROM orders o
		JOIN member m ON m.id = o.member_id
		JOIN delivery d ON d.order_id = o.id
		JOIN order_item oi ON oi.order_id = o.id
		JOIN item i ON i.id = oi.item_id
		ORDER BY o.id, oi.id
	`)
	if err != nil {
		return nil, store.Wrap("select flat orders", err)
	}
	defer rows.Close()

	var out []FlatDto
	for rows.Next() {
		var f FlatDto
		if err := rows.Scan(&f.OrderID, &f.Name, &f.OrderDate, &f.OrderStatus,
			&f.Address.City, &f.Address.Street, &f.Address.Zipcode,
			&f.ItemName, &f.OrderPrice, &f.Count); err != nil {
			return nil, store.Wrap("scan flat order", err)
		}
		out = append(out, f)
	}
	return out, store.Wrap("iterate flat orders", rows.Err())
}
