package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mohyerolo/inflearn-jpa/internal/item"
	"github.com/mohyerolo/inflearn-jpa/internal/member"
	"github.com/mohyerolo/inflearn-jpa/internal/store"
)

// Fetch selects which associations the per-order read resolves.
type Fetch uint8

const (
	FetchMember Fetch = 1 << iota
	FetchDelivery
	FetchItems

	FetchToOne = FetchMember | FetchDelivery
	FetchAll   = FetchToOne | FetchItems
)

type Repository interface {
	Save(ctx context.Context, o *Order) error
	FindOne(ctx context.Context, id int64) (*Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	UpdateDeliveryStatus(ctx context.Context, orderID int64, status DeliveryStatus) error
	FindAllByString(ctx context.Context, s Search, fetch Fetch) ([]Order, error)
	FindAllWithMemberDelivery(ctx context.Context, s Search, p Page) ([]Order, error)
	FindAllWithItem(ctx context.Context) ([]Order, error)
	LoadOrderItems(ctx context.Context, orders []Order) error
}

type SQLRepo struct{ db store.DBTX }

func NewSQLRepo(db store.DBTX) *SQLRepo { return &SQLRepo{db: db} }

// Save inserts the order together with the delivery and order items it owns.
// Item stock is not written here; items belong to their own repository.
func (r *SQLRepo) Save(ctx context.Context, o *Order) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (member_id, order_date, status)
		VALUES (?, ?, ?)
		RETURNING id
	`, o.MemberID, o.OrderDate, string(o.Status)).Scan(&o.ID)
	if err != nil {
		return store.Wrap("insert order", err)
	}

	d := &o.Delivery
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO delivery (order_id, city, street, zipcode, status)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, o.ID, d.Address.City, d.Address.Street, d.Address.Zipcode, string(d.Status)).Scan(&d.ID)
	if err != nil {
		return store.Wrap("insert delivery", err)
	}

	for i := range o.OrderItems {
		oi := &o.OrderItems[i]
		err := r.db.QueryRowContext(ctx, `
			INSERT INTO order_item (order_id, item_id, order_price, count)
			VALUES (?, ?, ?, ?)
			RETURNING id
		`, o.ID, oi.ItemID, oi.OrderPrice, oi.Count).Scan(&oi.ID)
		if err != nil {
			return store.Wrap("insert order item", err)
		}
	}
	return nil
}

var toOneCols = `o.id, o.member_id, o.order_date, o.status, ` + memberCols + `,
	d.id, d.city, d.street, d.zipcode, d.status`

const toOneFrom = `
	FROM orders o
	JOIN member m ON m.id = o.member_id
	JOIN delivery d ON d.order_id = o.id`

var toOneSelect = `SELECT ` + toOneCols + toOneFrom

var memberCols = member.Columns("m")

func toOneTargets(o *Order) []any {
	o.Member = &member.Member{}
	dest := []any{&o.ID, &o.MemberID, &o.OrderDate, &o.Status}
	dest = append(dest, member.ScanTargets(o.Member)...)
	return append(dest, &o.Delivery.ID, &o.Delivery.Address.City, &o.Delivery.Address.Street,
		&o.Delivery.Address.Zipcode, &o.Delivery.Status)
}

// FindOne loads the full aggregate: to-one side in one query, order items
// with their items in a second.
func (r *SQLRepo) FindOne(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx, toOneSelect+` WHERE o.id = ?`, id).Scan(toOneTargets(&o)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	if err != nil {
		return nil, store.Wrap("select order", err)
	}
	orders := []Order{o}
	if err := r.LoadOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *SQLRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), id)
	return checkAffected("update order status", res, err, id)
}

func (r *SQLRepo) UpdateDeliveryStatus(ctx context.Context, orderID int64, status DeliveryStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE delivery SET status = ? WHERE order_id = ?`, string(status), orderID)
	return checkAffected("update delivery status", res, err, orderID)
}

func checkAffected(op string, res sql.Result, err error, id int64) error {
	if err != nil {
		return store.Wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Wrap(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	return nil
}

// FindAllByString is the naive read. One dynamic query returns the matching
// order rows (at most MaxResults); then every association named in fetch is
// resolved with its own query per order: member, delivery, order items, and
// each distinct item once. With FetchAll that is 1 + N + N + N + M queries
// for N orders over M distinct items (fewer when members repeat).
func (r *SQLRepo) FindAllByString(ctx context.Context, s Search, fetch Fetch) ([]Order, error) {
	where, args := s.where()
	args = append(args, MaxResults)
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.member_id, o.order_date, o.status
		FROM orders o
		JOIN member m ON m.id = o.member_id`+where+`
		ORDER BY o.id
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, store.Wrap("select orders", err)
	}
	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.MemberID, &o.OrderDate, &o.Status); err != nil {
			rows.Close()
			return nil, store.Wrap("scan order", err)
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("iterate orders", err)
	}

	l := newLoader(r.db)
	for i := range orders {
		o := &orders[i]
		if fetch&FetchMember != 0 {
			if o.Member, err = l.member(ctx, o.MemberID); err != nil {
				return nil, err
			}
		}
		if fetch&FetchDelivery != 0 {
			if o.Delivery, err = l.delivery(ctx, o.ID); err != nil {
				return nil, err
			}
		}
		if fetch&FetchItems != 0 {
			if o.OrderItems, err = l.orderItems(ctx, o.ID); err != nil {
				return nil, err
			}
		}
	}
	return orders, nil
}

// FindAllWithMemberDelivery joins the to-one associations into the order
// query. One row per order, so offset/limit page orders correctly. Order
// items are left unloaded; see LoadOrderItems.
func (r *SQLRepo) FindAllWithMemberDelivery(ctx context.Context, s Search, p Page) ([]Order, error) {
	p = p.normalize()
	where, args := s.where()
	args = append(args, p.Limit, p.Offset)
	rows, err := r.db.QueryContext(ctx, toOneSelect+where+`
		ORDER BY o.id
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, store.Wrap("select orders", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(toOneTargets(&o)...); err != nil {
			return nil, store.Wrap("scan order", err)
		}
		out = append(out, o)
	}
	return out, store.Wrap("iterate orders", rows.Err())
}

// FindAllWithItem fetches the whole graph in one query. The join fans out to
// one row per order item, so rows are collapsed back into orders in memory.
// No offset/limit here: a row limit would cut orders apart.
func (r *SQLRepo) FindAllWithItem(ctx context.Context) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+toOneCols+`,
		oi.id, oi.order_price, oi.count, `+item.Columns("i")+toOneFrom+`
		JOIN order_item oi ON oi.order_id = o.id
		JOIN item i ON i.id = oi.item_id
		ORDER BY o.id, oi.id
	`)
	if err != nil {
		return nil, store.Wrap("select order graph", err)
	}
	defer rows.Close()

	members := make(map[int64]*member.Member)
	items := make(map[int64]*item.Item)
	var graph []graphRow
	for rows.Next() {
		var g graphRow
		var ir item.Row
		dest := toOneTargets(&g.order)
		dest = append(dest, &g.orderItem.ID, &g.orderItem.OrderPrice, &g.orderItem.Count)
		dest = append(dest, ir.Targets()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, store.Wrap("scan order graph", err)
		}
		if m, ok := members[g.order.Member.ID]; ok {
			g.order.Member = m
		} else {
			members[g.order.Member.ID] = g.order.Member
		}
		it, ok := items[ir.ID]
		if !ok {
			it = ir.Item()
			items[ir.ID] = it
		}
		g.orderItem.ItemID = ir.ID
		g.orderItem.Item = it
		graph = append(graph, g)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("iterate order graph", err)
	}
	return collapseGraph(graph), nil
}

// LoadOrderItems fills OrderItems (with their items) for every order using a
// single IN query. It is the collection half of a paged read.
func (r *SQLRepo) LoadOrderItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]any, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.id, oi.order_price, oi.count, `+item.Columns("i")+`
		FROM order_item oi
		JOIN item i ON i.id = oi.item_id
		WHERE oi.order_id IN (`+store.Placeholders(len(ids))+`)
		ORDER BY oi.order_id, oi.id
	`, ids...)
	if err != nil {
		return store.Wrap("select order items", err)
	}
	defer rows.Close()

	items := make(map[int64]*item.Item)
	byOrder := make(map[int64][]OrderItem)
	for rows.Next() {
		var orderID int64
		var oi OrderItem
		var ir item.Row
		dest := append([]any{&orderID, &oi.ID, &oi.OrderPrice, &oi.Count}, ir.Targets()...)
		if err := rows.Scan(dest...); err != nil {
			return store.Wrap("scan order item", err)
		}
		it, ok := items[ir.ID]
		if !ok {
			it = ir.Item()
			items[ir.ID] = it
		}
		oi.ItemID = ir.ID
		oi.Item = it
		byOrder[orderID] = append(byOrder[orderID], oi)
	}
	if err := rows.Err(); err != nil {
		return store.Wrap("iterate order items", err)
	}
	for i := range orders {
		orders[i].OrderItems = byOrder[orders[i].ID]
	}
	return nil
}

// loader resolves associations one query at a time, remembering members and
// items it has already read during the call.
type loader struct {
	db      store.DBTX
	members map[int64]*member.Member
	items   map[int64]*item.Item
}

func newLoader(db store.DBTX) *loader {
	return &loader{
		db:      db,
		members: make(map[int64]*member.Member),
		items:   make(map[int64]*item.Item),
	}
}

func (l *loader) member(ctx context.Context, id int64) (*member.Member, error) {
	if m, ok := l.members[id]; ok {
		return m, nil
	}
	m, err := member.NewSQLRepo(l.db).FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	l.members[id] = m
	return m, nil
}

func (l *loader) item(ctx context.Context, id int64) (*item.Item, error) {
	if it, ok := l.items[id]; ok {
		return it, nil
	}
	it, err := item.NewSQLRepo(l.db).FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	l.items[id] = it
	return it, nil
}

func (l *loader) delivery(ctx context.Context, orderID int64) (Delivery, error) {
	var d Delivery
	err := l.db.QueryRowContext(ctx, `
		SELECT id, city, street, zipcode, status
		FROM delivery WHERE order_id = ?
	`, orderID).Scan(&d.ID, &d.Address.City, &d.Address.Street, &d.Address.Zipcode, &d.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("%w: delivery for order %d", ErrNotFound, orderID)
	}
	return d, store.Wrap("select delivery", err)
}

func (l *loader) orderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, item_id, order_price, count
		FROM order_item WHERE order_id = ?
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, store.Wrap("select order items", err)
	}
	var out []OrderItem
	for rows.Next() {
		var oi OrderItem
		if err := rows.Scan(&oi.ID, &oi.ItemID, &oi.OrderPrice, &oi.Count); err != nil {
			rows.Close()
			return nil, store.Wrap("scan order item", err)
		}
		out = append(out, oi)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("iterate order items", err)
	}

	// rows are closed before the item lookups: one statement at a time
	for i := range out {
		if out[i].Item, err = l.item(ctx, out[i].ItemID); err != nil {
			return nil, err
		}
	}
	return out, nil
}
