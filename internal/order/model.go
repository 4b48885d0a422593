package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/mohyerolo/inflearn-jpa/internal/item"
	"github.com/mohyerolo/inflearn-jpa/internal/member"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrIllegalState = errors.New("illegal order state")
	ErrNoLines      = errors.New("order needs at least one item")
)

type Status string

const (
	StatusOrdered  Status = "ORDERED"
	StatusCanceled Status = "CANCELED"
)

func (s Status) Valid() bool { return s == StatusOrdered || s == StatusCanceled }

type DeliveryStatus string

const (
	DeliveryReady     DeliveryStatus = "READY"
	DeliveryCompleted DeliveryStatus = "COMPLETED"
)

// Delivery is created and destroyed with its order.
type Delivery struct {
	ID      int64
	Address member.Address
	Status  DeliveryStatus
}

// OrderItem is owned by its order; Item is shared and only referenced.
type OrderItem struct {
	ID         int64
	ItemID     int64
	Item       *item.Item
	OrderPrice int // price at order time
	Count      int
}

func (oi OrderItem) TotalPrice() int { return oi.OrderPrice * oi.Count }

type Order struct {
	ID         int64
	MemberID   int64
	Member     *member.Member
	Delivery   Delivery
	OrderItems []OrderItem
	OrderDate  time.Time
	Status     Status
}

// Line asks for count units of it.
type Line struct {
	Item  *item.Item
	Count int
}

var now = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

// CreateOrder builds an ORDERED order, snapshotting each item's price and
// taking the ordered units out of stock. Every line is checked before any
// stock moves, so a failure leaves all items untouched.
func CreateOrder(m *member.Member, d Delivery, lines ...Line) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	wanted := make(map[*item.Item]int, len(lines))
	for _, l := range lines {
		if l.Count < 1 {
			return nil, fmt.Errorf("%w: %d", item.ErrInvalidCount, l.Count)
		}
		wanted[l.Item] += l.Count
	}
	for it, n := range wanted {
		if it.StockQuantity < n {
			return nil, fmt.Errorf("%w: item %d has %d, requested %d", item.ErrOutOfStock, it.ID, it.StockQuantity, n)
		}
	}

	if d.Status == "" {
		d.Status = DeliveryReady
	}
	o := &Order{
		MemberID:   m.ID,
		Member:     m,
		Delivery:   d,
		OrderItems: make([]OrderItem, 0, len(lines)),
		OrderDate:  now(),
		Status:     StatusOrdered,
	}
	for _, l := range lines {
		if err := l.Item.RemoveStock(l.Count); err != nil {
			return nil, err
		}
		o.OrderItems = append(o.OrderItems, OrderItem{
			ItemID:     l.Item.ID,
			Item:       l.Item,
			OrderPrice: l.Item.Price,
			Count:      l.Count,
		})
	}
	return o, nil
}

// Cancel puts every ordered unit back in stock.
func (o *Order) Cancel() error {
	if o.Delivery.Status == DeliveryCompleted {
		return fmt.Errorf("%w: order %d was already delivered", ErrIllegalState, o.ID)
	}
	if o.Status == StatusCanceled {
		return fmt.Errorf("%w: order %d is already canceled", ErrIllegalState, o.ID)
	}
	o.Status = StatusCanceled
	for _, oi := range o.OrderItems {
		oi.Item.AddStock(oi.Count)
	}
	return nil
}

func (o *Order) CompleteDelivery() error {
	if o.Status == StatusCanceled {
		return fmt.Errorf("%w: order %d is canceled", ErrIllegalState, o.ID)
	}
	o.Delivery.Status = DeliveryCompleted
	return nil
}

func (o *Order) TotalPrice() int {
	total := 0
	for _, oi := range o.OrderItems {
		total += oi.TotalPrice()
	}
	return total
}
