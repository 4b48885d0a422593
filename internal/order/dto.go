package order

import (
	"strings"
	"time"

	"github.com/mohyerolo/inflearn-jpa/internal/member"
)

// MaxResults bounds the dynamic search queries.
const MaxResults = 1000

// Search filters orders. Zero fields do not filter; set fields are AND-ed.
type Search struct {
	Status     Status
	MemberName string // case-insensitive substring
}

func (s Search) where() (string, []any) {
	var conds []string
	var args []any
	if s.Status != "" {
		conds = append(conds, "o.status = ?")
		args = append(args, string(s.Status))
	}
	if name := strings.TrimSpace(s.MemberName); name != "" {
		conds = append(conds, "LOWER(m.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(name)+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Page is only offered by reads without a to-many join, where one row is
// one order.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = 100
	}
	if p.Limit > MaxResults {
		p.Limit = MaxResults
	}
	return p
}

type SimpleOrderDto struct {
	OrderID     int64          `json:"orderId"`
	Name        string         `json:"name"`
	OrderDate   time.Time      `json:"orderDate"`
	OrderStatus Status         `json:"orderStatus"`
	Address     member.Address `json:"address"`
}

type OrderDto struct {
	SimpleOrderDto
	OrderItems []OrderItemDto `json:"orderItems"`
}

type OrderItemDto struct {
	OrderID    int64  `json:"-"`
	ItemName   string `json:"itemName"`
	OrderPrice int    `json:"orderPrice"`
	Count      int    `json:"count"`
}

// FlatDto is one (order, order item) row of the flat projection.
type FlatDto struct {
	OrderID     int64
	Name        string
	OrderDate   time.Time
	OrderStatus Status
	Address     member.Address
	ItemName    string
	OrderPrice  int
	Count       int
}

// NewSimpleOrderDto reads only the to-one side; Member must be loaded.
func NewSimpleOrderDto(o *Order) SimpleOrderDto {
	return SimpleOrderDto{
		OrderID:     o.ID,
		Name:        o.Member.Name,
		OrderDate:   o.OrderDate,
		OrderStatus: o.Status,
		Address:     o.Delivery.Address,
	}
}

// NewOrderDto needs Member and every OrderItem.Item loaded.
func NewOrderDto(o *Order) OrderDto {
	dto := OrderDto{
		SimpleOrderDto: NewSimpleOrderDto(o),
		OrderItems:     make([]OrderItemDto, 0, len(o.OrderItems)),
	}
	for _, oi := range o.OrderItems {
		dto.OrderItems = append(dto.OrderItems, OrderItemDto{
			OrderID:    o.ID,
			ItemName:   oi.Item.Name,
			OrderPrice: oi.OrderPrice,
			Count:      oi.Count,
		})
	}
	return dto
}

// CreateOrderItem is one requested line.
type CreateOrderItem struct {
	ItemID int64 `json:"item_id" binding:"required"`
	Count  int   `json:"count" binding:"required,min=1"`
}

// CreateOrderRequest places an order for a member.
type CreateOrderRequest struct {
	MemberID int64             `json:"member_id" binding:"required"`
	Items    []CreateOrderItem `json:"items" binding:"required,min=1,dive"`
}
