package order

import (
	"context"

	"github.com/mohyerolo/inflearn-jpa/internal/store"
)

// QueryService exposes each read strategy by the API version that serves
// it. Every read runs in its own transaction and returns DTOs only.
type QueryService struct {
	db *store.DB
}

func NewQueryService(db *store.DB) *QueryService {
	return &QueryService{db: db}
}

// SimpleOrdersLazy: naive read with the to-one side loaded per order.
func (s *QueryService) SimpleOrdersLazy(ctx context.Context) ([]SimpleOrderDto, error) {
	var out []SimpleOrderDto
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		orders, err := NewSQLRepo(q).FindAllByString(ctx, Search{}, FetchToOne)
		if err != nil {
			return err
		}
		out = make([]SimpleOrderDto, 0, len(orders))
		for i := range orders {
			out = append(out, NewSimpleOrderDto(&orders[i]))
		}
		return nil
	})
	return out, err
}

// SimpleOrdersJoined: one to-one join query, paged.
func (s *QueryService) SimpleOrdersJoined(ctx context.Context, p Page) ([]SimpleOrderDto, error) {
	var out []SimpleOrderDto
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		orders, err := NewSQLRepo(q).FindAllWithMemberDelivery(ctx, Search{}, p)
		if err != nil {
			return err
		}
		out = make([]SimpleOrderDto, 0, len(orders))
		for i := range orders {
			out = append(out, NewSimpleOrderDto(&orders[i]))
		}
		return nil
	})
	return out, err
}

// SimpleOrdersProjected: the to-one join projected straight into DTOs.
func (s *QueryService) SimpleOrdersProjected(ctx context.Context) ([]SimpleOrderDto, error) {
	var out []SimpleOrderDto
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		var err error
		out, err = NewQueryRepository(q).FindOrderDtos(ctx)
		return err
	})
	return out, err
}

// OrdersLazy: naive read of the whole graph, one query per association.
func (s *QueryService) OrdersLazy(ctx context.Context, search Search) ([]OrderDto, error) {
	var out []OrderDto
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		orders, err := NewSQLRepo(q).FindAllByString(ctx, search, FetchAll)
		if err != nil {
			return err
		}
		out = toOrderDtos(orders)
		return nil
	})
	return out, err
}

// OrdersFetchJoin: the whole graph in one fan-out query, collapsed.
func (s *QueryService) OrdersFetchJoin(ctx context.Context) ([]OrderDto, error) {
	var out []OrderDto
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		orders, err := NewSQLRepo(q).FindAllWithItem(ctx)
		if err != nil {
			return err
		}
		out = toOrderDtos(orders)
		return nil
	})
	return out, err
}

// OrdersPaged: a page of the to-one join, then that page's order items in
// one IN query.
func (s *QueryService) OrdersPaged(ctx context.Context, p Page) ([]OrderDto, error) {
	var out []OrderDto
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		repo := NewSQLRepo(q)
		orders, err := repo.FindAllWithMemberDelivery(ctx, Search{}, p)
		if err != nil {
			return err
		}
		if err := repo.LoadOrderItems(ctx, orders); err != nil {
			return err
		}
		out = toOrderDtos(orders)
		return nil
	})
	return out, err
}

// OrdersProjectedPerOrder: DTO headers, then one item query per order.
func (s *QueryService) OrdersProjectedPerOrder(ctx context.Context) ([]OrderDto, error) {
	var out []OrderDto
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		var err error
		out, err = NewQueryRepository(q).FindOrderQueryDtos(ctx)
		return err
	})
	return out, err
}

// OrdersProjected: DTO headers plus one IN query for all their items.
func (s *QueryService) OrdersProjected(ctx context.Context, search Search) ([]OrderDto, error) {
	var out []OrderDto
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		var err error
		out, err = NewQueryRepository(q).FindAllByDtoOptimization(ctx, search)
		return err
	})
	return out, err
}

// OrdersFlat: one denormalized query regrouped in memory.
func (s *QueryService) OrdersFlat(ctx context.Context) ([]OrderDto, error) {
	var out []OrderDto
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		flats, err := NewQueryRepository(q).FindAllByDtoFlat(ctx)
		if err != nil {
			return err
		}
		out = GroupFlat(flats)
		return nil
	})
	return out, err
}

func toOrderDtos(orders []Order) []OrderDto {
	out := make([]OrderDto, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderDto(&orders[i]))
	}
	return out
}
