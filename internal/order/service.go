package order

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mohyerolo/inflearn-jpa/internal/item"
	"github.com/mohyerolo/inflearn-jpa/internal/member"
	"github.com/mohyerolo/inflearn-jpa/internal/store"
)

// LineRequest names an item by id and how many units of it to order.
type LineRequest struct {
	ItemID int64
	Count  int
}

// Service runs the order use cases. Each call is one transaction: either
// the order, its delivery, its lines and every stock change are stored
// together, or none of them is.
type Service struct {
	db  *store.DB
	log zerolog.Logger
}

func NewService(db *store.DB, log zerolog.Logger) *Service {
	return &Service{db: db, log: log}
}

// Order places a single-line order and returns its id.
func (s *Service) Order(ctx context.Context, memberID, itemID int64, count int) (int64, error) {
	return s.PlaceOrder(ctx, memberID, []LineRequest{{ItemID: itemID, Count: count}})
}

// PlaceOrder orders every line for the member, shipping to the member's
// address. Lines naming the same item share one loaded item, so their
// counts are checked against its stock together.
func (s *Service) PlaceOrder(ctx context.Context, memberID int64, reqs []LineRequest) (int64, error) {
	if len(reqs) == 0 {
		return 0, ErrNoLines
	}
	var id int64
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		m, err := member.NewSQLRepo(q).FindOne(ctx, memberID)
		if err != nil {
			return err
		}

		items := item.NewSQLRepo(q)
		loaded := make(map[int64]*item.Item, len(reqs))
		lines := make([]Line, 0, len(reqs))
		for _, r := range reqs {
			it, ok := loaded[r.ItemID]
			if !ok {
				if it, err = items.FindOne(ctx, r.ItemID); err != nil {
					return err
				}
				loaded[r.ItemID] = it
			}
			lines = append(lines, Line{Item: it, Count: r.Count})
		}

		o, err := CreateOrder(m, Delivery{Address: m.Address}, lines...)
		if err != nil {
			return err
		}
		if err := NewSQLRepo(q).Save(ctx, o); err != nil {
			return err
		}
		if err := writeStock(ctx, items, loaded); err != nil {
			return err
		}
		id = o.ID
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Int64("member_id", memberID).Int("lines", len(reqs)).Msg("[order] place failed")
		return 0, err
	}
	s.log.Info().Int64("order_id", id).Int64("member_id", memberID).Int("lines", len(reqs)).Msg("[order] placed")
	return id, nil
}

func writeStock(ctx context.Context, repo *item.SQLRepo, items map[int64]*item.Item) error {
	for id, it := range items {
		if err := repo.UpdateStock(ctx, id, it.StockQuantity); err != nil {
			return err
		}
	}
	return nil
}

// CancelOrder cancels the order and returns its units to stock.
func (s *Service) CancelOrder(ctx context.Context, orderID int64) error {
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		repo := NewSQLRepo(q)
		o, err := repo.FindOne(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.Cancel(); err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, o.ID, o.Status); err != nil {
			return err
		}
		touched := make(map[int64]*item.Item, len(o.OrderItems))
		for _, oi := range o.OrderItems {
			touched[oi.ItemID] = oi.Item
		}
		return writeStock(ctx, item.NewSQLRepo(q), touched)
	})
	if err != nil {
		s.log.Warn().Err(err).Int64("order_id", orderID).Msg("[order] cancel failed")
		return err
	}
	s.log.Info().Int64("order_id", orderID).Msg("[order] canceled")
	return nil
}

// CompleteDelivery marks the order's delivery as delivered. After that the
// order can no longer be canceled.
func (s *Service) CompleteDelivery(ctx context.Context, orderID int64) error {
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		repo := NewSQLRepo(q)
		o, err := repo.FindOne(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.CompleteDelivery(); err != nil {
			return err
		}
		return repo.UpdateDeliveryStatus(ctx, o.ID, o.Delivery.Status)
	})
	if err != nil {
		s.log.Warn().Err(err).Int64("order_id", orderID).Msg("[order] complete delivery failed")
		return err
	}
	s.log.Info().Int64("order_id", orderID).Msg("[order] delivered")
	return nil
}

// FindOrders searches orders, resolving every association one order at a
// time.
func (s *Service) FindOrders(ctx context.Context, search Search) ([]Order, error) {
	var out []Order
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		var err error
		out, err = NewSQLRepo(q).FindAllByString(ctx, search, FetchAll)
		return err
	})
	return out, err
}

func (s *Service) FindOne(ctx context.Context, id int64) (*Order, error) {
	var out *Order
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		var err error
		out, err = NewSQLRepo(q).FindOne(ctx, id)
		return err
	})
	return out, err
}
