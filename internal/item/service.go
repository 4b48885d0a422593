package item

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohyerolo/inflearn-jpa/internal/store"
)

var ErrInvalidItem = errors.New("invalid item")

type Service struct {
	db *store.DB
}

func NewService(db *store.DB) *Service {
	return &Service{db: db}
}

func validate(name string, price, stock int) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	case price < 0:
		return fmt.Errorf("%w: price must be non-negative", ErrInvalidItem)
	case stock < 0:
		return fmt.Errorf("%w: stock must be non-negative", ErrInvalidItem)
	}
	return nil
}

func (s *Service) SaveItem(ctx context.Context, it *Item) (int64, error) {
	if err := validate(it.Name, it.Price, it.StockQuantity); err != nil {
		return 0, err
	}
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		return NewSQLRepo(q).Save(ctx, it)
	})
	if err != nil {
		return 0, err
	}
	return it.ID, nil
}

// UpdateItem loads the item, changes the given fields and writes it back,
// leaving the variant-specific fields as they were.
func (s *Service) UpdateItem(ctx context.Context, id int64, name string, price, stock int) (*Item, error) {
	if err := validate(name, price, stock); err != nil {
		return nil, err
	}
	var out *Item
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		repo := NewSQLRepo(q)
		it, err := repo.FindOne(ctx, id)
		if err != nil {
			return err
		}
		it.Name = name
		it.Price = price
		it.StockQuantity = stock
		if err := repo.Save(ctx, it); err != nil {
			return err
		}
		out = it
		return nil
	})
	return out, err
}

func (s *Service) FindItems(ctx context.Context, q Query) ([]Item, error) {
	var out []Item
	err := s.db.InTx(ctx, func(tx store.DBTX) error {
		var err error
		out, err = NewSQLRepo(tx).List(ctx, q)
		return err
	})
	return out, err
}

func (s *Service) FindOne(ctx context.Context, id int64) (*Item, error) {
	var out *Item
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		var err error
		out, err = NewSQLRepo(q).FindOne(ctx, id)
		return err
	})
	return out, err
}
