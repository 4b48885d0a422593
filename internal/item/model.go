package item

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("item not found")
	ErrOutOfStock   = errors.New("need more stock")
	ErrInvalidCount = errors.New("quantity must be positive")
)

type Kind string

const (
	KindBook  Kind = "B"
	KindAlbum Kind = "A"
	KindMovie Kind = "M"
)

// Variant is the closed set of item kinds. Only this package implements it.
type Variant interface {
	Kind() Kind
	sealed()
}

type Book struct {
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

type Album struct {
	Artist string `json:"artist"`
	Etc    string `json:"etc"`
}

type Movie struct {
	Director string `json:"director"`
	Actor    string `json:"actor"`
}

func (Book) Kind() Kind { return KindBook }
func (Album) Kind() Kind { return KindAlbum }
func (Movie) Kind() Kind { return KindMovie }

func (Book) sealed() {}
func (Album) sealed() {}
func (Movie) sealed() {}

type Item struct {
	ID            int64
	Name          string
	Price         int // minor currency unit
	StockQuantity int
	Variant       Variant
}

func (i *Item) Kind() Kind {
	if i.Variant == nil {
		return KindBook
	}
	return i.Variant.Kind()
}

func (i *Item) AddStock(quantity int) {
	i.StockQuantity += quantity
}

// RemoveStock fails without touching the stock when fewer than quantity units
// remain.
func (i *Item) RemoveStock(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, quantity)
	}
	rest := i.StockQuantity - quantity
	if rest < 0 {
		return fmt.Errorf("%w: item %d has %d, requested %d", ErrOutOfStock, i.ID, i.StockQuantity, quantity)
	}
	i.StockQuantity = rest
	return nil
}
