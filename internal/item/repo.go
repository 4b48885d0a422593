package item

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mohyerolo/inflearn-jpa/internal/store"
)

type Query struct {
	Q      string
	Limit  int
	Offset int
}

type Repository interface {
	Save(ctx context.Context, it *Item) error
	FindOne(ctx context.Context, id int64) (*Item, error)
	FindAll(ctx context.Context) ([]Item, error)
	List(ctx context.Context, q Query) ([]Item, error)
	UpdateStock(ctx context.Context, id int64, stock int) error
}

// Row is the single-table layout of every variant: dtype plus the union of
// variant columns.
type Row struct {
	ID       int64
	DType    string
	Name     string
	Price    int
	Stock    int
	Author   string
	ISBN     string
	Artist   string
	Etc      string
	Director string
	Actor    string
}

// Columns lists the item columns under alias, in Row.Targets order.
func Columns(alias string) string {
	cols := []string{"id", "dtype", "name", "price", "stock_quantity",
		"author", "isbn", "artist", "etc", "director", "actor"}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func (r *Row) Targets() []any {
	return []any{&r.ID, &r.DType, &r.Name, &r.Price, &r.Stock,
		&r.Author, &r.ISBN, &r.Artist, &r.Etc, &r.Director, &r.Actor}
}

func (r *Row) Item() *Item {
	it := &Item{ID: r.ID, Name: r.Name, Price: r.Price, StockQuantity: r.Stock}
	switch Kind(r.DType) {
	case KindAlbum:
		it.Variant = Album{Artist: r.Artist, Etc: r.Etc}
	case KindMovie:
		it.Variant = Movie{Director: r.Director, Actor: r.Actor}
	default:
		it.Variant = Book{Author: r.Author, ISBN: r.ISBN}
	}
	return it
}

func toRow(it *Item) Row {
	r := Row{ID: it.ID, DType: string(it.Kind()), Name: it.Name, Price: it.Price, Stock: it.StockQuantity}
	switch v := it.Variant.(type) {
	case Book:
		r.Author, r.ISBN = v.Author, v.ISBN
	case Album:
		r.Artist, r.Etc = v.Artist, v.Etc
	case Movie:
		r.Director, r.Actor = v.Director, v.Actor
	}
	return r
}

type SQLRepo struct{ db store.DBTX }

func NewSQLRepo(db store.DBTX) *SQLRepo { return &SQLRepo{db: db} }

// Save inserts a new item (ID == 0) or overwrites every column of an
// existing one.
func (r *SQLRepo) Save(ctx context.Context, it *Item) error {
	row := toRow(it)
	if it.ID == 0 {
		err := r.db.QueryRowContext(ctx, `
			INSERT INTO item (dtype, name, price, stock_quantity, author, isbn, artist, etc, director, actor)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`, row.DType, row.Name, row.Price, row.Stock,
			row.Author, row.ISBN, row.Artist, row.Etc, row.Director, row.Actor).Scan(&it.ID)
		return store.Wrap("insert item", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE item
		SET dtype = ?, name = ?, price = ?, stock_quantity = ?,
		    author = ?, isbn = ?, artist = ?, etc = ?, director = ?, actor = ?
		WHERE id = ?
	`, row.DType, row.Name, row.Price, row.Stock,
		row.Author, row.ISBN, row.Artist, row.Etc, row.Director, row.Actor, row.ID)
	return r.checkAffected("update item", res, err, it.ID)
}

func (r *SQLRepo) FindOne(ctx context.Context, id int64) (*Item, error) {
	var row Row
	err := r.db.QueryRowContext(ctx, `
		SELECT `+Columns("i")+`
		FROM item i WHERE i.id = ?
	`, id).Scan(row.Targets()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	if err != nil {
		return nil, store.Wrap("select item", err)
	}
	return row.Item(), nil
}

func (r *SQLRepo) FindAll(ctx context.Context) ([]Item, error) {
	return r.list(ctx, `SELECT `+Columns("i")+` FROM item i ORDER BY i.id`)
}

// List filters by a case-insensitive name fragment and pages the result.
func (r *SQLRepo) List(ctx context.Context, q Query) ([]Item, error) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	search := strings.ToLower(strings.TrimSpace(q.Q))

	return r.list(ctx, `
		SELECT `+Columns("i")+`
		FROM item i
		WHERE (? = '' OR LOWER(i.name) LIKE ?)
		ORDER BY i.id
		LIMIT ? OFFSET ?
	`, search, "%"+search+"%", limit, offset)
}

func (r *SQLRepo) UpdateStock(ctx context.Context, id int64, stock int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE item SET stock_quantity = ? WHERE id = ?`, stock, id)
	return r.checkAffected("update stock", res, err, id)
}

func (r *SQLRepo) checkAffected(op string, res sql.Result, err error, id int64) error {
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

func (r *SQLRepo) list(ctx context.Context, query string, args ...any) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Wrap("select items", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var row Row
		if err := rows.Scan(row.Targets()...); err != nil {
			return nil, store.Wrap("scan item", err)
		}
		out = append(out, *row.Item())
	}
	return out, store.Wrap("iterate items", rows.Err())
}
