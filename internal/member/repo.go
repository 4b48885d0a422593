package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mohyerolo/inflearn-jpa/internal/store"
)

var (
	ErrNotFound        = errors.New("member not found")
	ErrDuplicateMember = errors.New("member already exists")
)

type Repository interface {
	Save(ctx context.Context, m *Member) error
	FindOne(ctx context.Context, id int64) (*Member, error)
	FindAll(ctx context.Context) ([]Member, error)
	FindByName(ctx context.Context, name string) ([]Member, error)
	UpdateName(ctx context.Context, id int64, name string) error
}

type SQLRepo struct{ db store.DBTX }

func NewSQLRepo(db store.DBTX) *SQLRepo { return &SQLRepo{db: db} }

// Save inserts m and sets its id. A name clash reported by the store's
// unique constraint surfaces as ErrDuplicateMember.
func (r *SQLRepo) Save(ctx context.Context, m *Member) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO member (name, city, street, zipcode)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, m.Name, m.Address.City, m.Address.Street, m.Address.Zipcode).Scan(&m.ID)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateMember, m.Name)
		}
		return store.Wrap("insert member", err)
	}
	return nil
}

func (r *SQLRepo) FindOne(ctx context.Context, id int64) (*Member, error) {
	var m Member
	err := r.db.QueryRowContext(ctx, `
		SELECT `+Columns("m")+`
		FROM member m WHERE m.id = ?
	`, id).Scan(ScanTargets(&m)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	if err != nil {
		return nil, store.Wrap("select member", err)
	}
	return &m, nil
}

func (r *SQLRepo) FindAll(ctx context.Context) ([]Member, error) {
	return r.list(ctx, `SELECT `+Columns("m")+` FROM member m ORDER BY m.id`)
}

func (r *SQLRepo) FindByName(ctx context.Context, name string) ([]Member, error) {
	return r.list(ctx, `SELECT `+Columns("m")+` FROM member m WHERE m.name = ? ORDER BY m.id`, name)
}

func (r *SQLRepo) UpdateName(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE member SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateMember, name)
		}
		return store.Wrap("update member", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Wrap("update member", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	return nil
}

func (r *SQLRepo) list(ctx context.Context, query string, args ...any) ([]Member, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Wrap("select members", err)
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(ScanTargets(&m)...); err != nil {
			return nil, store.Wrap("scan member", err)
		}
		out = append(out, m)
	}
	return out, store.Wrap("iterate members", rows.Err())
}
