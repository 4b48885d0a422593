package member

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mohyerolo/inflearn-jpa/internal/store"
)

var ErrInvalidName = errors.New("member name is required")

type Service struct {
	db *store.DB
}

func NewService(db *store.DB) *Service {
	return &Service{db: db}
}

// Join registers m and returns its id. m is normalized in place: its name is
// trimmed and its ID set on success.
//
// The name lookup is only an early exit: two concurrent joins with the same
// name can both pass it, and the UNIQUE constraint on member.name is what
// finally rejects the second insert (mapped to ErrDuplicateMember by Save).
func (s *Service) Join(ctx context.Context, m *Member) (int64, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return 0, ErrInvalidName
	}
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		repo := NewSQLRepo(q)
		found, err := repo.FindByName(ctx, m.Name)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateMember, m.Name)
		}
		return repo.Save(ctx, m)
	})
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

func (s *Service) FindMembers(ctx context.Context) ([]Member, error) {
	var out []Member
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		var err error
		out, err = NewSQLRepo(q).FindAll(ctx)
		return err
	})
	return out, err
}

func (s *Service) FindOne(ctx context.Context, id int64) (*Member, error) {
	var out *Member
	err := s.db.InTx(ctx, func(q store.DBTX) error {
		var err error
		out, err = NewSQLRepo(q).FindOne(ctx, id)
		return err
	})
	return out, err
}

// Update renames a member.
func (s *Service) Update(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	return s.db.InTx(ctx, func(q store.DBTX) error {
		repo := NewSQLRepo(q)
		found, err := repo.FindByName(ctx, name)
		if err != nil {
			return err
		}
		for _, m := range found {
			if m.ID != id {
				return fmt.Errorf("%w: %s", ErrDuplicateMember, name)
			}
		}
		return repo.UpdateName(ctx, id, name)
	})
}
