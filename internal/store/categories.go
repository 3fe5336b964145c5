package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/alextreichler/shop2host/internal/models"
)

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.DB.SelectContext(ctx, &categories, `SELECT id, name, created_at FROM categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// categoryNameTaken ignores the row with id exceptID so a rename to the
// same name is allowed.
func (s *Store) categoryNameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var n int
	query := s.DB.Rebind(`SELECT COUNT(*) FROM categories WHERE LOWER(name) = LOWER(?) AND id <> ?`)
	if err := s.DB.GetContext(ctx, &n, query, name, exceptID); err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return n > 0, nil
}

func (s *Store) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	taken, err := s.categoryNameTaken(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrConflict
	}

	c := &models.Category{Name: name}
	query := s.DB.Rebind(`INSERT INTO categories (name) VALUES (?) RETURNING id`)
	if err := s.DB.GetContext(ctx, &c.ID, query, name); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	taken, err := s.categoryNameTaken(ctx, name, id)
	if err != nil {
		return err
	}
	if taken {
		return ErrConflict
	}

	res, err := s.DB.ExecContext(ctx, s.DB.Rebind(`UPDATE categories SET name = ? WHERE id = ?`), name, id)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, s.DB.Rebind(`DELETE FROM categories WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
