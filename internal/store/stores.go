package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alextreichler/shop2host/internal/models"
	"github.com/jmoiron/sqlx"
)

// UpsertResult tells whether UpsertStore created the row or found it.
type UpsertResult struct {
	StoreID int64
	Created bool
}

// upsertStore inserts st unless its owner already has a store with that
// name. The unique (user_id, name) constraint makes this safe under
// concurrent finalizations.
func upsertStore(ctx context.Context, ext sqlx.ExtContext, st *models.Store) (UpsertResult, error) {
	var id int64
	insert := ext.Rebind(`
		INSERT INTO stores (user_id, name, logo, address, email, phone, whatsapp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, name) DO NOTHING
		RETURNING id`)
	err := sqlx.GetContext(ctx, ext, &id, insert,
		st.UserID, st.Name, st.Logo, st.Address, st.Email, st.Phone, st.WhatsApp)
	if err == nil {
		return UpsertResult{StoreID: id, Created: true}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return UpsertResult{}, fmt.Errorf("insert store: %w", err)
	}

	lookup := ext.Rebind(`SELECT id FROM stores WHERE user_id = ? AND name = ?`)
	if err := sqlx.GetContext(ctx, ext, &id, lookup, st.UserID, st.Name); err != nil {
		return UpsertResult{}, fmt.Errorf("lookup store: %w", err)
	}
	return UpsertResult{StoreID: id, Created: false}, nil
}

// UpsertStore is the standalone form of the upsert used at checkout.
func (s *Store) UpsertStore(ctx context.Context, st *models.Store) (UpsertResult, error) {
	return upsertStore(ctx, s.DB, st)
}

// ListStoresByUser returns a user's stores with how many orders each has.
func (s *Store) ListStoresByUser(ctx context.Context, userID int64) ([]models.Store, error) {
	stores := []models.Store{}
	query := s.DB.Rebind(`
		SELECT s.id, s.user_id, s.name, s.logo, s.address, s.email, s.phone, s.whatsapp, s.created_at,
		       COUNT(o.id) AS order_count
		FROM stores s
		LEFT JOIN orders o ON o.store_id = s.id
		WHERE s.user_id = ?
		GROUP BY s.id, s.user_id, s.name, s.logo, s.address, s.email, s.phone, s.whatsapp, s.created_at
		ORDER BY s.created_at DESC, s.id DESC`)
	if err := s.DB.SelectContext(ctx, &stores, query, userID); err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return stores, nil
}

func (s *Store) CountStores(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM stores`); err != nil {
		return 0, fmt.Errorf("count stores: %w", err)
	}
	return n, nil
}
