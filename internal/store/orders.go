package store

import (
	"context"
	"fmt"

	"github.com/alextreichler/shop2host/internal/models"
	"github.com/jmoiron/sqlx"
)

func insertOrder(ctx context.Context, ext sqlx.ExtContext, o *models.Order) error {
	query := ext.Rebind(`
		INSERT INTO orders (order_id, payment_id, user_id, store_id, name, email, phone, address, state, country, pin_code,
		                    domain_name, business_email, product_type, experience, product_count, plan, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := sqlx.GetContext(ctx, ext, &o.ID, query,
		o.OrderID, o.PaymentID, o.UserID, o.StoreID, o.Name, o.Email, o.Phone, o.Address, o.State, o.Country, o.PinCode,
		o.DomainName, o.BusinessEmail, o.ProductType, o.Experience, o.ProductCount, o.Plan, o.Amount)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// FinalizeOrder persists a paid checkout: the store is upserted for its
// owner and the order is attached to it. Both writes commit together.
// A gateway order that was already recorded yields ErrConflict.
func (s *Store) FinalizeOrder(ctx context.Context, st *models.Store, o *models.Order) (UpsertResult, error) {
	var res UpsertResult
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM orders WHERE order_id = ?`), o.OrderID); err != nil {
			return fmt.Errorf("check order: %w", err)
		}
		if n > 0 {
			return ErrConflict
		}

		r, err := upsertStore(ctx, tx, st)
		if err != nil {
			return err
		}
		st.ID = r.StoreID
		o.StoreID = r.StoreID
		if err := insertOrder(ctx, tx, o); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return res, nil
}

const orderColumns = `o.id, o.order_id, o.payment_id, COALESCE(o.user_id, 0) AS user_id, COALESCE(o.store_id, 0) AS store_id,
	COALESCE(s.name, '') AS store_name, o.name, o.email, o.phone, o.address, o.state, o.country, o.pin_code,
	o.domain_name, o.business_email, o.product_type, o.experience, o.product_count, o.plan, o.amount, o.created_at`

func (s *Store) GetAllOrders(ctx context.Context, limit, offset int) ([]models.Order, error) {
	orders := []models.Order{}
	query := s.DB.Rebind(`
		SELECT ` + orderColumns + `
		FROM orders o
		LEFT JOIN stores s ON s.id = o.store_id
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT ? OFFSET ?`)
	if err := s.DB.SelectContext(ctx, &orders, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	orders := []models.Order{}
	query := s.DB.Rebind(`
		SELECT ` + orderColumns + `
		FROM orders o
		LEFT JOIN stores s ON s.id = o.store_id
		WHERE o.user_id = ?
		ORDER BY o.created_at DESC, o.id DESC`)
	if err := s.DB.SelectContext(ctx, &orders, query, userID); err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return orders, nil
}

func (s *Store) GetTotalOrdersCount(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM orders`); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}
