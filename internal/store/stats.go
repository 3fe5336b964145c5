package store

import (
	"context"
	"fmt"

	"github.com/alextreichler/shop2host/internal/models"
)

type DashboardStats struct {
	TotalUsers    int
	VerifiedUsers int
	TotalStores   int
	TotalOrders   int
	Revenue       int64
	OrdersByPlan  map[string]int
	RecentOrders  []models.Order
}

type planCount struct {
	Plan  string `db:"plan"`
	Count int    `db:"count"`
}

func (s *Store) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		OrdersByPlan: make(map[string]int),
	}

	if err := s.DB.GetContext(ctx, &stats.TotalUsers, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	query := s.DB.Rebind(`SELECT COUNT(*) FROM users WHERE verified = ?`)
	if err := s.DB.GetContext(ctx, &stats.VerifiedUsers, query, true); err != nil {
		return nil, fmt.Errorf("count verified users: %w", err)
	}

	var err error
	if stats.TotalStores, err = s.CountStores(ctx); err != nil {
		return nil, err
	}
	if stats.TotalOrders, err = s.GetTotalOrdersCount(ctx); err != nil {
		return nil, err
	}
	if err := s.DB.GetContext(ctx, &stats.Revenue, `SELECT CAST(COALESCE(SUM(amount), 0) AS BIGINT) FROM orders`); err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}

	var byPlan []planCount
	if err := s.DB.SelectContext(ctx, &byPlan, `SELECT plan, COUNT(*) AS count FROM orders GROUP BY plan`); err != nil {
		return nil, fmt.Errorf("orders by plan: %w", err)
	}
	for _, pc := range byPlan {
		stats.OrdersByPlan[pc.Plan] = pc.Count
	}

	if stats.RecentOrders, err = s.GetAllOrders(ctx, 10, 0); err != nil {
		return nil, err
	}
	return stats, nil
}
