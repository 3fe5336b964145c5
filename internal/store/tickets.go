package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alextreichler/shop2host/internal/models"
	"github.com/jmoiron/sqlx"
)

func (s *Store) CreateTicket(ctx context.Context, t *models.Ticket) error {
	if t.Status == "" {
		t.Status = models.TicketOpen
	}
	query := s.DB.Rebind(`INSERT INTO tickets (user_id, subject, message, status) VALUES (?, ?, ?, ?) RETURNING id`)
	if err := s.DB.GetContext(ctx, &t.ID, query, t.UserID, t.Subject, t.Message, t.Status); err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

const ticketColumns = `t.id, t.user_id, COALESCE(u.email, '') AS user_email, t.subject, t.message, t.status, t.created_at`

// ListTickets returns every ticket, newest first, for the admin queue.
func (s *Store) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	query := `SELECT ` + ticketColumns + `
		FROM tickets t LEFT JOIN users u ON u.id = t.user_id
		ORDER BY t.created_at DESC, t.id DESC`
	if err := s.DB.SelectContext(ctx, &tickets, query); err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

// ListTicketsByUser returns a user's tickets with their replies attached.
func (s *Store) ListTicketsByUser(ctx context.Context, userID int64) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	query := s.DB.Rebind(`SELECT ` + ticketColumns + `
		FROM tickets t LEFT JOIN users u ON u.id = t.user_id
		WHERE t.user_id = ?
		ORDER BY t.created_at DESC, t.id DESC`)
	if err := s.DB.SelectContext(ctx, &tickets, query, userID); err != nil {
		return nil, fmt.Errorf("list user tickets: %w", err)
	}
	for i := range tickets {
		replies, err := s.ListReplies(ctx, tickets[i].ID)
		if err != nil {
			return nil, err
		}
		tickets[i].Replies = replies
	}
	return tickets, nil
}

func (s *Store) GetTicket(ctx context.Context, id int64) (*models.Ticket, error) {
	var t models.Ticket
	query := s.DB.Rebind(`SELECT ` + ticketColumns + `
		FROM tickets t LEFT JOIN users u ON u.id = t.user_id
		WHERE t.id = ?`)
	if err := s.DB.GetContext(ctx, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	replies, err := s.ListReplies(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Replies = replies
	return &t, nil
}

func (s *Store) ListReplies(ctx context.Context, ticketID int64) ([]models.TicketReply, error) {
	replies := []models.TicketReply{}
	query := s.DB.Rebind(`SELECT id, ticket_id, author, message, created_at
		FROM ticket_replies WHERE ticket_id = ? ORDER BY created_at, id`)
	if err := s.DB.SelectContext(ctx, &replies, query, ticketID); err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return replies, nil
}

// ReplyToTicket records a reply and moves the ticket to status.
func (s *Store) ReplyToTicket(ctx context.Context, reply *models.TicketReply, status string) error {
	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE tickets SET status = ? WHERE id = ?`), status, reply.TicketID)
		if err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		query := tx.Rebind(`INSERT INTO ticket_replies (ticket_id, author, message) VALUES (?, ?, ?) RETURNING id`)
		if err := tx.GetContext(ctx, &reply.ID, query, reply.TicketID, reply.Author, reply.Message); err != nil {
			return fmt.Errorf("insert reply: %w", err)
		}
		return nil
	})
}
