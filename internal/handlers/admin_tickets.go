package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alextreichler/shop2host/internal/mailer"
	"github.com/alextreichler/shop2host/internal/models"
	"github.com/alextreichler/shop2host/internal/store"
)

const mailTimeout = 15 * time.Second

func (h *AdminHandler) Tickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.Store.ListTickets(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list tickets", "error", err)
		http.Error(w, "Error fetching tickets", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "admin/tickets.html", map[string]interface{}{"Tickets": tickets})
}

func (h *AdminHandler) Ticket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "ticketId")
	if !ok {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	ticket, err := h.Store.GetTicket(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to load ticket", "ticket_id", id, "error", err)
		http.Error(w, "Error fetching ticket", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "admin/ticket.html", map[string]interface{}{"Ticket": ticket})
}

func (h *AdminHandler) ReplyTicket(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	id, ok := pathID(r, "ticketId")
	if !ok {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/admin/ticket/%d", id)

	message := strings.TrimSpace(r.FormValue("message"))
	if message == "" {
		h.flash(session, "error", "Reply message is required.")
		h.redirect(w, r, session, back)
		return
	}

	ticket, err := h.Store.GetTicket(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to load ticket", "ticket_id", id, "error", err)
		http.Error(w, "Error fetching ticket", http.StatusInternalServerError)
		return
	}

	author, _ := session.Values["email"].(string)
	if author == "" {
		author = "Support"
	}
	reply := &models.TicketReply{TicketID: id, Author: author, Message: message}
	if err := h.Store.ReplyToTicket(r.Context(), reply, models.TicketAnswered); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save reply", "ticket_id", id, "error", err)
		h.flash(session, "error", "Error saving reply.")
		h.redirect(w, r, session, back)
		return
	}

	if ticket.UserEmail != "" {
		if err := h.notifyReply(r.Context(), ticket, message); err != nil {
			slog.ErrorContext(r.Context(), "Failed to email ticket reply", "ticket_id", id, "to", ticket.UserEmail, "error", err)
			h.flash(session, "error", "Reply saved, but the notification email could not be sent.")
			h.redirect(w, r, session, back)
			return
		}
	}

	slog.InfoContext(r.Context(), "Ticket answered", "ticket_id", id, "author", author)
	h.flash(session, "success", "Reply sent!")
	h.redirect(w, r, session, back)
}

func (h *AdminHandler) notifyReply(ctx context.Context, ticket *models.Ticket, message string) error {
	body, err := mailer.TicketReplyBody(ticket.Subject, message, h.BaseURL+"/support")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()
	return h.Mailer.Send(ctx, ticket.UserEmail, fmt.Sprintf(mailer.TicketReplySubject, ticket.Subject), body)
}
