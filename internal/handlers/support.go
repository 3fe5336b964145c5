package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/alextreichler/shop2host/internal/models"
	"github.com/alextreichler/shop2host/internal/store"
)

type SupportHandler struct {
	Store     *store.Store
	Templates *TemplateCache
}

func (h *SupportHandler) OpenTicketForm(w http.ResponseWriter, r *http.Request) {
	h.Templates.Render(w, r, http.StatusOK, "open-ticket.html", pageData(r, visitorFrom(r), nil))
}

func (h *SupportHandler) OpenTicket(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	t := &models.Ticket{
		UserID:  v.UserID,
		Subject: strings.TrimSpace(r.FormValue("subject")),
		Message: strings.TrimSpace(r.FormValue("message")),
	}
	if t.Subject == "" || t.Message == "" {
		h.Templates.Render(w, r, http.StatusBadRequest, "open-ticket.html", pageData(r, v, map[string]interface{}{
			"Error": "Subject and message are required.",
			"Form":  t,
		}))
		return
	}
	if err := h.Store.CreateTicket(r.Context(), t); err != nil {
		slog.ErrorContext(r.Context(), "Failed to create ticket", "user_id", v.UserID, "error", err)
		h.Templates.Render(w, r, http.StatusInternalServerError, "open-ticket.html", pageData(r, v, map[string]interface{}{
			"Error": "Could not open your ticket. Please try again.",
			"Form":  t,
		}))
		return
	}

	slog.InfoContext(r.Context(), "Ticket opened", "ticket_id", t.ID, "user_id", v.UserID)
	v.AddFlash("success", "Your ticket has been submitted. We will get back to you soon.")
	if !save(w, r, v) {
		return
	}
	http.Redirect(w, r, "/support", http.StatusSeeOther)
}

func (h *SupportHandler) Support(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	tickets, err := h.Store.ListTicketsByUser(r.Context(), v.UserID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list tickets", "user_id", v.UserID, "error", err)
		http.Error(w, "Error fetching tickets", http.StatusInternalServerError)
		return
	}
	data := pageData(r, v, map[string]interface{}{
		"Tickets": tickets,
		"Flashes": v.Flashes(),
	})
	if !save(w, r, v) {
		return
	}
	h.Templates.Render(w, r, http.StatusOK, "support.html", data)
}
