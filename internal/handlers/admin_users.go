package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alextreichler/shop2host/internal/store"
)

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list users", "error", err)
		http.Error(w, "Error fetching users", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "admin/user-management.html", map[string]interface{}{"Users": users})
}

// DeleteUser removes the account with its stores and tickets. Any live
// session of that user is rejected on its next login-only request.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	if self, _ := session.Values["user_id"].(int64); self == id {
		h.flash(session, "error", "You cannot delete your own account.")
		h.redirect(w, r, session, "/admin/user-management")
		return
	}

	switch err := h.Store.DeleteUser(r.Context(), id); {
	case err == nil:
		slog.InfoContext(r.Context(), "User deleted", "user_id", id)
		h.flash(session, "success", "User deleted!")
	case errors.Is(err, store.ErrNotFound):
		h.flash(session, "error", "User not found.")
	default:
		slog.ErrorContext(r.Context(), "Failed to delete user", "user_id", id, "error", err)
		h.flash(session, "error", "Error deleting user.")
	}
	h.redirect(w, r, session, "/admin/user-management")
}
