package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alextreichler/shop2host/internal/store"
)

func (h *AdminHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Store.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list categories", "error", err)
		http.Error(w, "Error fetching categories", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "admin/category.html", map[string]interface{}{"Categories": categories})
}

func (h *AdminHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		h.flash(session, "error", "Category name is required.")
		h.redirect(w, r, session, "/admin/category")
		return
	}

	if _, err := h.Store.CreateCategory(r.Context(), name); err != nil {
		if errors.Is(err, store.ErrConflict) {
			h.flash(session, "error", "Category already exists.")
		} else {
			slog.ErrorContext(r.Context(), "Failed to create category", "name", name, "error", err)
			h.flash(session, "error", "Error saving category.")
		}
		h.redirect(w, r, session, "/admin/category")
		return
	}
	h.flash(session, "success", "Category added!")
	h.redirect(w, r, session, "/admin/category")
}

func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		h.flash(session, "error", "Category name is required.")
		h.redirect(w, r, session, "/admin/category")
		return
	}

	switch err := h.Store.UpdateCategory(r.Context(), id, name); {
	case err == nil:
		h.flash(session, "success", "Category updated!")
	case errors.Is(err, store.ErrConflict):
		h.flash(session, "error", "Category already exists.")
	case errors.Is(err, store.ErrNotFound):
		h.flash(session, "error", "Category not found.")
	default:
		slog.ErrorContext(r.Context(), "Failed to update category", "id", id, "error", err)
		h.flash(session, "error", "Error updating category.")
	}
	h.redirect(w, r, session, "/admin/category")
}

func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	switch err := h.Store.DeleteCategory(r.Context(), id); {
	case err == nil:
		h.flash(session, "success", "Category deleted!")
	case errors.Is(err, store.ErrNotFound):
		h.flash(session, "error", "Category not found.")
	default:
		slog.ErrorContext(r.Context(), "Failed to delete category", "id", id, "error", err)
		h.flash(session, "error", "Error deleting category.")
	}
	h.redirect(w, r, session, "/admin/category")
}
