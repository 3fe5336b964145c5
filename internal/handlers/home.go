package handlers

import (
	"log/slog"
	"net/http"

	"github.com/alextreichler/shop2host/internal/config"
	"github.com/alextreichler/shop2host/internal/store"
)

type HomeHandler struct {
	Store     *store.Store
	Templates *TemplateCache
	Plans     *config.Catalog
}

// Page serves a template that needs nothing but the common page data.
func (h *HomeHandler) Page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.Templates.Render(w, r, http.StatusOK, name, pageData(r, visitorFrom(r), map[string]interface{}{
			"Plans": h.Plans.Plans,
		}))
	}
}

// PlanPage describes one plan from the catalog.
func (h *HomeHandler) PlanPage(plan string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.Plans.Get(plan)
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.Templates.Render(w, r, http.StatusOK, "plan.html", pageData(r, visitorFrom(r), map[string]interface{}{
			"Plan": p,
		}))
	}
}

func (h *HomeHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	stores, err := h.Store.ListStoresByUser(r.Context(), v.UserID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list stores", "user_id", v.UserID, "error", err)
		http.Error(w, "Error fetching stores", http.StatusInternalServerError)
		return
	}
	orders, err := h.Store.ListOrdersByUser(r.Context(), v.UserID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list orders", "user_id", v.UserID, "error", err)
		http.Error(w, "Error fetching orders", http.StatusInternalServerError)
		return
	}
	user, err := h.Store.GetUserByID(r.Context(), v.UserID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load user", "user_id", v.UserID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := pageData(r, v, map[string]interface{}{
		"User":    user,
		"Stores":  stores,
		"Orders":  orders,
		"Flashes": v.Flashes(),
	})
	if err := v.Save(w, r); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save session", "error", err)
	}
	h.Templates.Render(w, r, http.StatusOK, "dashboard.html", data)
}

func (h *HomeHandler) StoreManagement(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	stores, err := h.Store.ListStoresByUser(r.Context(), v.UserID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list stores", "user_id", v.UserID, "error", err)
		http.Error(w, "Error fetching stores", http.StatusInternalServerError)
		return
	}
	h.Templates.Render(w, r, http.StatusOK, "store-management.html", pageData(r, v, map[string]interface{}{
		"Stores": stores,
	}))
}
