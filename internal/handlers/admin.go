package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/alextreichler/shop2host/internal/mailer"
	"github.com/alextreichler/shop2host/internal/oauth"
	appsession "github.com/alextreichler/shop2host/internal/session"
	"github.com/alextreichler/shop2host/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

const AdminSessionName = "shop2host.admin"

type AdminHandler struct {
	Store        *store.Store
	SessionStore sessions.Store
	Templates    *TemplateCache
	Mailer       mailer.Sender
	BaseURL      string

	// OAuth is nil when Google sign-in is not configured.
	OAuth        oauth.Provider
	StateKey     []byte
	IsAdminEmail func(email string) bool
}

// Routes returns the admin router, to be mounted at /admin.
func (h *AdminHandler) Routes(limiter *RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.RedirectIfAuthenticated)
		r.Get("/login", h.LoginForm)
		r.With(limiter.Middleware).Post("/login", h.Login)
		r.Get("/auth/google", h.GoogleLogin)
		r.Get("/auth/google/callback", h.GoogleCallback)
	})
	r.Get("/signout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)
		r.Get("/", h.Dashboard)
		r.Get("/orders", h.ListOrders)

		r.Get("/category", h.Categories)
		r.Post("/add-category", h.AddCategory)
		r.Post("/update-category/{id}", h.UpdateCategory)
		r.Post("/delete-category/{id}", h.DeleteCategory)

		r.Get("/user-management", h.Users)
		r.Post("/delete-user/{id}", h.DeleteUser)

		r.Get("/tickets", h.Tickets)
		r.Get("/ticket/{ticketId}", h.Ticket)
		r.Post("/tickets/reply/{ticketId}", h.ReplyTicket)
	})
	return r
}

func (h *AdminHandler) session(r *http.Request) *sessions.Session {
	session, err := h.SessionStore.Get(r, AdminSessionName)
	if err != nil {
		slog.WarnContext(r.Context(), "Discarding unreadable admin session", "error", err)
	}
	return session
}

func authenticated(session *sessions.Session) bool {
	auth, ok := session.Values["authenticated"].(bool)
	return ok && auth
}

// redirect saves the session (and any flashes on it) before redirecting.
func (h *AdminHandler) redirect(w http.ResponseWriter, r *http.Request, session *sessions.Session, to string) {
	if err := session.Save(r, w); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save admin session", "error", err)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (h *AdminHandler) flash(session *sessions.Session, kind, msg string) {
	session.AddFlash(FlashMessage{Type: kind, Message: msg})
}

// render adds the admin layout data, consuming pending flashes.
func (h *AdminHandler) render(w http.ResponseWriter, r *http.Request, name string, extra map[string]interface{}) {
	session := h.session(r)
	data := pageData(r, nil, extra)
	data["Flashes"] = GetFlash(session)
	data["AdminEmail"], _ = session.Values["email"].(string)
	if err := session.Save(r, w); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save admin session", "error", err)
	}
	h.Templates.Render(w, r, http.StatusOK, name, data)
}

// AuthMiddleware ensures the admin is logged in
func (h *AdminHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := h.session(r)
		if !authenticated(session) {
			slog.InfoContext(r.Context(), "AuthMiddleware: admin not authenticated, redirecting to /admin/login", "path", r.URL.Path)
			if r.Method == http.MethodGet {
				session.Values["originalUrl"] = r.URL.RequestURI()
			}
			h.flash(session, "error", "You must be logged in to access this page.")
			h.redirect(w, r, session, "/admin/login")
			return
		}
		ok, err := h.stillAdmin(r, session)
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to load admin user", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if !ok {
			slog.InfoContext(r.Context(), "Admin session no longer valid", "email", session.Values["email"])
			session.Values = make(map[interface{}]interface{})
			h.flash(session, "error", "You must be logged in to access this page.")
			h.redirect(w, r, session, "/admin/login")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// stillAdmin re-checks the account behind an authenticated session. Emails
// on the allowlist pass without an account.
func (h *AdminHandler) stillAdmin(r *http.Request, session *sessions.Session) (bool, error) {
	if email, _ := session.Values["email"].(string); email != "" && h.IsAdminEmail != nil && h.IsAdminEmail(email) {
		return true, nil
	}
	id, _ := session.Values["user_id"].(int64)
	if id == 0 {
		return false, nil
	}
	user, err := h.Store.GetUserByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

// RedirectIfAuthenticated keeps logged-in admins off the login pages.
func (h *AdminHandler) RedirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authenticated(h.session(r)) {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AdminHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "admin/login.html", map[string]interface{}{
		"GoogleEnabled": h.OAuth != nil,
	})
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")

	user, err := h.Store.GetVerifiedUserByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.ErrorContext(r.Context(), "Failed to load admin user", "error", err)
		h.flash(session, "error", "Internal Server Error")
		h.redirect(w, r, session, "/admin/login")
		return
	}
	if user == nil || !user.IsAdmin || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		slog.WarnContext(r.Context(), "Failed admin login", "email", email)
		h.flash(session, "error", "Invalid email or password")
		h.redirect(w, r, session, "/admin/login")
		return
	}

	h.startSession(w, r, session, user.ID, user.Email, user.Name)
}

// startSession marks the admin session authenticated and sends the admin
// back where they were going.
func (h *AdminHandler) startSession(w http.ResponseWriter, r *http.Request, session *sessions.Session, userID int64, email, name string) {
	target, _ := session.Values["originalUrl"].(string)
	if !strings.HasPrefix(target, "/admin") {
		target = "/admin"
	}
	delete(session.Values, "originalUrl")
	session.Values["authenticated"] = true
	session.Values["user_id"] = userID
	session.Values["email"] = email
	if name == "" {
		name = email
	}
	h.flash(session, "success", "Welcome, "+name+"!")

	if err := appsession.Renew(r, session); err != nil {
		slog.ErrorContext(r.Context(), "Failed to renew admin session", "error", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}
	if err := session.Save(r, w); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save admin session", "error", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}
	slog.InfoContext(r.Context(), "Admin login successful", "email", email, "redirect", target)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	h.redirect(w, r, session, "/admin/login")
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.GetDashboardStats(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load dashboard stats", "error", err)
		http.Error(w, "Error fetching stats", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "admin/dashboard.html", map[string]interface{}{"Stats": stats})
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	orders, err := h.Store.GetAllOrders(r.Context(), limit, (page-1)*limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list orders", "error", err)
		http.Error(w, "Error fetching orders", http.StatusInternalServerError)
		return
	}
	total, err := h.Store.GetTotalOrdersCount(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to count orders", "error", err)
		http.Error(w, "Error fetching total order count", http.StatusInternalServerError)
		return
	}
	totalPages := (total + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}

	h.render(w, r, "admin/orders.html", map[string]interface{}{
		"Orders":      orders,
		"CurrentPage": page,
		"TotalPages":  totalPages,
		"Limit":       limit,
	})
}

// pathID parses a numeric chi URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}
