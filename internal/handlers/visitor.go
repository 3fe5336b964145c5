package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alextreichler/shop2host/internal/session"
	"github.com/alextreichler/shop2host/internal/store"
	"github.com/alextreichler/shop2host/internal/wizard"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
)

const (
	UserSessionName = "shop2host.sid"

	keyUserID      = "user_id"
	keyOriginalURL = "originalUrl"
	keyWizard      = "wizard"
)

// Visitor is the typed view of the user session for one request.
type Visitor struct {
	UserID      int64
	OriginalURL string
	Wizard      wizard.Progress

	session *sessions.Session
}

func (v *Visitor) LoggedIn() bool { return v.UserID != 0 }

func (v *Visitor) AddFlash(kind, message string) {
	v.session.AddFlash(FlashMessage{Type: kind, Message: message})
}

func (v *Visitor) Flashes() []FlashMessage {
	return GetFlash(v.session)
}

// Save writes the visitor state back into the session.
func (v *Visitor) Save(w http.ResponseWriter, r *http.Request) error {
	vals := v.session.Values
	if v.UserID != 0 {
		vals[keyUserID] = v.UserID
	} else {
		delete(vals, keyUserID)
	}
	if v.OriginalURL != "" {
		vals[keyOriginalURL] = v.OriginalURL
	} else {
		delete(vals, keyOriginalURL)
	}
	if v.Wizard != (wizard.Progress{}) {
		vals[keyWizard] = v.Wizard
	} else {
		delete(vals, keyWizard)
	}
	return v.session.Save(r, w)
}

// Renew moves the visitor onto a fresh session id, keeping its values.
func (v *Visitor) Renew(r *http.Request) error {
	return session.Renew(r, v.session)
}

// Destroy drops the server-side record and expires the cookie.
func (v *Visitor) Destroy(w http.ResponseWriter, r *http.Request) error {
	v.UserID = 0
	v.OriginalURL = ""
	v.Wizard = wizard.Progress{}
	v.session.Values = make(map[interface{}]interface{})
	v.session.Options.MaxAge = -1
	return v.session.Save(r, w)
}

type visitorKey struct{}

func visitorFrom(r *http.Request) *Visitor {
	v, _ := r.Context().Value(visitorKey{}).(*Visitor)
	return v
}

// Visitors loads the user session once per request and guards the
// login-only and logged-out-only pages.
type Visitors struct {
	Store        *store.Store
	SessionStore sessions.Store
}

func (vs *Visitors) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := vs.SessionStore.Get(r, UserSessionName)
		if err != nil {
			slog.WarnContext(r.Context(), "Discarding unreadable session", "error", err)
		}
		v := &Visitor{session: session}
		if id, ok := session.Values[keyUserID].(int64); ok {
			v.UserID = id
		}
		if u, ok := session.Values[keyOriginalURL].(string); ok {
			v.OriginalURL = u
		}
		if p, ok := session.Values[keyWizard].(wizard.Progress); ok {
			v.Wizard = p
		}
		ctx := context.WithValue(r.Context(), visitorKey{}, v)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser sends anonymous visitors to /login, remembering where they
// were headed. Sessions of deleted accounts are dropped here too.
func (vs *Visitors) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := visitorFrom(r)
		if v.LoggedIn() {
			_, err := vs.Store.GetUserByID(r.Context(), v.UserID)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}
			if !errors.Is(err, store.ErrNotFound) {
				slog.ErrorContext(r.Context(), "Failed to load session user", "user_id", v.UserID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			slog.InfoContext(r.Context(), "Session user no longer exists", "user_id", v.UserID)
			v.UserID = 0
			v.Wizard = wizard.Progress{}
		}

		if r.Method == http.MethodGet {
			v.OriginalURL = r.URL.RequestURI()
		}
		if err := v.Save(w, r); err != nil {
			slog.ErrorContext(r.Context(), "Failed to save session", "error", err)
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}

// RedirectIfLoggedIn keeps signed-in users away from /login and /signup.
func (vs *Visitors) RedirectIfLoggedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if visitorFrom(r).LoggedIn() {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// pageData is the template data shared by every user-facing page.
func pageData(r *http.Request, v *Visitor, extra map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{
		"CsrfField": csrf.TemplateField(r),
		"CsrfToken": csrf.Token(r),
		"LoggedIn":  v != nil && v.LoggedIn(),
	}
	for k, val := range extra {
		data[k] = val
	}
	return data
}
