package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alextreichler/shop2host/internal/oauth"
	"github.com/alextreichler/shop2host/internal/store"
)

const oauthTimeout = 15 * time.Second

// GoogleLogin sends the admin to Google with a signed, expiring state
// whose nonce is also kept in the admin session.
func (h *AdminHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.OAuth == nil {
		http.NotFound(w, r)
		return
	}
	session := h.session(r)

	nonce, err := oauth.NewNonce()
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to generate oauth nonce", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	returnTo, _ := session.Values["originalUrl"].(string)
	state, err := oauth.IssueState(h.StateKey, nonce, returnTo, oauth.StateTTL)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to sign oauth state", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	session.Values["oauth_nonce"] = nonce
	if err := session.Save(r, w); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save admin session", "error", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.OAuth.AuthCodeURL(state), http.StatusFound)
}

func (h *AdminHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.OAuth == nil {
		http.NotFound(w, r)
		return
	}
	session := h.session(r)
	fail := func(msg string) {
		h.flash(session, "error", msg)
		h.redirect(w, r, session, "/admin/login")
	}

	nonce, _ := session.Values["oauth_nonce"].(string)
	delete(session.Values, "oauth_nonce")

	claims, err := oauth.ParseState(h.StateKey, r.URL.Query().Get("state"), nonce)
	if err != nil {
		slog.WarnContext(r.Context(), "Rejected oauth state", "error", err)
		fail("Google sign-in failed. Please try again.")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		fail("Google sign-in was cancelled.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), oauthTimeout)
	defer cancel()
	id, err := h.OAuth.Identify(ctx, code)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to identify google user", "error", err)
		fail("Google sign-in failed. Please try again.")
		return
	}
	if !id.EmailVerified || id.Email == "" {
		fail("Your Google email address is not verified.")
		return
	}

	var userID int64
	allowed := h.IsAdminEmail != nil && h.IsAdminEmail(id.Email)
	user, err := h.Store.GetUserByEmail(r.Context(), id.Email)
	switch {
	case err == nil:
		userID = user.ID
		allowed = allowed || (user.IsAdmin && user.Verified)
	case !errors.Is(err, store.ErrNotFound):
		slog.ErrorContext(r.Context(), "Failed to load admin user", "error", err)
		fail("Internal Server Error")
		return
	}
	if !allowed {
		slog.WarnContext(r.Context(), "Google account is not an admin", "email", id.Email)
		fail("This Google account is not allowed to access the admin panel.")
		return
	}

	if claims.ReturnTo != "" {
		session.Values["originalUrl"] = claims.ReturnTo
	}
	h.startSession(w, r, session, userID, id.Email, id.Name)
}
