package handlers

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alextreichler/shop2host/internal/mailer"
	"github.com/alextreichler/shop2host/internal/metrics"
	"github.com/alextreichler/shop2host/internal/models"
	"github.com/alextreichler/shop2host/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgAllFieldsRequired  = "All fields are required."
	msgPasswordMismatch   = "Passwords do not match."
	msgUserExists         = "User already exists."
	msgRegistered         = "Registration successful! Please check your email to verify your account."
	msgRegisterFailed     = "An error occurred while registering the user."
	msgInvalidRequest     = "Invalid request."
	msgInvalidToken       = "Invalid token or email."
	msgVerified           = "Email verification successful! You can now log in."
	msgCredentialsMissing = "Email and Password are required."
	msgUserNotFound       = "User not found or Email not verified."
	msgBadCredentials     = "Incorrect Email or password."
)

type AuthHandler struct {
	Store     *store.Store
	Templates *TemplateCache
	Mailer    mailer.Sender
	BaseURL   string
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (h *AuthHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.Templates.Render(w, r, http.StatusOK, "signup.html", pageData(r, visitorFrom(r), nil))
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	if err := r.ParseForm(); err != nil {
		h.Templates.Render(w, r, http.StatusBadRequest, "signup.html", pageData(r, v, map[string]interface{}{"Error": msgInvalidRequest}))
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	phone := strings.TrimSpace(r.FormValue("phone"))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	confirm := r.FormValue("confirmPassword")

	fail := func(status int, msg string) {
		h.Templates.Render(w, r, status, "signup.html", pageData(r, v, map[string]interface{}{
			"Error":  msg,
			"Values": map[string]string{"name": name, "phone": phone, "email": email},
		}))
	}

	if name == "" || phone == "" || email == "" || password == "" || confirm == "" {
		fail(http.StatusBadRequest, msgAllFieldsRequired)
		return
	}
	if password != confirm {
		fail(http.StatusBadRequest, msgPasswordMismatch)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to hash password", "error", err)
		fail(http.StatusInternalServerError, msgRegisterFailed)
		return
	}
	token, err := generateToken()
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to generate verification token", "error", err)
		fail(http.StatusInternalServerError, msgRegisterFailed)
		return
	}

	user := &models.User{
		Name:              name,
		Phone:             phone,
		Email:             email,
		Password:          string(hash),
		VerificationToken: sql.NullString{String: token, Valid: true},
	}
	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			fail(http.StatusBadRequest, msgUserExists)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to create user", "email", email, "error", err)
		fail(http.StatusInternalServerError, msgRegisterFailed)
		return
	}

	body, err := mailer.VerificationBody(name, mailer.VerificationLink(h.BaseURL, email, token))
	if err == nil {
		err = h.Mailer.Send(r.Context(), email, mailer.VerificationSubject, body)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to send verification email", "email", email, "error", err)
		fail(http.StatusInternalServerError, msgRegisterFailed)
		return
	}

	metrics.RecordSignup()
	slog.InfoContext(r.Context(), "User registered", "user_id", user.ID)
	h.Templates.Render(w, r, http.StatusCreated, "login.html", pageData(r, v, map[string]interface{}{"Success": msgRegistered}))
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	token := r.URL.Query().Get("token")
	email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if token == "" || email == "" {
		h.Templates.Render(w, r, http.StatusBadRequest, "login.html", pageData(r, v, map[string]interface{}{"Error": msgInvalidRequest}))
		return
	}

	if err := h.Store.VerifyEmail(r.Context(), email, token); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Templates.Render(w, r, http.StatusBadRequest, "login.html", pageData(r, v, map[string]interface{}{"Error": msgInvalidToken}))
			return
		}
		slog.ErrorContext(r.Context(), "Failed to verify email", "email", email, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Email verified", "email", email)
	h.Templates.Render(w, r, http.StatusOK, "login.html", pageData(r, v, map[string]interface{}{"Success": msgVerified}))
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	data := pageData(r, v, map[string]interface{}{"Flashes": v.Flashes()})
	if err := v.Save(w, r); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save session", "error", err)
	}
	h.Templates.Render(w, r, http.StatusOK, "login.html", data)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")

	fail := func(status int, msg string) {
		h.Templates.Render(w, r, status, "login.html", pageData(r, v, map[string]interface{}{
			"Error":  msg,
			"Values": map[string]string{"email": email},
		}))
	}

	if email == "" || password == "" {
		fail(http.StatusBadRequest, msgCredentialsMissing)
		return
	}

	user, err := h.Store.GetVerifiedUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(http.StatusBadRequest, msgUserNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to load user", "email", email, "error", err)
		fail(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		fail(http.StatusBadRequest, msgBadCredentials)
		return
	}

	target := v.OriginalURL
	if target == "" {
		target = "/dashboard"
	}
	if err := v.Renew(r); err != nil {
		slog.ErrorContext(r.Context(), "Failed to renew session", "error", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}
	v.UserID = user.ID
	v.OriginalURL = ""
	if err := v.Save(w, r); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save session", "error", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Login successful", "user_id", user.ID, "redirect", target)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	v := visitorFrom(r)
	if err := v.Destroy(w, r); err != nil {
		slog.ErrorContext(r.Context(), "Failed to destroy session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
