package handlers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/alextreichler/shop2host/internal/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signupForm(email, password, confirm string) url.Values {
	return url.Values{
		"name":            {"Asha"},
		"phone":           {"9876543210"},
		"email":           {email},
		"password":        {password},
		"confirmPassword": {confirm},
	}
}

func TestSignup_Validation(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	tests := []struct {
		name   string
		form   url.Values
		status int
		want   string
	}{
		{"missing fields", url.Values{"email": {"a@example.com"}}, http.StatusBadRequest, msgAllFieldsRequired},
		{"password mismatch", signupForm("a@example.com", "secret1", "secret2"), http.StatusBadRequest, msgPasswordMismatch},
		{"created", signupForm("a@example.com", "secret1", "secret1"), http.StatusCreated, msgRegistered},
		{"duplicate", signupForm("A@Example.com", "secret1", "secret1"), http.StatusBadRequest, msgUserExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.postForm(t, c, "/signup", tt.form)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, readBody(t, resp), tt.want)
		})
	}

	sent := env.mail.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@example.com", sent[0].To)
	assert.Equal(t, mailer.VerificationSubject, sent[0].Subject)

	u, err := env.store.GetUserByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.False(t, u.Verified)
	assert.True(t, u.VerificationToken.Valid)
}

func TestSignup_MailFailureIsAnError(t *testing.T) {
	env := newTestEnv(t)
	env.mail.err = assert.AnError

	resp := env.postForm(t, env.client(t), "/signup", signupForm("a@example.com", "pw", "pw"))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), msgRegisterFailed)
}

func TestVerifyEmail_OnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	code, _ := status(env.postForm(t, c, "/signup", signupForm("a@example.com", "pw", "pw")))
	require.Equal(t, http.StatusCreated, code)

	u, err := env.store.GetUserByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	link := "/verify-email?" + url.Values{"token": {u.VerificationToken.String}, "email": {"a@example.com"}}.Encode()

	resp := env.get(t, c, link)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), msgVerified)

	resp = env.get(t, c, link)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), msgInvalidToken)

	code, _ = status(env.get(t, c, "/verify-email?email=a@example.com"))
	assert.Equal(t, http.StatusBadRequest, code)

	// Verified users can now log in.
	env.login(t, c, "a@example.com", "pw")
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	env.createUser(t, "ok@example.com", "right", false)
	code, _ := status(env.postForm(t, c, "/signup", signupForm("new@example.com", "pw", "pw")))
	require.Equal(t, http.StatusCreated, code)

	tests := []struct {
		name      string
		email, pw string
		want      string
	}{
		{"missing", "", "", msgCredentialsMissing},
		{"unverified", "new@example.com", "pw", msgUserNotFound},
		{"unknown", "ghost@example.com", "pw", msgUserNotFound},
		{"wrong password", "ok@example.com", "wrong", msgBadCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.postForm(t, c, "/login", url.Values{"email": {tt.email}, "password": {tt.pw}})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, readBody(t, resp), tt.want)
		})
	}
}

func TestLogin_SessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	env.createUser(t, "a@example.com", "pw", false)

	code, loc := status(env.get(t, c, "/dashboard"))
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/login", loc)

	env.login(t, c, "A@example.com ", "pw")

	resp := env.get(t, c, "/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "You have no stores yet.")

	for _, path := range []string{"/login", "/signup"} {
		code, loc = status(env.get(t, c, path))
		assert.Equal(t, http.StatusSeeOther, code, path)
		assert.Equal(t, "/dashboard", loc, path)
	}

	code, loc = status(env.get(t, c, "/signout"))
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/login", loc)

	code, loc = status(env.get(t, c, "/dashboard"))
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/login", loc)
}

func TestLogin_ReturnsToOriginalURL(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	env.createUser(t, "a@example.com", "pw", false)

	code, loc := status(env.get(t, c, "/store-management"))
	require.Equal(t, http.StatusSeeOther, code)
	require.Equal(t, "/login", loc)

	code, loc = status(env.postForm(t, c, "/login", url.Values{"email": {"a@example.com"}, "password": {"pw"}}))
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/store-management", loc)

	// The remembered URL is used once.
	status(env.get(t, c, "/signout"))
	env.login(t, c, "a@example.com", "pw")
}

func TestPublicPages(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	for _, path := range []string{"/", "/pricing-plan", "/faq", "/contact", "/about", "/terms", "/privacy-policy", "/lite-plan", "/hero-plan", "/pro-plan"} {
		code, _ := status(env.get(t, c, path))
		assert.Equal(t, http.StatusOK, code, path)
	}

	resp := env.get(t, c, "/lite-plan")
	body := readBody(t, resp)
	assert.Contains(t, body, "Lite plan")
	assert.Contains(t, body, "999")

	resp = env.get(t, c, "/pro-plan")
	assert.Contains(t, readBody(t, resp), "4,999")
}

// cookieOf returns the named cookie c would send to the test server.
func (e *testEnv) cookieOf(t *testing.T, c *http.Client, name string) *http.Cookie {
	t.Helper()
	u, err := url.Parse(e.srv.URL)
	require.NoError(t, err)
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("no %s cookie", name)
	return nil
}

// withCookie returns a fresh client that carries only ck.
func (e *testEnv) withCookie(t *testing.T, ck *http.Cookie) *http.Client {
	t.Helper()
	c := e.client(t)
	u, err := url.Parse(e.srv.URL)
	require.NoError(t, err)
	c.Jar.SetCookies(u, []*http.Cookie{{Name: ck.Name, Value: ck.Value, Path: "/"}})
	return c
}

func TestLogin_IssuesNewSessionID(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	env.createUser(t, "a@example.com", "pw", false)

	code, _ := status(env.get(t, c, "/dashboard"))
	require.Equal(t, http.StatusSeeOther, code)
	before := env.cookieOf(t, c, UserSessionName)

	code, loc := status(env.postForm(t, c, "/login", url.Values{"email": {"a@example.com"}, "password": {"pw"}}))
	require.Equal(t, http.StatusSeeOther, code)
	require.Equal(t, "/dashboard", loc)
	after := env.cookieOf(t, c, UserSessionName)
	assert.NotEqual(t, before.Value, after.Value)

	code, _ = status(env.get(t, c, "/dashboard"))
	assert.Equal(t, http.StatusOK, code)

	code, loc = status(env.get(t, env.withCookie(t, before), "/dashboard"))
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/login", loc)
}
