package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alextreichler/shop2host/internal/config"
	"github.com/alextreichler/shop2host/internal/media"
	"github.com/alextreichler/shop2host/internal/models"
	"github.com/alextreichler/shop2host/internal/oauth"
	"github.com/alextreichler/shop2host/internal/payment"
	"github.com/alextreichler/shop2host/internal/session"
	"github.com/alextreichler/shop2host/internal/store"
	"github.com/alextreichler/shop2host/web"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) messages() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

// fakeGateway accepts "sig-<order id>" as the only valid signature.
type fakeGateway struct {
	mu     sync.Mutex
	orders int
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(_ context.Context, req payment.OrderRequest) (*payment.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders++
	return &payment.Order{
		ID:       fmt.Sprintf("order_%d", g.orders),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	}, nil
}

func (g *fakeGateway) VerifyPayment(_ context.Context, c payment.Confirmation) error {
	if c.Signature != "sig-"+c.OrderID {
		return fmt.Errorf("%w: signature mismatch", payment.ErrVerification)
	}
	return nil
}

type fakeDomains struct {
	taken map[string]bool
}

func (d fakeDomains) Available(_ context.Context, domain string) bool {
	return !d.taken[domain]
}

// fakeOAuth maps authorization codes to identities.
type fakeOAuth struct {
	identities map[string]*oauth.Identity
}

func (f *fakeOAuth) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (f *fakeOAuth) Identify(_ context.Context, code string) (*oauth.Identity, error) {
	id, ok := f.identities[code]
	if !ok {
		return nil, fmt.Errorf("unknown code %q", code)
	}
	return id, nil
}

type testEnv struct {
	srv       *httptest.Server
	store     *store.Store
	mail      *fakeMailer
	gateway   *fakeGateway
	oauth     *fakeOAuth
	uploadDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	st, err := store.NewStore("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	plans, err := config.LoadPlans("")
	require.NoError(t, err)

	templates := NewTemplateCache()
	require.NoError(t, templates.LoadFS(web.Templates()))

	uploadDir := t.TempDir()
	storage, err := media.NewLocalStorage(uploadDir)
	require.NoError(t, err)

	backend := session.NewSQLBackend(st)
	userKey := []byte("user-session-key-0123456789abcdef")
	adminKey := []byte("admin-session-key-0123456789abcde")

	env := &testEnv{
		store:   st,
		mail:    &fakeMailer{},
		gateway: &fakeGateway{},
		oauth: &fakeOAuth{identities: map[string]*oauth.Identity{
			"allowlisted": {Email: "boss@shop2host.com", EmailVerified: true, Name: "Boss"},
			"stranger":    {Email: "stranger@example.com", EmailVerified: true, Name: "Stranger"},
			"unverified":  {Email: "boss@shop2host.com", EmailVerified: false},
		}},
		uploadDir: uploadDir,
	}

	s := &Server{
		Visitors: &Visitors{Store: st, SessionStore: session.NewStore(backend, time.Hour, userKey)},
		Home:     &HomeHandler{Store: st, Templates: templates, Plans: plans},
		Auth:     &AuthHandler{Store: st, Templates: templates, Mailer: env.mail, BaseURL: "http://shop.test"},
		Wizard: &WizardHandler{
			Templates: templates,
			Plans:     plans,
			Domains:   fakeDomains{taken: map[string]bool{"taken.in": true}},
			Media:     storage,
		},
		Orders:  &OrderHandler{Store: st, Templates: templates, Plans: plans, Gateway: env.gateway, Currency: "INR"},
		Support: &SupportHandler{Store: st, Templates: templates},
		Admin: &AdminHandler{
			Store:        st,
			SessionStore: session.NewStore(backend, time.Hour, adminKey),
			Templates:    templates,
			Mailer:       env.mail,
			BaseURL:      "http://shop.test",
			OAuth:        env.oauth,
			StateKey:     adminKey,
			IsAdminEmail: func(email string) bool { return email == "boss@shop2host.com" },
		},
	}
	env.srv = httptest.NewServer(s.Routes())
	t.Cleanup(env.srv.Close)
	return env
}

// client returns a browser-like client with its own cookie jar that does
// not follow redirects.
func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) get(t *testing.T, c *http.Client, path string) *http.Response {
	t.Helper()
	resp, err := c.Get(e.srv.URL + path)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) postForm(t *testing.T, c *http.Client, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(e.srv.URL+path, form)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) postJSON(t *testing.T, c *http.Client, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := c.Post(e.srv.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (e *testEnv) postMultipart(t *testing.T, c *http.Client, path string, fields map[string]string, fileName string, file []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("logo", fileName)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	resp, err := c.Post(e.srv.URL+path, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// status closes the body and returns the status code with the redirect target.
func status(resp *http.Response) (int, string) {
	resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Location")
}

func (e *testEnv) createUser(t *testing.T, email, password string, admin bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Name:     strings.Split(email, "@")[0],
		Phone:    "9876543210",
		Email:    email,
		Password: string(hash),
		Verified: true,
		IsAdmin:  admin,
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

// login signs a verified user in on c.
func (e *testEnv) login(t *testing.T, c *http.Client, email, password string) {
	t.Helper()
	code, loc := status(e.postForm(t, c, "/login", url.Values{"email": {email}, "password": {password}}))
	require.Equal(t, http.StatusSeeOther, code)
	require.Equal(t, "/dashboard", loc)
}

func (e *testEnv) adminLogin(t *testing.T, c *http.Client, email, password string) {
	t.Helper()
	code, loc := status(e.postForm(t, c, "/admin/login", url.Values{"email": {email}, "password": {password}}))
	require.Equal(t, http.StatusSeeOther, code)
	require.Equal(t, "/admin", loc)
}

func pngLogo(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 400, 200))))
	return buf.Bytes()
}
