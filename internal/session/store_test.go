package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBackend struct {
	mu      sync.Mutex
	records map[string]string
	expiry  map[string]time.Time
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{records: map[string]string{}, expiry: map[string]time.Time{}}
}

func (m *memoryBackend) Load(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.records[id]
	if !ok || time.Now().After(m.expiry[id]) {
		return "", ErrNotFound
	}
	return data, nil
}

func (m *memoryBackend) Save(_ context.Context, id, data string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[id] = data
	m.expiry[id] = expiresAt
	return nil
}

func (m *memoryBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	delete(m.expiry, id)
	return nil
}

func (m *memoryBackend) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

var testKey = []byte("0123456789abcdef0123456789abcdef")

// roundTrip saves values through one request and returns the cookie a
// browser would send back.
func roundTrip(t *testing.T, s *Store, values map[interface{}]interface{}) *http.Cookie {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	sess, err := s.New(r, "sid")
	require.NoError(t, err)
	for k, v := range values {
		sess.Values[k] = v
	}
	require.NoError(t, s.Save(r, w, sess))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestStore_PersistsValuesServerSide(t *testing.T) {
	backend := newMemoryBackend()
	s := NewStore(backend, time.Hour, testKey)

	cookie := roundTrip(t, s, map[interface{}]interface{}{"user_id": int64(7)})
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.Equal(t, 1, backend.len())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	sess, err := s.New(r, "sid")
	require.NoError(t, err)
	assert.False(t, sess.IsNew)
	assert.Equal(t, int64(7), sess.Values["user_id"])
}

func TestStore_EmptyNewSessionIsNotPersisted(t *testing.T) {
	backend := newMemoryBackend()
	s := NewStore(backend, time.Hour, testKey)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	sess, err := s.New(r, "sid")
	require.NoError(t, err)
	require.NoError(t, s.Save(r, w, sess))

	assert.Empty(t, w.Result().Cookies())
	assert.Zero(t, backend.len())
}

func TestStore_MissingRecordStartsFresh(t *testing.T) {
	backend := newMemoryBackend()
	s := NewStore(backend, time.Hour, testKey)
	cookie := roundTrip(t, s, map[interface{}]interface{}{"k": "v"})

	for id := range backend.records {
		require.NoError(t, backend.Delete(context.Background(), id))
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	sess, err := s.New(r, "sid")
	require.NoError(t, err)
	assert.True(t, sess.IsNew)
	assert.Empty(t, sess.ID)
	assert.Empty(t, sess.Values)
}

func TestStore_TamperedCookieIsRejected(t *testing.T) {
	s := NewStore(newMemoryBackend(), time.Hour, testKey)
	cookie := roundTrip(t, s, map[interface{}]interface{}{"k": "v"})

	other := NewStore(newMemoryBackend(), time.Hour, []byte("ffffffffffffffffffffffffffffffff"))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	sess, err := other.New(r, "sid")
	assert.Error(t, err)
	assert.True(t, sess.IsNew)
}

func TestStore_NegativeMaxAgeDestroys(t *testing.T) {
	backend := newMemoryBackend()
	s := NewStore(backend, time.Hour, testKey)
	cookie := roundTrip(t, s, map[interface{}]interface{}{"user_id": int64(1)})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	sess, err := s.New(r, "sid")
	require.NoError(t, err)
	sess.Options.MaxAge = -1
	require.NoError(t, s.Save(r, w, sess))

	assert.Zero(t, backend.len())
	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestRenew_IssuesNewID(t *testing.T) {
	backend := newMemoryBackend()
	s := NewStore(backend, time.Hour, testKey)
	cookie := roundTrip(t, s, map[interface{}]interface{}{"originalUrl": "/dashboard"})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	sess, err := s.New(r, "sid")
	require.NoError(t, err)
	oldID := sess.ID

	require.NoError(t, Renew(r, sess))
	assert.Empty(t, sess.ID)
	assert.Zero(t, backend.len())

	sess.Values["user_id"] = int64(9)
	require.NoError(t, s.Save(r, w, sess))
	assert.NotEqual(t, oldID, sess.ID)
	assert.Equal(t, 1, backend.len())
	assert.Equal(t, "/dashboard", sess.Values["originalUrl"])

	// The old cookie no longer resolves.
	stale := httptest.NewRequest(http.MethodGet, "/", nil)
	stale.AddCookie(cookie)
	old, err := s.New(stale, "sid")
	require.NoError(t, err)
	assert.True(t, old.IsNew)
	assert.Empty(t, old.Values)
}

type fakePurger struct {
	calls int
	err   error
}

func (f *fakePurger) DeleteExpiredSessions(context.Context) (int64, error) {
	f.calls++
	return 3, f.err
}

func TestSchedulePurge(t *testing.T) {
	c := cron.New()
	p := &fakePurger{}

	id, err := SchedulePurge(c, p, 10*time.Minute)
	require.NoError(t, err)

	entry := c.Entry(id)
	require.True(t, entry.Valid())
	entry.Job.Run()
	assert.Equal(t, 1, p.calls)

	p.err = errors.New("db down")
	entry.Job.Run()
	assert.Equal(t, 2, p.calls)
}
