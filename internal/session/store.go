// Package session implements a gorilla/sessions Store whose values live
// server-side. The browser only holds a signed session id.
package session

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// ErrNotFound is returned by a Backend when a record is missing or expired.
var ErrNotFound = errors.New("session not found")

// Backend persists encoded session records with an expiry.
type Backend interface {
	Load(ctx context.Context, id string) (string, error)
	Save(ctx context.Context, id, data string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// Store is a sessions.Store backed by a Backend.
type Store struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	backend Backend
}

var _ sessions.Store = (*Store)(nil)

// NewStore returns a store whose records live for ttl. keyPairs are passed
// to securecookie as hash/encryption key pairs, as with sessions.NewCookieStore.
func NewStore(backend Backend, ttl time.Duration, keyPairs ...[]byte) *Store {
	s := &Store{
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		backend: backend,
	}
	s.MaxAge(int(ttl / time.Second))
	return s
}

// MaxAge sets the cookie and record lifetime in seconds.
func (s *Store) MaxAge(age int) {
	s.Options.MaxAge = age
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
			// Records are stored server-side, so the 4096 byte cookie limit
			// does not apply to them.
			sc.MaxLength(0)
		}
	}
}

func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New returns the session named by the request cookie, or a fresh one if
// the cookie is absent, invalid or points at an expired record.
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		return session, fmt.Errorf("decode session cookie: %w", err)
	}

	data, err := s.backend.Load(r.Context(), session.ID)
	if errors.Is(err, ErrNotFound) {
		session.ID = ""
		return session, nil
	}
	if err != nil {
		session.ID = ""
		return session, fmt.Errorf("load session: %w", err)
	}
	if err := securecookie.DecodeMulti(name, data, &session.Values, s.Codecs...); err != nil {
		session.ID = ""
		return session, fmt.Errorf("decode session record: %w", err)
	}
	session.IsNew = false
	return session, nil
}

// Save persists the session record and refreshes the cookie. A negative
// MaxAge deletes the record and expires the cookie.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.backend.Delete(ctx, session.ID); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	// Don't hand out records to visitors that never stored anything.
	if session.IsNew && session.ID == "" && len(session.Values) == 0 {
		return nil
	}

	if session.ID == "" {
		session.ID = strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
	}

	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	expiresAt := time.Now().Add(time.Duration(session.Options.MaxAge) * time.Second)
	if err := s.backend.Save(ctx, session.ID, data, expiresAt); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Renew drops the record behind session and clears its id, so the next
// Save issues a new one. Values are kept. Sessions from other stores are
// left untouched.
func Renew(r *http.Request, session *sessions.Session) error {
	s, ok := session.Store().(*Store)
	if !ok || session.ID == "" {
		return nil
	}
	if err := s.backend.Delete(r.Context(), session.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	session.ID = ""
	session.IsNew = true
	return nil
}
