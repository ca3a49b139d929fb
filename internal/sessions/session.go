package sessions

import (
	"crypto/sha256"
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"

	"ContactDesk/internal/models"
)

const (
	sessionName = "app_session"
	userIDKey   = "user_id"
)

func init() {
	// Flash structs travel inside the gob-encoded cookie.
	gob.Register(models.Flash{})
}

// Manager wraps the cookie store. It is constructed once and passed into the
// handlers; there is no package-level session state.
type Manager struct {
	store *sessions.CookieStore
}

// NewManager derives separate signing and encryption keys from the secret.
// Key lengths match what securecookie expects.
func NewManager(secret string, secure bool) *Manager {
	h := sha256.Sum256([]byte("auth:" + secret))
	e := sha256.Sum256([]byte("enc:" + secret))

	store := sessions.NewCookieStore(h[:], e[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
	return &Manager{store: store}
}

// get decodes the request's session. A tampered or stale cookie yields a
// fresh session rather than an error for the caller.
func (m *Manager) get(r *http.Request) *sessions.Session {
	s, _ := m.store.Get(r, sessionName)
	return s
}

func (m *Manager) SetUserID(w http.ResponseWriter, r *http.Request, id int) error {
	s := m.get(r)
	s.Values[userIDKey] = id
	return s.Save(r, w)
}

func (m *Manager) UserID(r *http.Request) (int, bool) {
	s := m.get(r)
	if v, ok := s.Values[userIDKey].(int); ok {
		return v, true
	}
	return 0, false
}

func (m *Manager) ClearUserID(w http.ResponseWriter, r *http.Request) error {
	s := m.get(r)
	delete(s.Values, userIDKey)
	return s.Save(r, w)
}

// AddFlash queues a one-time notice for the next rendered page.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) error {
	s := m.get(r)
	s.AddFlash(models.Flash{Category: category, Message: message})
	return s.Save(r, w)
}

// Flashes drains the queued notices. The drain is persisted immediately so a
// notice renders exactly once.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []models.Flash {
	s := m.get(r)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = s.Save(r, w)

	out := make([]models.Flash, 0, len(raw))
	for _, f := range raw {
		if fl, ok := f.(models.Flash); ok {
			out = append(out, fl)
		}
	}
	return out
}
