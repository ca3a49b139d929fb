package sessions

import (
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gorilla/securecookie"
)

const csrfTokenKey = "csrf_token"

var errTokenGeneration = errors.New("sessions: csrf token generation failed")

// CSRFToken returns the session's anti-forgery token, minting and persisting
// one on first use. The token only ever travels inside the signed, encrypted
// session cookie and the rendered form.
func (m *Manager) CSRFToken(w http.ResponseWriter, r *http.Request) (string, error) {
	s := m.get(r)
	if tok, ok := s.Values[csrfTokenKey].(string); ok && tok != "" {
		return tok, nil
	}

	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return "", errTokenGeneration
	}
	tok := hex.EncodeToString(key)
	s.Values[csrfTokenKey] = tok
	if err := s.Save(r, w); err != nil {
		return "", err
	}
	return tok, nil
}
