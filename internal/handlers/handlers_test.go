package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ContactDesk/internal/auth"
	mw "ContactDesk/internal/middleware"
	"ContactDesk/internal/sessions"
)

const sessionCookieName = "app_session"

func newTestApp(t *testing.T) (http.Handler, sqlmock.Sqlmock, *sessions.Manager) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sm := sessions.NewManager("test-secret", false)
	h, err := New(db, sm, zap.NewNop(), filepath.Join("..", "..", "web", "templates"))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(mw.Recoverer(zap.NewNop(), h.ServerErrorPage))
	r.Get("/", h.Home)
	r.Get("/register", h.ShowRegisterForm)
	r.Post("/register", h.HandleRegister)
	r.Get("/login", h.ShowLoginForm)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	r.Group(func(g chi.Router) {
		g.Use(mw.RequireUser(sm))
		g.Get("/contact", h.ShowContactForm)
		g.Post("/contact", h.HandleContact)
	})
	r.NotFound(h.NotFoundPage)

	return r, mock, sm
}

// newSession mints a session cookie and its CSRF token, optionally with a
// logged-in user id, mimicking what a browser holds after loading a form.
func newSession(t *testing.T, sm *sessions.Manager, userID int) (*http.Cookie, string) {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if userID > 0 {
		require.NoError(t, sm.SetUserID(w, r, userID))
	}
	token, err := sm.CSRFToken(w, r)
	require.NoError(t, err)

	var last *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			last = c
		}
	}
	require.NotNil(t, last)
	return last, token
}

func get(app http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func postForm(app http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func registrationForm(token string) url.Values {
	return url.Values{
		"csrf_token":       {token},
		"username":         {"alice"},
		"email":            {"alice@example.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	}
}

func contactForm(token string) url.Values {
	return url.Values{
		"csrf_token": {token},
		"name":       {"Bob"},
		"email":      {"bob@example.com"},
		"message":    {"hi"},
	}
}

func TestHomePage(t *testing.T) {
	app, _, _ := newTestApp(t)

	w := get(app, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome to ContactDesk")
}

func TestRegisterFormRenders(t *testing.T) {
	app, _, _ := newTestApp(t)

	w := get(app, "/register")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="csrf_token"`)
}

func TestRegisterSuccess(t *testing.T) {
	app, mock, sm := newTestApp(t)
	cookie, token := newSession(t, sm, 0)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	w := postForm(app, "/register", registrationForm(token), cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterValidationErrorDoesNotTouchStore(t *testing.T) {
	app, mock, sm := newTestApp(t)
	cookie, token := newSession(t, sm, 0)

	form := registrationForm(token)
	form.Set("password", "abc")
	form.Set("confirm_password", "abc")

	w := postForm(app, "/register", form, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Password must be at least 6 characters.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterCSRFMismatch(t *testing.T) {
	app, mock, sm := newTestApp(t)
	cookie, _ := newSession(t, sm, 0)

	w := postForm(app, "/register", registrationForm("forged"), cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "The form has expired.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateUsername(t *testing.T) {
	app, mock, sm := newTestApp(t)
	cookie, token := newSession(t, sm, 0)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})
	mock.ExpectRollback()

	w := postForm(app, "/register", registrationForm(token), cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "That username is already taken.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterStoreFaultRendersGeneric500(t *testing.T) {
	app, mock, sm := newTestApp(t)
	cookie, token := newSession(t, sm, 0)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	w := postForm(app, "/register", registrationForm(token), cookie)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something Went Wrong")
	assert.NotContains(t, w.Body.String(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginSuccessSetsSession(t *testing.T) {
	app, mock, sm := newTestApp(t)
	cookie, token := newSession(t, sm, 0)

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, username, email, password_hash FROM users").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash"}).
			AddRow(7, "alice", "alice@example.com", hash))

	form := url.Values{
		"csrf_token": {token},
		"username":   {"alice"},
		"password":   {"secret1"},
	}
	w := postForm(app, "/login", form, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/contact", w.Header().Get("Location"))

	var last *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			last = c
		}
	}
	require.NotNil(t, last)
	follow := httptest.NewRequest(http.MethodGet, "/", nil)
	follow.AddCookie(last)
	id, ok := sm.UserID(follow)
	assert.True(t, ok)
	assert.Equal(t, 7, id)
}

func TestLoginWrongPassword(t *testing.T) {
	app, mock, sm := newTestApp(t)
	cookie, token := newSession(t, sm, 0)

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, username, email, password_hash FROM users").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash"}).
			AddRow(7, "alice", "alice@example.com", hash))

	form := url.Values{
		"csrf_token": {token},
		"username":   {"alice"},
		"password":   {"wrong"},
	}
	w := postForm(app, "/login", form, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Login failed. Check username and password.")
	// the re-rendered form is fresh: the submitted username is not echoed
	assert.NotContains(t, w.Body.String(), `value="alice"`)

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			follow := httptest.NewRequest(http.MethodGet, "/", nil)
			follow.AddCookie(c)
			_, ok := sm.UserID(follow)
			assert.False(t, ok)
		}
	}
}

func TestLoginUnknownUserSameMessage(t *testing.T) {
	app, mock, sm := newTestApp(t)
	cookie, token := newSession(t, sm, 0)

	mock.ExpectQuery("SELECT id, username, email, password_hash FROM users").
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	form := url.Values{
		"csrf_token": {token},
		"username":   {"nobody"},
		"password":   {"whatever"},
	}
	w := postForm(app, "/login", form, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Login failed. Check username and password.")
}

func TestContactRequiresSession(t *testing.T) {
	app, _, _ := newTestApp(t)

	w := get(app, "/contact")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestContactFormRendersWhenLoggedIn(t *testing.T) {
	app, _, sm := newTestApp(t)
	cookie, _ := newSession(t, sm, 7)

	w := get(app, "/contact", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Contact Us")
}

func TestContactSubmit(t *testing.T) {
	app, mock, sm := newTestApp(t)
	cookie, token := newSession(t, sm, 7)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO contacts").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	w := postForm(app, "/contact", contactForm(token), cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactMissingMessageDoesNotInsert(t *testing.T) {
	app, mock, sm := newTestApp(t)
	cookie, token := newSession(t, sm, 7)

	form := contactForm(token)
	form.Set("message", "")

	w := postForm(app, "/contact", form, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Message is required.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterPaddedUsernameRejected(t *testing.T) {
	app, mock, sm := newTestApp(t)
	cookie, token := newSession(t, sm, 0)

	form := registrationForm(token)
	form.Set("username", "  ab  ")

	w := postForm(app, "/register", form, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Username must be between 4 and 20 characters.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterPaddedUsernameStoredTrimmed(t *testing.T) {
	app, mock, sm := newTestApp(t)
	cookie, token := newSession(t, sm, 0)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	form := registrationForm(token)
	form.Set("username", "  alice  ")
	form.Set("email", "  alice@example.com  ")

	w := postForm(app, "/register", form, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewFailsOnMissingTemplates(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = New(db, sessions.NewManager("test-secret", false), zap.NewNop(), t.TempDir())
	assert.Error(t, err)
}

func TestLogoutClearsSession(t *testing.T) {
	app, _, sm := newTestApp(t)
	cookie, token := newSession(t, sm, 7)

	w := postForm(app, "/logout", url.Values{"csrf_token": {token}}, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	var last *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			last = c
		}
	}
	require.NotNil(t, last)
	follow := httptest.NewRequest(http.MethodGet, "/", nil)
	follow.AddCookie(last)
	_, ok := sm.UserID(follow)
	assert.False(t, ok)
}

func TestLogoutForgedTokenKeepsSession(t *testing.T) {
	app, _, sm := newTestApp(t)
	cookie, _ := newSession(t, sm, 7)

	w := postForm(app, "/logout", url.Values{"csrf_token": {"forged"}}, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	// the session cookie still authenticates
	follow := httptest.NewRequest(http.MethodGet, "/", nil)
	follow.AddCookie(cookie)
	id, ok := sm.UserID(follow)
	assert.True(t, ok)
	assert.Equal(t, 7, id)
}

func TestUnknownPathRendersGeneric404(t *testing.T) {
	app, _, _ := newTestApp(t)

	w := get(app, "/definitely-not-a-page")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page Not Found")
	assert.NotContains(t, w.Body.String(), "definitely-not-a-page")
}
