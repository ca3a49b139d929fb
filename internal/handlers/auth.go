package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ContactDesk/internal/auth"
	"ContactDesk/internal/forms"
	"ContactDesk/internal/models"
	"ContactDesk/internal/store"
)

func (h *Handler) ShowRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.renderRegister(w, r, nil, nil)
}

// HandleRegister hashes the password and inserts the user inside a request
// transaction. A lost uniqueness race surfaces as an inline field error,
// same as a sequential duplicate.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderRegister(w, r, map[string]string{forms.TokenField: "The form could not be read."}, nil)
		return
	}

	token, err := h.sess.CSRFToken(w, r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	// Validate the same normalized values that get stored; a padded
	// username must not slip under the length rules.
	trimFields(r.PostForm, "username", "email")
	ok, errs := forms.Registration.Validate(r.PostForm, token)
	if _, forged := errs[forms.TokenField]; forged {
		h.logCSRFFailure(r)
	}
	if !ok {
		h.renderRegister(w, r, errs, formValues(r))
		return
	}

	hash, err := auth.HashPassword(r.PostForm.Get("password"))
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	ctx := r.Context()
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	defer tx.Rollback()

	user := &models.User{
		Username:     r.PostForm.Get("username"),
		Email:        r.PostForm.Get("email"),
		PasswordHash: hash,
	}
	if err := store.New(tx).CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrUsernameTaken):
			errs = map[string]string{"username": "That username is already taken."}
		case errors.Is(err, store.ErrEmailTaken):
			errs = map[string]string{"email": "That email is already registered."}
		default:
			h.serverError(w, r, err)
			return
		}
		h.renderRegister(w, r, errs, formValues(r))
		return
	}
	if err := tx.Commit(); err != nil {
		h.serverError(w, r, err)
		return
	}

	_ = h.sess.AddFlash(w, r, "success", "Registration successful! Please log in.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) ShowLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, nil)
}

// HandleLogin checks the credentials against the stored hash. Unknown user
// and wrong password get the same flashed message, so the response does not
// reveal which usernames exist.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, map[string]string{forms.TokenField: "The form could not be read."})
		return
	}

	token, err := h.sess.CSRFToken(w, r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	trimFields(r.PostForm, "username")
	ok, errs := forms.Login.Validate(r.PostForm, token)
	if _, forged := errs[forms.TokenField]; forged {
		h.logCSRFFailure(r)
	}
	if !ok {
		h.renderLogin(w, r, errs)
		return
	}

	user, err := h.store.FindUserByUsername(r.Context(), r.PostForm.Get("username"))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.serverError(w, r, err)
		return
	}

	if user == nil || !auth.CheckPassword(r.PostForm.Get("password"), user.PasswordHash) {
		// The form comes back fresh; the submitted username is not echoed.
		_ = h.sess.AddFlash(w, r, "danger", "Login failed. Check username and password.")
		h.renderLogin(w, r, nil)
		return
	}

	if err := h.sess.SetUserID(w, r, user.ID); err != nil {
		h.serverError(w, r, err)
		return
	}
	_ = h.sess.AddFlash(w, r, "success", "Login successful!")
	http.Redirect(w, r, "/contact", http.StatusFound)
}

// HandleLogout checks the anti-forgery token before dropping the session, so
// a forged cross-site POST cannot log the user out.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	token, err := h.sess.CSRFToken(w, r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if ok, _ := forms.Logout.Validate(r.PostForm, token); !ok {
		h.logCSRFFailure(r)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if err := h.sess.ClearUserID(w, r); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) renderRegister(w http.ResponseWriter, r *http.Request, errs, values map[string]string) {
	h.render(w, r, http.StatusOK, "register.html", map[string]any{
		"Title":  "Register",
		"Errors": errs,
		"Form":   values,
	})
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, errs map[string]string) {
	h.render(w, r, http.StatusOK, "login.html", map[string]any{
		"Title":  "Login",
		"Errors": errs,
	})
}

func (h *Handler) logCSRFFailure(r *http.Request) {
	h.logger.Warn("csrf token mismatch",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_addr", r.RemoteAddr),
	)
}
