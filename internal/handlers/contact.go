package handlers

import (
	"database/sql"
	"net/http"

	"ContactDesk/internal/forms"
	"ContactDesk/internal/models"
	"ContactDesk/internal/store"
)

// Contact routes sit behind middleware.RequireUser; by the time these run
// the session holds a user id.

func (h *Handler) ShowContactForm(w http.ResponseWriter, r *http.Request) {
	h.renderContact(w, r, nil, nil)
}

func (h *Handler) HandleContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderContact(w, r, map[string]string{forms.TokenField: "The form could not be read."}, nil)
		return
	}

	token, err := h.sess.CSRFToken(w, r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	trimFields(r.PostForm, "name", "email", "phone", "website", "message")
	ok, errs := forms.Contact.Validate(r.PostForm, token)
	if _, forged := errs[forms.TokenField]; forged {
		h.logCSRFFailure(r)
	}
	if !ok {
		h.renderContact(w, r, errs, formValues(r))
		return
	}

	ctx := r.Context()
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	defer tx.Rollback()

	contact := &models.Contact{
		Name:    r.PostForm.Get("name"),
		Email:   r.PostForm.Get("email"),
		Phone:   nullable(r.PostForm.Get("phone")),
		Website: nullable(r.PostForm.Get("website")),
		Message: r.PostForm.Get("message"),
	}
	if err := store.New(tx).CreateContact(ctx, contact); err != nil {
		h.serverError(w, r, err)
		return
	}
	if err := tx.Commit(); err != nil {
		h.serverError(w, r, err)
		return
	}

	_ = h.sess.AddFlash(w, r, "success", "Your contact details have been submitted!")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) renderContact(w http.ResponseWriter, r *http.Request, errs, values map[string]string) {
	h.render(w, r, http.StatusOK, "contact.html", map[string]any{
		"Title":  "Contact",
		"Errors": errs,
		"Form":   values,
	})
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
