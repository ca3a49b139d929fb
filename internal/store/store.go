package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"ContactDesk/internal/models"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrUsernameTaken = errors.New("store: username already taken")
	ErrEmailTaken    = errors.New("store: email already registered")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so the same store can run
// reads off the pool and writes inside a request transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db DBTX
}

func New(db DBTX) *Store {
	return &Store{db: db}
}

// CreateUser inserts a new user and fills in the generated id. A violated
// uniqueness constraint comes back as ErrUsernameTaken or ErrEmailTaken so
// callers can surface it as a validation error.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (username, email, password_hash)
	          VALUES ($1, $2, $3)
	          RETURNING id`

	err := s.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash).Scan(&u.ID)
	if err != nil {
		if taken := uniqueViolation(err); taken != nil {
			return taken
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, email, password_hash FROM users
	          WHERE username = $1`

	u := &models.User{}
	err := s.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// CreateContact inserts a contact submission and fills in the generated id.
func (s *Store) CreateContact(ctx context.Context, c *models.Contact) error {
	query := `INSERT INTO contacts (name, email, phone, website, message)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	err := s.db.QueryRowContext(ctx, query, c.Name, c.Email, c.Phone, c.Website, c.Message).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// uniqueViolation maps a Postgres 23505 to the matching sentinel, or nil when
// the error is something else.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	if strings.Contains(pqErr.Constraint, "email") {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}
