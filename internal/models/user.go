package models

// User — a registered account. PasswordHash holds the bcrypt hash; the
// plaintext password is never stored.
type User struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
}
