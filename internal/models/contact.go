package models

import "database/sql"

// Contact — a message submitted through the contact form. Phone and Website
// are optional and may be NULL in the table.
type Contact struct {
	ID      int
	Name    string
	Email   string
	Phone   sql.NullString
	Website sql.NullString
	Message string
}
