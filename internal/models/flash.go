package models

// Flash is a one-time notice shown on the next rendered page.
// Category is one of "success", "danger" or "warning".
type Flash struct {
	Category string
	Message  string
}
