package user

import "time"

// User is an account holder. A user exists independently of any vessel and is
// linked to vessels through crew memberships.
type User struct {
	ID             string
	Email          string
	PasswordHash   string `json:"-"`
	Name           string
	Institution    string
	Contact        string
	EmailConfirmed bool
	ConfirmCode    string `json:"-"`
	ResetCode      string `json:"-"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
