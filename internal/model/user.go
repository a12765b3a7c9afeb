package model

import "time"

// User represents an application user record as stored in the `users`
// table.  PasswordHash never leaves the service layer; handlers render
// users through their own response types.
type User struct {
	ID           string    // users.id (UUID)
	Email        string    // users.email, stored lower-cased
	Nickname     string    // users.nickname, the display name
	PasswordHash string    // users.password_hash (bcrypt)
	CreatedAt    time.Time // users.created_at
}
