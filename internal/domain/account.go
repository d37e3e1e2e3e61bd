package domain

import "time"

// Account represents an authenticated caller. Accounts are created on first
// authentication and are immutable afterwards; the engine never deletes them.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
