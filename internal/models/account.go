package models

import "time"

// Account is a registered user of the dashboard.
type Account struct {
	ID           string    `json:"id"`       // UUID, bound into session tokens
	Username     string    `json:"username"` // unique handle
	Email        string    `json:"email"`    // unique, stored lower-cased
	DisplayName  string    `json:"display_name,omitempty"`
	PasswordHash string    `json:"-"` // self-describing digest, never serialized
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
