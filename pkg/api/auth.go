// Package api holds the JSON request and response bodies shared by the server and the CLI client.
package api

import "time"

// RegisterRequest is the body of POST /api/v1/auth/register.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// LoginRequest is the body of POST /api/v1/auth/login.
// Identifier is a username or an email. UsernameOrEmail (the dashboard's
// field name), Username and Email are accepted as fallbacks.
type LoginRequest struct {
	Identifier      string `json:"identifier,omitempty"`
	UsernameOrEmail string `json:"usernameOrEmail,omitempty"`
	Username        string `json:"username,omitempty"`
	Email           string `json:"email,omitempty"`
	Password        string `json:"password"`
}

// LoginIdentifier returns the first non-empty identifier field.
func (r LoginRequest) LoginIdentifier() string {
	switch {
	case r.Identifier != "":
		return r.Identifier
	case r.UsernameOrEmail != "":
		return r.UsernameOrEmail
	case r.Username != "":
		return r.Username
	default:
		return r.Email
	}
}

// AuthResponse is returned by a successful register or login.
type AuthResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
	Token     string    `json:"token"` // opaque session token
	Username  string    `json:"username"`
	AccountID string    `json:"account_id"`
	Success   bool      `json:"success"`
}

// ChangePasswordRequest is the body of PUT /api/v1/users/me/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Account is the public view of an account.
type Account struct {
	CreatedAt   time.Time `json:"created_at"`
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
}

// ProfileResponse is returned by GET /api/v1/users/me.
type ProfileResponse struct {
	Account Account `json:"account"`
	Success bool    `json:"success"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`             // HTTP status text
	Message string `json:"message,omitempty"` // client-safe detail
	Success bool   `json:"success"`           // always false
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
