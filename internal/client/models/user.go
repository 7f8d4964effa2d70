// Package models defines the client-side data records exchanged with the
// patient-document API.
package models

// User is the authenticated identity of the current client process.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Credentials is the login request payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupRequest is the account creation payload.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the server's answer to both /login and /signup.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
}
