// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a field reporter account.
//
// Accounts are created on first login (see service.AuthService.Login), so the
// username is the only external identifier. TokenHash is the hex SHA-256 of
// the current bearer token; the plaintext token is only ever returned once,
// in the login response.
type User struct {
	ID           string    `json:"id"         db:"id"`
	Username     string    `json:"username"   db:"username"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	TokenHash    string    `json:"-"          db:"token_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
