// Package auth provides bearer token issuance, password hashing, and the
// HTTP middleware that resolves a bearer token to a user.
//
// TOKEN FLOW:
//  1. POST /v1/login returns a fresh opaque token (64 hex chars).
//  2. Only SHA-256(token) is stored, in users.token_hash.
//  3. Protected requests send "Authorization: Bearer <token>"; the middleware
//     hashes it and looks the user up by hash.
//  4. The next login replaces the hash, so the previous token stops working.
//
// Tokens carry no claims and never expire; revocation is rotation.
//
// WHY HASH TOKENS AT REST?
// A bearer token is a password the server chose. If users.token_hash held
// the plaintext, anyone with a copy of the database file (a backup, a
// leaked volume) could act as every user until they next log in. With only
// SHA-256(token) stored, the copy is useless for requests.
//
// SHA-256 and not bcrypt: the token already has 256 bits of randomness, so
// there is nothing to brute-force and a slow hash would only add latency to
// every authenticated request. A fast, deterministic hash also lets the
// lookup be a plain indexed equality (WHERE token_hash = ?).
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// TokenBytes is the amount of randomness in each token (256 bits).
const TokenBytes = 32

// TokenService generates opaque bearer tokens and derives their storage hash.
type TokenService struct {
	random io.Reader
}

// NewTokenService creates a TokenService reading from crypto/rand.
func NewTokenService() *TokenService {
	return &TokenService{random: rand.Reader}
}

// Generate returns a new hex-encoded token together with the hash to persist.
func (s *TokenService) Generate() (token, hash string, err error) {
	buf := make([]byte, TokenBytes)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", "", fmt.Errorf("auth: reading random bytes: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, s.Hash(token), nil
}

// Hash returns the hex SHA-256 of token. A fast hash is enough here: the
// input is 256 random bits, not a guessable password.
func (s *TokenService) Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
