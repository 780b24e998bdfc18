// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → decodes requests, writes the JSON envelope
//	Service (business layer) → validates input, enforces rules, orchestrates
//	Repository (data layer)  → runs SQL
//
// Services accept plain Go values and return apperror values; they never see
// an *http.Request or a status code.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/field-report/internal/apperror"
	"github.com/sakif/field-report/internal/auth"
	"github.com/sakif/field-report/internal/model"
	"github.com/sakif/field-report/internal/repository"
)

// AuthService handles login (upsert-on-login) and bearer token resolution.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → read/write user records
//   - tokens     *auth.TokenService        → opaque token generation + hashing
//   - passwords  *auth.PasswordService     → bcrypt
//   - logger     *slog.Logger
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// compile-time check that AuthService can back auth.RequireAuth
var _ auth.Authenticator = (*AuthService)(nil)

// LoginResult bundles the user and the plaintext token issued by Login.
// The token is not recoverable afterwards; only its hash is stored.
type LoginResult struct {
	User    *model.User
	Token   string
	Created bool // true when this login created the account
}

// Login authenticates username/password, creating the account on first sight.
//
//  1. Unknown username → hash the password, issue a token, insert the user.
//     If a concurrent login inserted the same username first, continue with
//     step 2 against the row that won.
//  2. Known username → verify the password. A mismatch is
//     apperror.ErrUnauthorized and leaves the row untouched. A match issues
//     a fresh token and replaces the stored hash, invalidating the old token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "Username dan password wajib")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "Username dan password wajib")
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password maksimal %d byte", auth.MaxPasswordBytes))
	}

	user, err := s.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		result, err := s.register(ctx, username, password)
		if !errors.Is(err, apperror.ErrConflict) {
			return result, err
		}
		// Lost the insert race; the other request's row is now authoritative.
		user, err = s.users.GetByUsername(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("service/auth: reloading user %q after conflict: %w", username, err)
		}
	case err != nil:
		return nil, fmt.Errorf("service/auth: looking up user %q: %w", username, err)
	}

	return s.login(ctx, user, password)
}

func (s *AuthService) register(ctx context.Context, username, password string) (*LoginResult, error) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	token, tokenHash, err := s.tokens.Generate()
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		TokenHash:    tokenHash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user %q: %w", username, err)
	}

	s.logger.Info("user created on first login",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &LoginResult{User: user, Token: token, Created: true}, nil
}

func (s *AuthService) login(ctx context.Context, user *model.User, password string) (*LoginResult, error) {
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected: wrong password", slog.String("username", user.Username))
			return nil, apperror.Unauthorized("Password salah")
		}
		return nil, fmt.Errorf("service/auth: verifying password for %q: %w", user.Username, err)
	}

	token, tokenHash, err := s.tokens.Generate()
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token: %w", err)
	}
	if err := s.users.UpdateTokenHash(ctx, user.ID, tokenHash); err != nil {
		return nil, fmt.Errorf("service/auth: rotating token for user %s: %w", user.ID, err)
	}
	user.TokenHash = tokenHash

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &LoginResult{User: user, Token: token}, nil
}

// Authenticate resolves a plaintext bearer token to its user.
//
// Returns apperror.ErrUnauthorized for an empty or unknown token; any other
// error is a store fault.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperror.Unauthorized("Token diperlukan")
	}

	user, err := s.users.GetByTokenHash(ctx, s.tokens.Hash(token))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("Token tidak valid")
		}
		return nil, fmt.Errorf("service/auth: resolving token: %w", err)
	}
	return user, nil
}
