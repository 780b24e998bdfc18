package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/field-report/internal/service"
)

// LoginService is the part of service.AuthService the handler needs.
type LoginService interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
}

// AuthHandler serves the login endpoint.
type AuthHandler struct {
	auth   LoginService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth LoginService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// HandleLogin authenticates a user, creating the account on first login.
//
// HTTP: POST /v1/login
// REQUEST BODY: {"username": "budi", "password": "rahasia"}
// RESPONSE DATA: {"token": "<64 hex chars>", "username": "budi"}
//
// Each successful login issues a new token; the previous one stops working.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	writeSuccess(w, "Login berhasil", loginResponse{
		Token:    result.Token,
		Username: result.User.Username,
	})
}
