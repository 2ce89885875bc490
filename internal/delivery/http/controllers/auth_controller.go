package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "waitlist/internal/delivery/http/helpers"
	"waitlist/internal/domain"
)

// TokenRequest is the request body for POST /auth/token
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (l TokenRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(l.Email) == "" {
		errs = append(errs, "email is required")
	}
	if l.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// TokenResponse is the response body for POST /auth/token
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

type AuthController struct {
	Logger        *slog.Logger
	Authenticator domain.OperatorAuthenticator
}

func NewAuthController(logger *slog.Logger, authn domain.OperatorAuthenticator) *AuthController {
	return &AuthController{
		Logger:        logger,
		Authenticator: authn,
	}
}

// Token godoc
// @Summary Issue an operator token
// @Description Exchange the operator email and password for a bearer JWT used by the management endpoints.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body TokenRequest true "Operator credentials"
// @Success 200 {object} helpers.APIResponse "data contains token and token_type"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/token [post]
func (c *AuthController) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	token, err := c.Authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid credentials")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal error")
		return
	}

	h.WriteJSONSuccess(w, http.StatusOK, TokenResponse{Token: token, TokenType: "Bearer"})
}
