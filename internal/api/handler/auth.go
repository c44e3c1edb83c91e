package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/docqr/docqr/internal/api/middleware"
	"github.com/docqr/docqr/internal/api/response"
	"github.com/docqr/docqr/internal/api/validation"
	"github.com/docqr/docqr/internal/auth"
)

const maxBodyBytes = 1 << 20

const (
	msgInvalidJSON        = "El cuerpo de la solicitud debe ser JSON válido"
	msgValidationFailed   = "Los datos proporcionados no son válidos"
	msgInvalidCredentials = "Credenciales inválidas"
	msgUserInactive       = "Usuario inactivo"
	msgLoggedOut          = "Sesión cerrada"
	msgPasswordUpdated    = "Contraseña actualizada"
	msgWrongPassword      = "La contraseña actual es incorrecta"
	msgSamePassword       = "La nueva contraseña debe ser distinta de la actual"
	msgUserNotFound       = "Usuario no encontrado"
	timestampLayout       = "2006-01-02T15:04:05Z"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	User      userResponse `json:"user"`
}

func toUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.UTC().Format(timestampLayout),
	}
}

// AuthHandler handles the session endpoints under /auth.
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fieldErrors := validation.ValidateLoginRequest(validation.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusUnprocessableEntity, msgValidationFailed, fieldErrors)
		return
	}

	u, token, err := h.authService.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			response.Err(w, http.StatusUnauthorized, msgInvalidCredentials)
		case errors.Is(err, auth.ErrUserInactive):
			response.Err(w, http.StatusForbidden, msgUserInactive)
		default:
			middleware.Logger(r.Context()).Error("login failed", "error", err)
			response.Err(w, http.StatusInternalServerError, middleware.MsgInternalError)
		}
		return
	}

	middleware.Logger(r.Context()).Info("user logged in", "userId", u.ID)

	response.Success(w, http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "Bearer",
		User:      toUserResponse(u),
	})
}

// Logout handles POST /auth/logout. Tokens are stateless, so there is
// nothing to revoke server side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	response.Message(w, http.StatusOK, msgLoggedOut)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Err(w, http.StatusUnauthorized, middleware.MsgMissingToken)
		return
	}

	u, err := h.authService.Profile(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			response.Err(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		middleware.Logger(r.Context()).Error("failed to load profile", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, middleware.MsgInternalError)
		return
	}

	response.Success(w, http.StatusOK, toUserResponse(u))
}

// ChangePassword handles PUT /auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Err(w, http.StatusUnauthorized, middleware.MsgMissingToken)
		return
	}

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fieldErrors := validation.ValidateChangePasswordRequest(validation.ChangePasswordRequest{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusUnprocessableEntity, msgValidationFailed, fieldErrors)
		return
	}

	err := h.authService.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		middleware.Logger(r.Context()).Info("password changed", "userId", identity.UserID)
		response.Message(w, http.StatusOK, msgPasswordUpdated)
	case errors.Is(err, auth.ErrWrongPassword):
		response.ErrWithDetails(w, http.StatusUnprocessableEntity, msgWrongPassword, []validation.FieldError{
			{Field: "current_password", Message: msgWrongPassword},
		})
	case errors.Is(err, auth.ErrSamePassword):
		response.ErrWithDetails(w, http.StatusUnprocessableEntity, msgSamePassword, []validation.FieldError{
			{Field: "new_password", Message: msgSamePassword},
		})
	case errors.Is(err, auth.ErrUserNotFound):
		response.Err(w, http.StatusNotFound, msgUserNotFound)
	default:
		middleware.Logger(r.Context()).Error("failed to change password", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, middleware.MsgInternalError)
	}
}

// decodeJSON reads a bounded JSON body into dst and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Err(w, http.StatusBadRequest, msgInvalidJSON)
		return false
	}
	return true
}
