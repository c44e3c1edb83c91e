package handler

import (
	"net/http"

	"github.com/docqr/docqr/internal/api/middleware"
	"github.com/docqr/docqr/internal/api/response"
	"github.com/docqr/docqr/internal/auth"
)

// UserHandler handles the user listing endpoint.
type UserHandler struct {
	userRepo auth.UserRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userRepo auth.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.List(r.Context())
	if err != nil {
		middleware.Logger(r.Context()).Error("failed to list users", "error", err)
		response.Err(w, http.StatusInternalServerError, middleware.MsgInternalError)
		return
	}

	items := make([]userResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}

	response.Success(w, http.StatusOK, items)
}
