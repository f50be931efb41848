package identity

import (
	"encoding/json"
	"net/http"

	"github.com/bissquit/worknotes/internal/authz"
	"github.com/bissquit/worknotes/internal/domain"
	"github.com/bissquit/worknotes/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = append([]httputil.ErrorMapping{
	{Error: ErrUsernameExists, Status: http.StatusBadRequest},
	{Error: ErrInvalidCredentials, Status: http.StatusUnauthorized},
	{Error: domain.ErrUserNotFound, Status: http.StatusBadRequest},
}, httputil.AuthErrorMappings...)

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers public identity routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/users", h.Register)
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/users", h.ListUsers)
	r.Post("/users/manager", h.CreateUser)
	r.Get("/users/{id}", h.GetUser)
	r.Put("/users/{id}", h.UpdateUser)
	r.Delete("/users/{id}", h.DeleteUser)
}

// RegisterRequest represents registration request body.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=255"`
	Password string `json:"password" validate:"required,min=3"`
	Name     string `json:"name" validate:"max=255"`
	Hours    int    `json:"hours" validate:"required,min=1,max=24"`
}

// Register handles POST /users.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, user)
}

// CreateUserRequest represents the body of POST /users/manager.
type CreateUserRequest struct {
	Username string       `json:"username" validate:"required,min=3,max=255"`
	Password string       `json:"password" validate:"required,min=3"`
	Name     string       `json:"name" validate:"max=255"`
	Hours    int          `json:"hours" validate:"required,min=1,max=24"`
	Status   *domain.Role `json:"status" validate:"omitempty,min=0,max=2"`
}

// CreateUser handles POST /users/manager.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), authz.IdentityFromContext(r.Context()), CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Hours:    req.Hours,
		Role:     req.Status,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, user)
}

// LoginRequest represents login request body.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents login response.
type LoginResponse struct {
	Token    string      `json:"token"`
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Hours    int         `json:"hours"`
	Status   domain.Role `json:"status"`
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, token, err := h.service.Login(r.Context(), LoginInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, LoginResponse{
		Token:    token,
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Hours:    user.Hours,
		Status:   user.Role,
	})
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context(), authz.IdentityFromContext(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, users)
}

// GetUser handles GET /users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), authz.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// UpdateUserRequest represents the body of PUT /users/{id}. Omitted fields are kept.
type UpdateUserRequest struct {
	Username *string      `json:"username" validate:"omitempty,min=3,max=255"`
	Password *string      `json:"password" validate:"omitempty,min=3"`
	Name     *string      `json:"name" validate:"omitempty,max=255"`
	Hours    *int         `json:"hours" validate:"omitempty,min=1,max=24"`
	Status   *domain.Role `json:"status" validate:"omitempty,min=0,max=2"`
}

// UpdateUserResponse is the updated user. Token is set when callers update themselves.
type UpdateUserResponse struct {
	*domain.User
	Token string `json:"token,omitempty"`
}

// UpdateUser handles PUT /users/{id}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, token, err := h.service.UpdateUser(r.Context(), authz.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), UpdateUserInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Hours:    req.Hours,
		Role:     req.Status,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, UpdateUserResponse{User: user, Token: token})
}

// DeleteUser handles DELETE /users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUser(r.Context(), authz.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decode reads and validates a JSON body. It writes the error response and
// returns false when the body is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		httputil.ValidationError(w, err)
		return false
	}
	return true
}
