package notes

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
	{Error: domain.ErrNoteNotFound, Status: http.StatusBadRequest},
	{Error: domain.ErrUserNotFound, Status: http.StatusBadRequest},
}, httputil.AuthErrorMappings...)

// Handler handles HTTP requests for notes.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new notes handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers note routes. All of them require authentication.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /notes.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.service.List(r.Context(), authz.IdentityFromContext(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, notes)
}

// CreateNoteRequest represents create note request body.
type CreateNoteRequest struct {
	Task  string `json:"task" validate:"required"`
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Hours int    `json:"hours" validate:"required,min=1,max=24"`
	User  string `json:"user"`
}

// Create handles POST /notes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	note, err := h.service.Create(r.Context(), authz.IdentityFromContext(r.Context()), CreateInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, note)
}

// UpdateNoteRequest represents update note request body. Omitted fields are kept.
type UpdateNoteRequest struct {
	ID    string  `json:"id" validate:"required,uuid"`
	Task  *string `json:"task" validate:"omitempty,min=1"`
	Date  *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Hours *int    `json:"hours" validate:"omitempty,min=1,max=24"`
	User  *string `json:"user"`
}

// Update handles PUT /notes.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	note, err := h.service.Update(r.Context(), authz.IdentityFromContext(r.Context()), UpdateInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, note)
}

// Delete handles DELETE /notes/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), authz.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

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
