package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/worknotes/internal/authz"
	"github.com/bissquit/worknotes/internal/domain"
	"github.com/bissquit/worknotes/internal/pkg/ctxlog"
)

// ErrorMapping defines how a domain error maps to an HTTP response.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses err.Error()
}

// AuthErrorMappings covers the errors of the authorization resolver.
// Forbidden renders as 401 like the other auth failures; the message tells them apart.
var AuthErrorMappings = []ErrorMapping{
	{Error: authz.ErrUnauthenticated, Status: http.StatusUnauthorized, Message: "token invalid"},
	{Error: authz.ErrForbidden, Status: http.StatusUnauthorized},
	{Error: authz.ErrUnknownActor, Status: http.StatusBadRequest},
	{Error: authz.ErrInvalidTarget, Status: http.StatusBadRequest},
	{Error: domain.ErrInvalidID, Status: http.StatusBadRequest},
}

// HandleError maps a domain error to an HTTP response using provided mappings.
// Validation errors are always rendered with field details.
// If no mapping matches, logs the error and returns 500 Internal Server Error.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	if errors.Is(err, domain.ErrValidation) {
		ValidationError(w, err)
		return
	}
	for _, m := range mappings {
		if errors.Is(err, m.Error) {
			msg := m.Message
			if msg == "" {
				msg = m.Error.Error()
			}
			Error(w, m.Status, msg)
			return
		}
	}
	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}
