package handlers

import (
	"net/http"

	"github.com/pribylovaa/go-blog-backend/internal/http/httperr"
	"github.com/pribylovaa/go-blog-backend/internal/http/middleware"
	"github.com/pribylovaa/go-blog-backend/internal/service"
)

// Me — GET /users/me: профиль аутентифицированного вызывающего.
// Идентификатор берётся из проверенного токена, а не из пути.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	user, err := h.svc.UserByID(r.Context(), identity.UserID)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
