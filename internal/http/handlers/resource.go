package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-backend/internal/http/httperr"
	"github.com/pribylovaa/go-blog-backend/internal/http/middleware"
	"github.com/pribylovaa/go-blog-backend/internal/service"
)

// ResourceService — контракт сервисного слоя для одного типа ресурса
// (реализуется service.Resources).
type ResourceService[T any, C any, P any] interface {
	List(ctx context.Context, f service.ListFilter) ([]T, error)
	ByID(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, in C, caller uuid.UUID) (*T, error)
	Update(ctx context.Context, id string, patch P, caller uuid.UUID) (*T, error)
	Delete(ctx context.Context, id string, caller uuid.UUID) error
}

// Resource — единый набор HTTP-хендлеров (list/get/create/update/delete),
// переиспользуемый для каждого типа ресурса. Идентичность вызывающего
// для мутаций берётся только из контекста, заполненного Authenticate.
type Resource[T any, C any, P any] struct {
	svc ResourceService[T, C, P]
	// postFilter разрешает query-параметр ?post= в списке (комментарии).
	postFilter bool
}

func NewResource[T any, C any, P any](svc ResourceService[T, C, P], postFilter bool) *Resource[T, C, P] {
	return &Resource[T, C, P]{svc: svc, postFilter: postFilter}
}

// List — GET /<resource>[?sender=...][?post=...].
func (h *Resource[T, C, P]) List(w http.ResponseWriter, r *http.Request) {
	f := service.ListFilter{
		Owner: r.URL.Query().Get("sender"),
	}
	if h.postFilter {
		f.Post = r.URL.Query().Get("post")
	}

	items, err := h.svc.List(r.Context(), f)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	// Пустая выборка — [], а не null.
	if items == nil {
		items = []T{}
	}

	writeJSON(w, http.StatusOK, items)
}

// GetByID — GET /<resource>/{id}.
func (h *Resource[T, C, P]) GetByID(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.ByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// Create — POST /<resource>.
func (h *Resource[T, C, P]) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in C
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, errInvalidBody())
		return
	}

	item, err := h.svc.Create(r.Context(), in, identity.UserID)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// Update — PUT /<resource>/{id}.
func (h *Resource[T, C, P]) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var patch P
	if err := decodeStrict(r, &patch); err != nil {
		httperr.WriteError(w, r, errInvalidBody())
		return
	}

	item, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch, identity.UserID)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// Delete — DELETE /<resource>/{id}.
func (h *Resource[T, C, P]) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), identity.UserID); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
