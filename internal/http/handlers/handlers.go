package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/go-blog-backend/internal/models"
	"github.com/pribylovaa/go-blog-backend/internal/service"
)

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	svc *service.Service

	Posts    *Resource[models.Post, models.CreatePostInput, models.PostPatch]
	Comments *Resource[models.Comment, models.CreateCommentInput, models.CommentPatch]
}

func New(svc *service.Service) *Handlers {
	return &Handlers{
		svc:      svc,
		Posts:    NewResource[models.Post, models.CreatePostInput, models.PostPatch](svc.Posts, false),
		Comments: NewResource[models.Comment, models.CreateCommentInput, models.CommentPatch](svc.Comments, true),
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через httperr.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// errInvalidBody — локальная ошибка парсинга тела запроса.
func errInvalidBody() error {
	return &service.ValidationError{Fields: []string{"body"}}
}
