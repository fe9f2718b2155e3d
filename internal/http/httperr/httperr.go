// httperr стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимает доменную ошибку (service/storage), на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Ошибки хранилища и прочие внутренние сбои намеренно отделены от клиентских
// ошибок валидации и маппятся в 500, а не в 400. Хэши паролей и секреты
// подписи в тело ответа не попадают никогда.
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-blog-backend/internal/service"
	"github.com/pribylovaa/go-blog-backend/internal/storage"
)

// Нестандартный код, часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат ошибки для фронта.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func respond(status int, code, msg string) (int, ErrorResponse) {
	return status, ErrorResponse{Error: APIError{Code: code, Message: msg}}
}

// ToHTTP конвертирует доменную ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal, чтобы не послать
//     "200 OK" с телом ошибки и не замаскировать баг;
//   - *service.ValidationError — 400 со списком нарушенных полей;
//   - остальные доменные ошибки — по таблице ниже;
//   - всё неизвестное — 500/internal без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return respond(http.StatusInternalServerError, "internal", "internal error")
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return respond(http.StatusBadRequest, "invalid_argument", verr.Error())
	}

	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		return respond(http.StatusBadRequest, "invalid_argument", "invalid email format")
	case errors.Is(err, service.ErrWeakPassword):
		return respond(http.StatusBadRequest, "invalid_argument", "password is too weak")
	case errors.Is(err, service.ErrEmptyPassword):
		return respond(http.StatusBadRequest, "invalid_argument", "password is empty")
	case errors.Is(err, service.ErrEmailTaken):
		return respond(http.StatusBadRequest, "email_taken", "email already taken")
	case errors.Is(err, storage.ErrInvalidID):
		return respond(http.StatusBadRequest, "invalid_argument", "invalid id")

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenRevoked):
		return respond(http.StatusUnauthorized, "unauthenticated", "unauthenticated")

	case errors.Is(err, service.ErrPermissionDenied):
		return respond(http.StatusForbidden, "permission_denied", "permission denied")

	case errors.Is(err, service.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return respond(http.StatusNotFound, "not_found", "not found")

	case errors.Is(err, storage.ErrAlreadyExists):
		return respond(http.StatusConflict, "already_exists", "already exists")

	case errors.Is(err, context.DeadlineExceeded):
		return respond(http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return respond(StatusClientClosedRequest, "canceled", "request canceled")
	}

	return respond(http.StatusInternalServerError, "internal", "internal error")
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	// Прокидываем request_id, чтобы фронт мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
