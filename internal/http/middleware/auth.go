package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-backend/internal/http/httperr"
	"github.com/pribylovaa/go-blog-backend/internal/service"
)

// TokenValidator — контракт проверки access-токена (реализуется service.Service).
type TokenValidator interface {
	ValidateToken(ctx context.Context, accessToken string) (uuid.UUID, string, error)
}

// Identity — идентичность аутентифицированного вызывающего.
// Единственный источник идентичности для проверок владельца —
// клиентским userId из пути/тела доверять нельзя.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

type ctxIdentityKey struct{}

// IdentityFrom достаёт идентичность вызывающего из контекста.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxIdentityKey{}).(Identity)
	return id, ok
}

// Authenticate требует валидный Bearer access-токен: извлекает его из
// Authorization, проверяет через v и кладёт идентичность в контекст.
// Отсутствующий/битый/истёкший токен — 401 до запуска любого хендлера.
func Authenticate(v TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httperr.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			userID, email, err := v.ValidateToken(r.Context(), token)
			if err != nil {
				httperr.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxIdentityKey{}, Identity{
				UserID: userID,
				Email:  email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken извлекает токен из заголовка Authorization.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || len(auth) <= len(prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}
