// http собирает роутер blog-backend: публичные auth-эндпойнты и
// защищённые Bearer-токеном CRUD-маршруты ресурсов.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-blog-backend/internal/http/handlers"
	"github.com/pribylovaa/go-blog-backend/internal/http/middleware"
	"github.com/pribylovaa/go-blog-backend/internal/service"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(),            // RED-метрики по шаблонам маршрутов
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, svc)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, svc *service.Service) {
	// Публичные auth-маршруты.
	r.Group(func(r chi.Router) {
		r.Post("/users/register", h.RegisterUser)
		r.Post("/users/login", h.LoginUser)
		r.Post("/users/refresh", h.RefreshToken)
		r.Post("/users/logout", h.LogoutUser)
	})

	// Всё остальное — только с валидным access-токеном.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(svc))

		r.Get("/users/me", h.Me)

		// posts
		r.Get("/posts", h.Posts.List)
		r.Get("/posts/{id}", h.Posts.GetByID)
		r.Post("/posts", h.Posts.Create)
		r.Put("/posts/{id}", h.Posts.Update)
		r.Delete("/posts/{id}", h.Posts.Delete)

		// comments
		r.Get("/comments", h.Comments.List)
		r.Get("/comments/{id}", h.Comments.GetByID)
		r.Post("/comments", h.Comments.Create)
		r.Put("/comments/{id}", h.Comments.Update)
		r.Delete("/comments/{id}", h.Comments.Delete)
	})
}
