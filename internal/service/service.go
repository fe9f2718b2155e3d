// service содержит бизнес-логику blog-backend:
// регистрацию/аутентификацию пользователей, выпуск/ротацию токенов
// и CRUD-операции над ресурсами с проверкой владельца.
//
// Основные аспекты:
//   - Экземпляр Service безопасен для конкурентного использования из разных
//     горутин при условии, что переданное хранилище (storage.Storage)
//     потокобезопасно; собственных блокировок сервис не держит.
//   - Ошибки возвращаются наружу и маппятся HTTP-слоем на статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"
	"strings"

	"github.com/pribylovaa/go-blog-backend/internal/config"
	"github.com/pribylovaa/go-blog-backend/internal/models"
	"github.com/pribylovaa/go-blog-backend/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	// Намеренно одна и та же ошибка в обоих случаях, чтобы не допускать
	// перечисления зарегистрированных email. HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен (access/refresh) некорректен по формату/подписи. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked — refresh-токен отсутствует в наборе пользователя:
	// он уже ротирован или отозван. HTTP 401.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrEmailTaken — e-mail уже занят другим пользователем. HTTP 400.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidEmail — e-mail имеет некорректный формат. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль не удовлетворяет политике сложности. HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой. HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrNotFound — ресурс не найден. HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied — вызывающий аутентифицирован, но не владеет ресурсом. HTTP 403.
	ErrPermissionDenied = errors.New("permission denied")
)

// ValidationError — ошибка валидации входных данных с перечислением
// нарушенных полей. HTTP 400.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

// Service описывает бизнес-логику blog-backend.
// Posts и Comments — экземпляры универсального CRUD-движка Resources,
// параметризованные конкретным типом ресурса.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig

	Posts    *Resources[models.Post, models.CreatePostInput, models.PostPatch]
	Comments *Resources[models.Comment, models.CreateCommentInput, models.CommentPatch]
}

// New создаёт новый экземпляр Service.
func New(st storage.Storage, cfg config.AuthConfig) *Service {
	s := &Service{
		storage: st,
		cfg:     cfg,
	}

	s.Posts = newPostResources(st)
	s.Comments = newCommentResources(st)

	return s
}
