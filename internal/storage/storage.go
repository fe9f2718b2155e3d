// storage задаёт контракт работы с хранилищем blog-backend.
//
// Реализации обязаны быть потокобезопасными: сервис обслуживает HTTP-запросы
// конкурентно и не использует собственных блокировок — вся атомарность
// (уникальность email, ротация refresh-токенов) обеспечивается примитивами
// самого хранилища.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-backend/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/пост/комментарий).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidID — структурно некорректный идентификатор ресурса.
	// Отличается от ErrNotFound: это ошибка входных данных клиента (HTTP 400),
	// а не отсутствие корректно адресованной записи (HTTP 404).
	ErrInvalidID = errors.New("invalid id")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создаёт нового пользователя.
	// При конфликте уникальности email — ErrAlreadyExists.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RefreshTokenStorage управляет набором действующих refresh-токенов,
// который хранится внутри документа пользователя.
type RefreshTokenStorage interface {
	// AppendRefreshToken добавляет токен в набор пользователя.
	// При replace=true набор заменяется целиком (режим single-session).
	AppendRefreshToken(ctx context.Context, userID uuid.UUID, token models.RefreshToken, replace bool) error
	// RotateRefreshToken атомарно заменяет oldHash на next в наборе пользователя.
	// Возвращает false, если oldHash в наборе отсутствует (токен уже ротирован
	// или отозван) — из двух конкурентных ротаций одним токеном выигрывает одна.
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash string, next models.RefreshToken) (bool, error)
	// RemoveRefreshToken удаляет токен из набора.
	// Возвращает false, если токена в наборе уже не было.
	RemoveRefreshToken(ctx context.Context, userID uuid.UUID, hash string) (bool, error)
	// RevokeAllRefreshTokens очищает весь набор токенов пользователя
	// (ответ на обнаруженное повторное использование ротированного токена).
	RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error
	// DeleteExpiredRefreshTokens удаляет просроченные записи из наборов всех пользователей.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error
}

// PostStorage выполняет операции над постами.
type PostStorage interface {
	// SavePost вставляет пост и возвращает его с заполненным ID.
	SavePost(ctx context.Context, post models.Post) (*models.Post, error)
	// PostByID возвращает пост по hex ObjectID.
	// Битый формат id — ErrInvalidID; отсутствие записи — ErrNotFound.
	PostByID(ctx context.Context, id string) (*models.Post, error)
	// Posts возвращает посты в порядке вставки; owner != "" фильтрует по владельцу.
	Posts(ctx context.Context, owner string) ([]models.Post, error)
	// UpdatePost накладывает set на документ и возвращает состояние после обновления.
	UpdatePost(ctx context.Context, id string, set map[string]any) (*models.Post, error)
	// DeletePost удаляет пост по id.
	DeletePost(ctx context.Context, id string) error
}

// CommentStorage выполняет операции над комментариями.
type CommentStorage interface {
	SaveComment(ctx context.Context, comment models.Comment) (*models.Comment, error)
	CommentByID(ctx context.Context, id string) (*models.Comment, error)
	// Comments фильтрует по владельцу и/или посту; пустая строка — без фильтра.
	Comments(ctx context.Context, owner, postID string) ([]models.Comment, error)
	UpdateComment(ctx context.Context, id string, set map[string]any) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// Storage задаёт полный контракт работы с БД.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	PostStorage
	CommentStorage
	Close(ctx context.Context) error
}
