// Package models содержит доменные сущности blog-backend.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User — модель пользователя в системе.
// PasswordHash и RefreshTokens наружу не отдаются никогда
// (json:"-" страхует сериализацию на HTTP-слое).
type User struct {
	ID            uuid.UUID      `json:"id"`
	Email         string         `json:"email"`
	PasswordHash  string         `json:"-"`
	RefreshTokens []RefreshToken `json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
