package models

import "time"

// RefreshToken — запись о действующем refresh-токене в наборе пользователя.
// Хранится только sha256-хэш токена; сам токен пользователю выдаётся один раз.
// Токен действителен, пока запись присутствует в наборе И не истёк ExpiresAt.
type RefreshToken struct {
	Hash      string
	CreatedAt time.Time
	ExpiresAt time.Time
}
