package models

import "time"

// Post — публикация пользователя.
// ID — hex ObjectID MongoDB; Owner — UUID автора строкой,
// сравнивается по простому равенству.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerID возвращает идентификатор владельца (см. Owned).
func (p Post) OwnerID() string { return p.Owner }

// CreatePostInput — входные данные создания поста.
// Owner не принимается от клиента: владельцем становится
// аутентифицированный вызывающий.
type CreatePostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PostPatch — частичное обновление поста. nil-поле означает «не трогать».
type PostPatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Owned — ресурс с полем владельца; проверка прав на изменение/удаление
// выполняется сравнением OwnerID с идентичностью вызывающего.
type Owned interface {
	OwnerID() string
}
