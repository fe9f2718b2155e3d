package models

import "time"

// Comment — комментарий к посту.
// PostID хранится строкой и не является foreign key: согласованность
// со стороны хранилища не форсируется.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Content   string    `json:"content"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerID возвращает идентификатор владельца (см. Owned).
func (c Comment) OwnerID() string { return c.Owner }

// CreateCommentInput — входные данные создания комментария.
type CreateCommentInput struct {
	PostID  string `json:"post_id"`
	Content string `json:"content"`
}

// CommentPatch — частичное обновление комментария.
type CommentPatch struct {
	Content *string `json:"content"`
}
