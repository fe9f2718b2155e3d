package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pribylovaa/go-blog-backend/internal/models"
)

// postDoc — документ поста в коллекции posts.
type postDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Owner     string             `bson:"owner"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d postDoc) toModel() models.Post {
	return models.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		Owner:     d.Owner,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// SavePost вставляет пост и возвращает его с заполненным ID.
func (m *Mongo) SavePost(ctx context.Context, post models.Post) (*models.Post, error) {
	const op = "storage/mongo/SavePost"

	// MongoDB DateTime хранит миллисекунды.
	now := time.Now().UTC().Truncate(time.Millisecond)

	doc := postDoc{
		Title:     post.Title,
		Content:   post.Content,
		Owner:     post.Owner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	objectID, err := m.posts.insert(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	doc.ID = objectID
	out := doc.toModel()
	return &out, nil
}

// PostByID возвращает пост по hex ObjectID.
func (m *Mongo) PostByID(ctx context.Context, id string) (*models.Post, error) {
	const op = "storage/mongo/PostByID"

	doc, err := m.posts.byID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := doc.toModel()
	return &out, nil
}

// Posts возвращает посты в порядке вставки; owner != "" фильтрует по владельцу.
func (m *Mongo) Posts(ctx context.Context, owner string) ([]models.Post, error) {
	const op = "storage/mongo/Posts"

	filter := bson.D{}
	if o := strings.TrimSpace(owner); o != "" {
		filter = append(filter, bson.E{Key: "owner", Value: o})
	}

	docs, err := m.posts.list(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]models.Post, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toModel())
	}

	return items, nil
}

// UpdatePost накладывает set на документ и возвращает состояние после обновления.
func (m *Mongo) UpdatePost(ctx context.Context, id string, set map[string]any) (*models.Post, error) {
	const op = "storage/mongo/UpdatePost"

	doc, err := m.posts.updateByID(ctx, id, set)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := doc.toModel()
	return &out, nil
}

// DeletePost удаляет пост по id.
func (m *Mongo) DeletePost(ctx context.Context, id string) error {
	const op = "storage/mongo/DeletePost"

	if err := m.posts.deleteByID(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
