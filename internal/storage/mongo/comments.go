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

// commentDoc — документ комментария в коллекции comments.
// post_id хранится hex-строкой и не форсируется как ссылка.
type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	PostID    string             `bson:"post_id"`
	Content   string             `bson:"content"`
	Owner     string             `bson:"owner"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d commentDoc) toModel() models.Comment {
	return models.Comment{
		ID:        d.ID.Hex(),
		PostID:    d.PostID,
		Content:   d.Content,
		Owner:     d.Owner,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// SaveComment вставляет комментарий и возвращает его с заполненным ID.
func (m *Mongo) SaveComment(ctx context.Context, comment models.Comment) (*models.Comment, error) {
	const op = "storage/mongo/SaveComment"

	now := time.Now().UTC().Truncate(time.Millisecond)

	doc := commentDoc{
		PostID:    strings.TrimSpace(comment.PostID),
		Content:   comment.Content,
		Owner:     comment.Owner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	objectID, err := m.comments.insert(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	doc.ID = objectID
	out := doc.toModel()
	return &out, nil
}

// CommentByID возвращает комментарий по hex ObjectID.
func (m *Mongo) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "storage/mongo/CommentByID"

	doc, err := m.comments.byID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := doc.toModel()
	return &out, nil
}

// Comments возвращает комментарии в порядке вставки;
// owner/postID != "" добавляют соответствующие фильтры.
func (m *Mongo) Comments(ctx context.Context, owner, postID string) ([]models.Comment, error) {
	const op = "storage/mongo/Comments"

	filter := bson.D{}
	if o := strings.TrimSpace(owner); o != "" {
		filter = append(filter, bson.E{Key: "owner", Value: o})
	}
	if p := strings.TrimSpace(postID); p != "" {
		filter = append(filter, bson.E{Key: "post_id", Value: p})
	}

	docs, err := m.comments.list(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]models.Comment, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toModel())
	}

	return items, nil
}

// UpdateComment накладывает set на документ и возвращает состояние после обновления.
func (m *Mongo) UpdateComment(ctx context.Context, id string, set map[string]any) (*models.Comment, error) {
	const op = "storage/mongo/UpdateComment"

	doc, err := m.comments.updateByID(ctx, id, set)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := doc.toModel()
	return &out, nil
}

// DeleteComment удаляет комментарий по id.
func (m *Mongo) DeleteComment(ctx context.Context, id string) error {
	const op = "storage/mongo/DeleteComment"

	if err := m.comments.deleteByID(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
