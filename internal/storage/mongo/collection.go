package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pribylovaa/go-blog-backend/internal/storage"
)

// collection — общий CRUD-репозиторий над одной коллекцией,
// параметризованный типом документа. Конкретные хранилища
// (посты, комментарии) остаются тонкими обёртками над ним.
type collection[D any] struct {
	coll *mongodriver.Collection
}

// oid разбирает hex ObjectID. Битый формат — storage.ErrInvalidID:
// это клиентская ошибка входных данных, а не отсутствие записи.
func oid(id string) (primitive.ObjectID, error) {
	res, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, storage.ErrInvalidID
	}

	return res, nil
}

// byID возвращает документ по hex ObjectID.
func (c collection[D]) byID(ctx context.Context, id string) (*D, error) {
	const op = "storage/mongo/byID"

	objectID, err := oid(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out D
	if err := c.coll.FindOne(ctx, bson.D{{Key: "_id", Value: objectID}}).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// insert вставляет документ и возвращает сгенерированный ObjectID.
func (c collection[D]) insert(ctx context.Context, doc D) (primitive.ObjectID, error) {
	const op = "storage/mongo/insert"

	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s: %w", op, err)
	}

	objectID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		// Mongo всегда возвращает ObjectID.
		return primitive.NilObjectID, fmt.Errorf("%s: inserted id type", op)
	}

	return objectID, nil
}

// list возвращает документы по фильтру в порядке вставки (_id ASC).
func (c collection[D]) list(ctx context.Context, filter bson.D) ([]D, error) {
	const op = "storage/mongo/list"

	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := c.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []D
	for cur.Next(ctx) {
		var doc D
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		items = append(items, doc)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}

// updateByID накладывает set на документ и возвращает состояние после обновления.
// Ключи set сортируются, чтобы форма запроса была детерминированной.
func (c collection[D]) updateByID(ctx context.Context, id string, set map[string]any) (*D, error) {
	const op = "storage/mongo/updateByID"

	objectID, err := oid(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := bson.D{{Key: "updated_at", Value: time.Now().UTC()}}
	for _, k := range keys {
		fields = append(fields, bson.E{Key: k, Value: set[k]})
	}

	updateOpts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out D
	err = c.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: objectID}},
		bson.D{{Key: "$set", Value: fields}},
		updateOpts,
	).Decode(&out)

	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// deleteByID удаляет документ по hex ObjectID.
func (c collection[D]) deleteByID(ctx context.Context, id string) error {
	const op = "storage/mongo/deleteByID"

	objectID, err := oid(id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := c.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: objectID}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
