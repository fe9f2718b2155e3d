package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pribylovaa/go-blog-backend/internal/models"
	"github.com/pribylovaa/go-blog-backend/internal/storage"
)

func toRefreshDoc(t models.RefreshToken) refreshTokenDoc {
	return refreshTokenDoc{
		Hash:      t.Hash,
		CreatedAt: t.CreatedAt.UTC(),
		ExpiresAt: t.ExpiresAt.UTC(),
	}
}

// AppendRefreshToken добавляет токен в набор пользователя ($push);
// при replace=true набор заменяется целиком (single-session).
func (m *Mongo) AppendRefreshToken(ctx context.Context, userID uuid.UUID, token models.RefreshToken, replace bool) error {
	const op = "storage/mongo/AppendRefreshToken"

	doc := toRefreshDoc(token)
	now := time.Now().UTC()

	var update bson.D
	if replace {
		update = bson.D{{Key: "$set", Value: bson.D{
			{Key: "refresh_tokens", Value: []refreshTokenDoc{doc}},
			{Key: "updated_at", Value: now},
		}}}
	} else {
		update = bson.D{
			{Key: "$push", Value: bson.D{{Key: "refresh_tokens", Value: doc}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
		}
	}

	res, err := m.users.UpdateOne(ctx, bson.D{{Key: "_id", Value: userID.String()}}, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// RotateRefreshToken атомарно заменяет oldHash на next в наборе пользователя.
//
// Фильтр требует присутствия oldHash, поэтому из двух конкурентных ротаций
// одним и тем же токеном совпадёт только одна. $pull и $push на одном поле
// в обычном update конфликтуют, поэтому замена выражена pipeline-обновлением
// ($filter + $concatArrays) — по-прежнему одна атомарная операция над документом.
func (m *Mongo) RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash string, next models.RefreshToken) (bool, error) {
	const op = "storage/mongo/RotateRefreshToken"

	filter := bson.D{
		{Key: "_id", Value: userID.String()},
		{Key: "refresh_tokens.hash", Value: oldHash},
	}

	doc := toRefreshDoc(next)
	pipeline := mongodriver.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "refresh_tokens", Value: bson.D{
				{Key: "$concatArrays", Value: bson.A{
					bson.D{{Key: "$filter", Value: bson.D{
						{Key: "input", Value: "$refresh_tokens"},
						{Key: "as", Value: "t"},
						{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$t.hash", oldHash}}}},
					}}},
					bson.A{bson.D{
						{Key: "hash", Value: doc.Hash},
						{Key: "created_at", Value: doc.CreatedAt},
						{Key: "expires_at", Value: doc.ExpiresAt},
					}},
				}},
			}},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	}

	err := m.users.FindOneAndUpdate(ctx, filter, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Err()

	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			// Пользователя нет или oldHash уже отсутствует в наборе.
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

// RemoveRefreshToken удаляет токен из набора пользователя ($pull).
// Возвращает false, если токена в наборе уже не было.
func (m *Mongo) RemoveRefreshToken(ctx context.Context, userID uuid.UUID, hash string) (bool, error) {
	const op = "storage/mongo/RemoveRefreshToken"

	res, err := m.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID.String()}},
		bson.D{
			{Key: "$pull", Value: bson.D{{Key: "refresh_tokens", Value: bson.D{{Key: "hash", Value: hash}}}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return res.ModifiedCount > 0, nil
}

// RevokeAllRefreshTokens очищает весь набор токенов пользователя.
func (m *Mongo) RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	const op = "storage/mongo/RevokeAllRefreshTokens"

	_, err := m.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID.String()}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "refresh_tokens", Value: []refreshTokenDoc{}},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteExpiredRefreshTokens удаляет просроченные записи из наборов всех пользователей.
func (m *Mongo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error {
	const op = "storage/mongo/DeleteExpiredRefreshTokens"

	_, err := m.users.UpdateMany(ctx,
		bson.D{{Key: "refresh_tokens.expires_at", Value: bson.D{{Key: "$lt", Value: now.UTC()}}}},
		bson.D{{Key: "$pull", Value: bson.D{
			{Key: "refresh_tokens", Value: bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: now.UTC()}}}}},
		}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
