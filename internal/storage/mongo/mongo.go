// mongo реализует storage.Storage поверх MongoDB.
package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pribylovaa/go-blog-backend/internal/config"
)

const (
	usersCollection    = "users"
	postsCollection    = "posts"
	commentsCollection = "comments"
	defaultDBName      = "blog"
)

// Mongo - тонкий адаптер для подключения и коллекций MongoDB.
type Mongo struct {
	cfg      *config.Config
	client   *mongodriver.Client
	db       *mongodriver.Database
	users    *mongodriver.Collection
	posts    collection[postDoc]
	comments collection[commentDoc]
}

// New подключается к MongoDB, проверяет соединение и обеспечивает индексацию.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mongo: nil config")
	}

	if cfg.DB.URL == "" {
		return nil, fmt.Errorf("mongo: empty cfg.DB.URL")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.DB.URL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	dbName := databaseFromURI(cfg.DB.URL)
	db := cli.Database(dbName)

	m := &Mongo{
		cfg:      cfg,
		client:   cli,
		db:       db,
		users:    db.Collection(usersCollection),
		posts:    collection[postDoc]{coll: db.Collection(postsCollection)},
		comments: collection[commentDoc]{coll: db.Collection(commentsCollection)},
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

// Close закрывает подключение к MongoDB.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes создает индексы, необходимые сервису:
//   - уникальность email пользователя;
//   - поиск refresh-токена по хэшу в наборе пользователя;
//   - выборки постов/комментариев по владельцу и комментариев по посту.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	userModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "refresh_tokens.hash", Value: 1}},
			Options: options.Index().SetName("refresh_token_hash"),
		},
	}

	if _, err := m.users.Indexes().CreateMany(ctx, userModels); err != nil {
		return fmt.Errorf("mongo ensure user indexes: %w", err)
	}

	ownerIdx := func() mongodriver.IndexModel {
		return mongodriver.IndexModel{
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("owner_id_asc"),
		}
	}

	if _, err := m.posts.coll.Indexes().CreateOne(ctx, ownerIdx()); err != nil {
		return fmt.Errorf("mongo ensure post indexes: %w", err)
	}

	commentModels := []mongodriver.IndexModel{
		ownerIdx(),
		{
			Keys:    bson.D{{Key: "post_id", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("post_id_asc"),
		},
	}

	if _, err := m.comments.coll.Indexes().CreateMany(ctx, commentModels); err != nil {
		return fmt.Errorf("mongo ensure comment indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
// Если оно отсутствует или не поддается расшифровке, возвращает значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}
