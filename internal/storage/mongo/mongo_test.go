package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/go-blog-backend/internal/config"
	"github.com/pribylovaa/go-blog-backend/internal/models"
	"github.com/pribylovaa/go-blog-backend/internal/storage"
)

// testTimeout — общий дедлайн на операции с БД в тестах.
const testTimeout = 10 * time.Second

// TestMain запускает MongoDB в контейнере один раз на весь пакет тестов.
// Адрес контейнера прокидывается в ENV DATABASE_URL, а каждая спецификация
// создаёт свою БД с уникальным именем (см. newTestConfig).
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7.0",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
	}

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})

	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	// Получаем host:port и формируем URI без имени БД.
	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}

	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	_ = os.Setenv("DATABASE_URL", uri)

	// Запускаем тесты пакета.
	code := m.Run()

	// Гасим контейнер *после* выполнения пакета тестов.
	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

// newTestConfig создаёт конфиг с отдельной тестовой БД.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	baseURL := os.Getenv("DATABASE_URL")
	if baseURL == "" {
		baseURL = "mongodb://localhost:27017"
	}

	dbName := "blog_test_" + uuid.New().String()
	if baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL + dbName
	} else {
		baseURL = baseURL + "/" + dbName
	}

	return &config.Config{
		DB: config.DBConfig{
			URL: baseURL,
		},
	}
}

// mustNewMongo создаёт подключение к созданной Test DB и регистрирует очистку по завершении теста.
func mustNewMongo(t *testing.T, cfg *config.Config) *Mongo {
	t.Helper()

	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("set GO_TEST_INTEGRATION to run mongo integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	m, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("cannot connect to MongoDB in container: %v (DATABASE_URL=%s)", err, cfg.DB.URL)
	}

	// При завершении теста — подчистить БД и соединение.
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = m.db.Drop(ctx)
		_ = m.Close(ctx)
	})

	return m
}

func mustSaveUser(t *testing.T, m *Mongo, email string) *models.User {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "bcrypt-hash-placeholder",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := m.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser error: %v", err)
	}

	return u
}

func rtDoc(hash string, ttl time.Duration) models.RefreshToken {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return models.RefreshToken{
		Hash:      hash,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// TestDatabaseFromURI — извлечение имени БД из URI и дефолт.
func TestDatabaseFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"mongodb://localhost:27017/blog_dev", "blog_dev"},
		{"mongodb://localhost:27017/", defaultDBName},
		{"mongodb://localhost:27017", defaultDBName},
		{"mongodb://u:p@host:27017/mydb?authSource=admin", "mydb"},
	}
	for _, tt := range tests {
		if got := databaseFromURI(tt.uri); got != tt.want {
			t.Errorf("databaseFromURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

// TestOID_InvalidFormat — битый hex трактуется как ошибка входных данных.
func TestOID_InvalidFormat(t *testing.T) {
	for _, bad := range []string{"", "zzz", "deadbeef", "68b00000000000000000000g"} {
		if _, err := oid(bad); !errors.Is(err, storage.ErrInvalidID) {
			t.Errorf("oid(%q): want ErrInvalidID, got %v", bad, err)
		}
	}

	if _, err := oid("68b000000000000000000001"); err != nil {
		t.Errorf("oid(valid hex): unexpected error %v", err)
	}
}

// TestSaveUser_DuplicateEmail — уникальный индекс по email возвращает ErrAlreadyExists.
func TestSaveUser_DuplicateEmail(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	mustSaveUser(t, m, "dup@example.com")

	another := &models.User{
		ID:           uuid.New(),
		Email:        "dup@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := m.SaveUser(ctx, another); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists on duplicate email, got %v", err)
	}
}

// TestUserByEmail_AndByID — чтение сохранённого пользователя обоими способами.
func TestUserByEmail_AndByID(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	u := mustSaveUser(t, m, "reader@example.com")

	byEmail, err := m.UserByEmail(ctx, "reader@example.com")
	if err != nil {
		t.Fatalf("UserByEmail error: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Fatalf("UserByEmail ID = %s, want %s", byEmail.ID, u.ID)
	}

	byID, err := m.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID error: %v", err)
	}
	if byID.Email != u.Email {
		t.Fatalf("UserByID email = %q, want %q", byID.Email, u.Email)
	}

	if _, err := m.UserByEmail(ctx, "missing@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound for missing email, got %v", err)
	}

	if _, err := m.UserByID(ctx, uuid.New()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound for missing id, got %v", err)
	}
}

// TestAppendRefreshToken_PushAndReplace — обычный режим накапливает сессии,
// replace=true оставляет ровно одну.
func TestAppendRefreshToken_PushAndReplace(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	u := mustSaveUser(t, m, "sessions@example.com")

	if err := m.AppendRefreshToken(ctx, u.ID, rtDoc("h1", time.Hour), false); err != nil {
		t.Fatalf("AppendRefreshToken(h1) error: %v", err)
	}
	if err := m.AppendRefreshToken(ctx, u.ID, rtDoc("h2", time.Hour), false); err != nil {
		t.Fatalf("AppendRefreshToken(h2) error: %v", err)
	}

	got, err := m.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID error: %v", err)
	}
	if len(got.RefreshTokens) != 2 {
		t.Fatalf("tokens len = %d, want 2", len(got.RefreshTokens))
	}

	// single-session: набор заменяется целиком.
	if err := m.AppendRefreshToken(ctx, u.ID, rtDoc("h3", time.Hour), true); err != nil {
		t.Fatalf("AppendRefreshToken(replace) error: %v", err)
	}

	got, err = m.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID error: %v", err)
	}
	if len(got.RefreshTokens) != 1 || got.RefreshTokens[0].Hash != "h3" {
		t.Fatalf("after replace tokens = %+v, want single h3", got.RefreshTokens)
	}

	// Несуществующий пользователь — ErrNotFound.
	if err := m.AppendRefreshToken(ctx, uuid.New(), rtDoc("x", time.Hour), false); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound for missing user, got %v", err)
	}
}

// TestRotateRefreshToken — замена old->next одной операцией; отсутствующий
// old-хэш сигнализируется через rotated=false.
func TestRotateRefreshToken(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	u := mustSaveUser(t, m, "rotate@example.com")

	if err := m.AppendRefreshToken(ctx, u.ID, rtDoc("old", time.Hour), false); err != nil {
		t.Fatalf("AppendRefreshToken error: %v", err)
	}
	if err := m.AppendRefreshToken(ctx, u.ID, rtDoc("other", time.Hour), false); err != nil {
		t.Fatalf("AppendRefreshToken error: %v", err)
	}

	rotated, err := m.RotateRefreshToken(ctx, u.ID, "old", rtDoc("new", time.Hour))
	if err != nil {
		t.Fatalf("RotateRefreshToken error: %v", err)
	}
	if !rotated {
		t.Fatalf("want rotated=true for present hash")
	}

	got, err := m.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID error: %v", err)
	}

	hashes := map[string]bool{}
	for _, rt := range got.RefreshTokens {
		hashes[rt.Hash] = true
	}
	if hashes["old"] || !hashes["new"] || !hashes["other"] {
		t.Fatalf("after rotate hashes = %v, want {new, other}", hashes)
	}

	// Повторная ротация тем же хэшем — rotated=false, набор не меняется.
	rotated, err = m.RotateRefreshToken(ctx, u.ID, "old", rtDoc("new2", time.Hour))
	if err != nil {
		t.Fatalf("RotateRefreshToken(repeat) error: %v", err)
	}
	if rotated {
		t.Fatalf("want rotated=false for absent hash")
	}
}

// TestRotateRefreshToken_ConcurrentSingleWinner — из N конкурентных ротаций
// одним токеном выигрывает ровно одна.
func TestRotateRefreshToken_ConcurrentSingleWinner(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	u := mustSaveUser(t, m, "race@example.com")

	if err := m.AppendRefreshToken(ctx, u.ID, rtDoc("contested", time.Hour), false); err != nil {
		t.Fatalf("AppendRefreshToken error: %v", err)
	}

	const workers = 8

	var wg sync.WaitGroup
	wins := make(chan int, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			rotated, err := m.RotateRefreshToken(ctx, u.ID, "contested", rtDoc(fmt.Sprintf("next-%d", n), time.Hour))
			if err != nil {
				t.Errorf("worker %d: RotateRefreshToken error: %v", n, err)
				return
			}
			if rotated {
				wins <- n
			}
		}(i)
	}

	wg.Wait()
	close(wins)

	var winners []int
	for n := range wins {
		winners = append(winners, n)
	}

	if len(winners) != 1 {
		t.Fatalf("winners = %v, want exactly one", winners)
	}

	got, err := m.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID error: %v", err)
	}
	if len(got.RefreshTokens) != 1 {
		t.Fatalf("tokens len = %d, want 1 (loser rotations must not mutate the set)", len(got.RefreshTokens))
	}
	if got.RefreshTokens[0].Hash == "contested" {
		t.Fatalf("contested hash must be replaced")
	}
}

// TestRemoveAndRevokeRefreshTokens — точечное удаление и полный отзыв.
func TestRemoveAndRevokeRefreshTokens(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	u := mustSaveUser(t, m, "revoke@example.com")

	for _, h := range []string{"a", "b", "c"} {
		if err := m.AppendRefreshToken(ctx, u.ID, rtDoc(h, time.Hour), false); err != nil {
			t.Fatalf("AppendRefreshToken(%s) error: %v", h, err)
		}
	}

	removed, err := m.RemoveRefreshToken(ctx, u.ID, "b")
	if err != nil {
		t.Fatalf("RemoveRefreshToken error: %v", err)
	}
	if !removed {
		t.Fatalf("want removed=true for present hash")
	}

	// Повторное удаление того же хэша — идемпотентный false.
	removed, err = m.RemoveRefreshToken(ctx, u.ID, "b")
	if err != nil {
		t.Fatalf("RemoveRefreshToken(repeat) error: %v", err)
	}
	if removed {
		t.Fatalf("want removed=false for absent hash")
	}

	if err := m.RevokeAllRefreshTokens(ctx, u.ID); err != nil {
		t.Fatalf("RevokeAllRefreshTokens error: %v", err)
	}

	got, err := m.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID error: %v", err)
	}
	if len(got.RefreshTokens) != 0 {
		t.Fatalf("tokens after revoke = %+v, want empty", got.RefreshTokens)
	}
}

// TestDeleteExpiredRefreshTokens — janitor выпалывает только просроченные записи.
func TestDeleteExpiredRefreshTokens(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	u := mustSaveUser(t, m, "janitor@example.com")

	if err := m.AppendRefreshToken(ctx, u.ID, rtDoc("live", time.Hour), false); err != nil {
		t.Fatalf("AppendRefreshToken(live) error: %v", err)
	}
	if err := m.AppendRefreshToken(ctx, u.ID, rtDoc("dead", -time.Hour), false); err != nil {
		t.Fatalf("AppendRefreshToken(dead) error: %v", err)
	}

	if err := m.DeleteExpiredRefreshTokens(ctx, time.Now().UTC()); err != nil {
		t.Fatalf("DeleteExpiredRefreshTokens error: %v", err)
	}

	got, err := m.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID error: %v", err)
	}
	if len(got.RefreshTokens) != 1 || got.RefreshTokens[0].Hash != "live" {
		t.Fatalf("tokens after janitor = %+v, want single live", got.RefreshTokens)
	}
}

// TestPostCRUD — полный цикл поста: create/read/list/update/delete.
func TestPostCRUD(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	owner := uuid.New().String()

	created, err := m.SavePost(ctx, models.Post{Title: "t1", Content: "c1", Owner: owner})
	if err != nil {
		t.Fatalf("SavePost error: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated ID")
	}

	got, err := m.PostByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("PostByID error: %v", err)
	}
	if got.Title != "t1" || got.Owner != owner {
		t.Fatalf("PostByID = %+v, want t1/%s", got, owner)
	}

	// Битый id — ErrInvalidID, корректный несуществующий — ErrNotFound.
	if _, err := m.PostByID(ctx, "zzz"); !errors.Is(err, storage.ErrInvalidID) {
		t.Fatalf("want ErrInvalidID for bad id format, got %v", err)
	}
	if _, err := m.PostByID(ctx, "68b000000000000000000001"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound for absent id, got %v", err)
	}

	// Второй пост другого владельца: фильтр по owner отсекает чужие.
	if _, err := m.SavePost(ctx, models.Post{Title: "t2", Content: "c2", Owner: uuid.New().String()}); err != nil {
		t.Fatalf("SavePost(second) error: %v", err)
	}

	all, err := m.Posts(ctx, "")
	if err != nil {
		t.Fatalf("Posts(all) error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Posts(all) len = %d, want 2", len(all))
	}
	// Порядок вставки: первый создан раньше.
	if all[0].ID != created.ID {
		t.Fatalf("Posts(all) order violated: first = %s, want %s", all[0].ID, created.ID)
	}

	mine, err := m.Posts(ctx, owner)
	if err != nil {
		t.Fatalf("Posts(owner) error: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != created.ID {
		t.Fatalf("Posts(owner) = %+v, want only %s", mine, created.ID)
	}

	updated, err := m.UpdatePost(ctx, created.ID, map[string]any{"title": "t1-upd"})
	if err != nil {
		t.Fatalf("UpdatePost error: %v", err)
	}
	if updated.Title != "t1-upd" || updated.Content != "c1" {
		t.Fatalf("UpdatePost = %+v, want title updated, content intact", updated)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("UpdatedAt not bumped: %v <= %v", updated.UpdatedAt, created.UpdatedAt)
	}

	if err := m.DeletePost(ctx, created.ID); err != nil {
		t.Fatalf("DeletePost error: %v", err)
	}
	if err := m.DeletePost(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound on repeated delete, got %v", err)
	}
}

// TestCommentCRUD_Filters — фильтры комментариев по владельцу и посту комбинируются.
func TestCommentCRUD_Filters(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	ownerA := uuid.New().String()
	ownerB := uuid.New().String()
	postX := "68b000000000000000000001"
	postY := "68b000000000000000000002"

	seed := []models.Comment{
		{PostID: postX, Content: "a-x", Owner: ownerA},
		{PostID: postY, Content: "a-y", Owner: ownerA},
		{PostID: postX, Content: "b-x", Owner: ownerB},
	}
	for i, c := range seed {
		if _, err := m.SaveComment(ctx, c); err != nil {
			t.Fatalf("SaveComment(%d) error: %v", i, err)
		}
	}

	byOwner, err := m.Comments(ctx, ownerA, "")
	if err != nil {
		t.Fatalf("Comments(ownerA) error: %v", err)
	}
	if len(byOwner) != 2 {
		t.Fatalf("Comments(ownerA) len = %d, want 2", len(byOwner))
	}

	byPost, err := m.Comments(ctx, "", postX)
	if err != nil {
		t.Fatalf("Comments(postX) error: %v", err)
	}
	if len(byPost) != 2 {
		t.Fatalf("Comments(postX) len = %d, want 2", len(byPost))
	}

	both, err := m.Comments(ctx, ownerA, postX)
	if err != nil {
		t.Fatalf("Comments(ownerA, postX) error: %v", err)
	}
	if len(both) != 1 || both[0].Content != "a-x" {
		t.Fatalf("Comments(ownerA, postX) = %+v, want single a-x", both)
	}

	none, err := m.Comments(ctx, ownerB, postY)
	if err != nil {
		t.Fatalf("Comments(ownerB, postY) error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("Comments(ownerB, postY) len = %d, want 0", len(none))
	}

	// Update/Delete через общий репозиторий.
	target := both[0]
	updated, err := m.UpdateComment(ctx, target.ID, map[string]any{"content": "edited"})
	if err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	if updated.Content != "edited" || updated.PostID != postX {
		t.Fatalf("UpdateComment = %+v, want content edited, post intact", updated)
	}

	if err := m.DeleteComment(ctx, target.ID); err != nil {
		t.Fatalf("DeleteComment error: %v", err)
	}
	if _, err := m.CommentByID(ctx, target.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}

// TestEnsureIndexes_Created — индексы, создаваемые ensureIndexes, существуют.
func TestEnsureIndexes_Created(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	indexNames := func(coll *mongodriver.Collection) map[string]bool {
		t.Helper()

		cur, err := coll.Indexes().List(ctx)
		if err != nil {
			t.Fatalf("Indexes().List error: %v", err)
		}
		defer cur.Close(ctx)

		names := map[string]bool{}
		for cur.Next(ctx) {
			var spec map[string]any
			if err := cur.Decode(&spec); err != nil {
				t.Fatalf("decode index spec: %v", err)
			}
			if name, _ := spec["name"].(string); name != "" {
				names[name] = true
			}
		}
		if err := cur.Err(); err != nil {
			t.Fatalf("cursor err: %v", err)
		}
		return names
	}

	userIdx := indexNames(m.users)
	if !userIdx["uniq_email"] || !userIdx["refresh_token_hash"] {
		t.Fatalf("user indexes = %v, want uniq_email and refresh_token_hash", userIdx)
	}

	postIdx := indexNames(m.posts.coll)
	if !postIdx["owner_id_asc"] {
		t.Fatalf("post indexes = %v, want owner_id_asc", postIdx)
	}

	commentIdx := indexNames(m.comments.coll)
	if !commentIdx["owner_id_asc"] || !commentIdx["post_id_asc"] {
		t.Fatalf("comment indexes = %v, want owner_id_asc and post_id_asc", commentIdx)
	}
}
