package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-blog-backend/internal/models"
	"github.com/pribylovaa/go-blog-backend/internal/pkg/log"
	"github.com/pribylovaa/go-blog-backend/internal/storage"
)

// ListFilter — фильтры списочной выдачи ресурсов.
// Owner — идентификатор владельца; Post — идентификатор поста
// (используется только комментариями). Пустая строка — без фильтра.
type ListFilter struct {
	Owner string
	Post  string
}

// repoFuncs — адаптер плоского storage.Storage под универсальный движок.
type repoFuncs[T any] struct {
	list    func(ctx context.Context, f ListFilter) ([]T, error)
	byID    func(ctx context.Context, id string) (*T, error)
	insert  func(ctx context.Context, item T) (*T, error)
	update  func(ctx context.Context, id string, set map[string]any) (*T, error)
	deleteF func(ctx context.Context, id string) error
}

// Resources — универсальный CRUD-движок над одним типом ресурса:
// список, чтение, создание, частичное обновление, удаление.
// Изменение и удаление проходят проверку владельца: сначала подтверждается
// существование записи (иначе ErrNotFound), затем сверяется owner с
// идентичностью вызывающего (иначе ErrPermissionDenied), и только после
// этого применяется мутация.
type Resources[T models.Owned, C any, P any] struct {
	kind string
	repo repoFuncs[T]

	// validateCreate нормализует вход и возвращает список нарушенных полей.
	validateCreate func(*C) *ValidationError
	// build собирает ресурс из входа; владельцем всегда становится
	// аутентифицированный вызывающий, а не данные запроса.
	build func(C, string) T
	// patchSet превращает частичное обновление в набор полей для $set.
	// Попытка обнулить обязательное поле — ошибка валидации.
	patchSet func(P) (map[string]any, *ValidationError)
}

// translateStorageErr маппит ошибки хранилища на сервисные.
// Битый идентификатор — ошибка входных данных (400), не отсутствие записи (404).
func translateStorageErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrInvalidID):
		return &ValidationError{Fields: []string{"id"}}
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}

// List возвращает ресурсы по фильтру в порядке вставки.
func (r *Resources[T, C, P]) List(ctx context.Context, f ListFilter) ([]T, error) {
	op := fmt.Sprintf("service/resources/List(%s)", r.kind)

	items, err := r.repo.list(ctx, f)
	if err != nil {
		log.From(ctx).Error("list_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// ByID возвращает ресурс по идентификатору.
func (r *Resources[T, C, P]) ByID(ctx context.Context, id string) (*T, error) {
	op := fmt.Sprintf("service/resources/ByID(%s)", r.kind)

	item, err := r.repo.byID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateStorageErr(err))
	}

	return item, nil
}

// Create валидирует вход и создаёт ресурс от имени вызывающего.
func (r *Resources[T, C, P]) Create(ctx context.Context, in C, caller uuid.UUID) (*T, error) {
	op := fmt.Sprintf("service/resources/Create(%s)", r.kind)

	if verr := r.validateCreate(&in); verr != nil {
		log.From(ctx).Warn("create_validation_failed",
			slog.String("op", op),
			slog.String("fields", verr.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, verr)
	}

	item, err := r.repo.insert(ctx, r.build(in, caller.String()))
	if err != nil {
		log.From(ctx).Error("create_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

// Update накладывает частичное обновление на ресурс вызывающего.
// Порядок проверок фиксирован: существование -> владелец -> мутация.
func (r *Resources[T, C, P]) Update(ctx context.Context, id string, patch P, caller uuid.UUID) (*T, error) {
	op := fmt.Sprintf("service/resources/Update(%s)", r.kind)

	set, verr := r.patchSet(patch)
	if verr != nil {
		return nil, fmt.Errorf("%s: %w", op, verr)
	}

	current, err := r.repo.byID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateStorageErr(err))
	}

	if err := authorizeOwner(*current, caller); err != nil {
		log.From(ctx).Warn("update_forbidden",
			slog.String("op", op),
			slog.String("caller", caller.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	item, err := r.repo.update(ctx, id, set)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateStorageErr(err))
	}

	return item, nil
}

// Delete удаляет ресурс вызывающего. Порядок проверок как в Update.
func (r *Resources[T, C, P]) Delete(ctx context.Context, id string, caller uuid.UUID) error {
	op := fmt.Sprintf("service/resources/Delete(%s)", r.kind)

	current, err := r.repo.byID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateStorageErr(err))
	}

	if err := authorizeOwner(*current, caller); err != nil {
		log.From(ctx).Warn("delete_forbidden",
			slog.String("op", op),
			slog.String("caller", caller.String()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.repo.deleteF(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, translateStorageErr(err))
	}

	return nil
}

// authorizeOwner сверяет владельца ресурса с идентичностью вызывающего.
// Идентичность всегда берётся из проверенного access-токена.
func authorizeOwner(res models.Owned, caller uuid.UUID) error {
	if res.OwnerID() != caller.String() {
		return ErrPermissionDenied
	}

	return nil
}
