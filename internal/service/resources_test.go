package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-blog-backend/internal/models"
	"github.com/pribylovaa/go-blog-backend/internal/storage"
)

func strPtr(s string) *string { return &s }

func TestPosts_Create_OK_OwnerFromCaller(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	caller := uuid.New()

	st.EXPECT().SavePost(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p models.Post) (*models.Post, error) {
			// Владелец берётся из токена, не из тела запроса.
			require.Equal(t, caller.String(), p.Owner)
			require.Equal(t, "Title", p.Title)
			p.ID = "68b000000000000000000001"
			return &p, nil
		})

	got, err := svc.Posts.Create(context.Background(), models.CreatePostInput{
		Title:   "  Title ",
		Content: "Body",
	}, caller)
	require.NoError(t, err)
	require.Equal(t, "68b000000000000000000001", got.ID)
	require.Equal(t, caller.String(), got.Owner)
}

func TestPosts_Create_Validation(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.Posts.Create(context.Background(), models.CreatePostInput{
		Title:   "   ",
		Content: "",
	}, uuid.New())
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.ElementsMatch(t, []string{"title", "content"}, verr.Fields)
}

func TestPosts_ByID_MapsStorageErrors(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()

	// Битый идентификатор — ошибка входных данных.
	st.EXPECT().PostByID(gomock.Any(), "zzz").Return(nil, storage.ErrInvalidID)
	_, err := svc.Posts.ByID(ctx, "zzz")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []string{"id"}, verr.Fields)

	// Корректный, но несуществующий — не найдено.
	st.EXPECT().PostByID(gomock.Any(), "68b000000000000000000001").Return(nil, storage.ErrNotFound)
	_, err = svc.Posts.ByID(ctx, "68b000000000000000000001")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPosts_List_PassesOwnerFilter(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	owner := uuid.New().String()
	st.EXPECT().Posts(gomock.Any(), owner).Return([]models.Post{{ID: "a", Owner: owner}}, nil)

	got, err := svc.Posts.List(context.Background(), ListFilter{Owner: owner})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestPosts_Update_ChecksExistenceBeforeOwnership(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	caller := uuid.New()
	id := "68b000000000000000000001"

	// Несуществующая запись — 404 даже для чужого вызывающего.
	st.EXPECT().PostByID(gomock.Any(), id).Return(nil, storage.ErrNotFound)

	_, err := svc.Posts.Update(context.Background(), id, models.PostPatch{Title: strPtr("x")}, caller)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPosts_Update_ForeignOwner_PermissionDenied(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	caller := uuid.New()
	id := "68b000000000000000000001"

	st.EXPECT().PostByID(gomock.Any(), id).
		Return(&models.Post{ID: id, Owner: uuid.New().String()}, nil)

	_, err := svc.Posts.Update(context.Background(), id, models.PostPatch{Title: strPtr("x")}, caller)
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestPosts_Update_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	caller := uuid.New()
	id := "68b000000000000000000001"

	st.EXPECT().PostByID(gomock.Any(), id).
		Return(&models.Post{ID: id, Owner: caller.String(), Title: "old"}, nil)
	st.EXPECT().UpdatePost(gomock.Any(), id, map[string]any{"title": "new"}).
		Return(&models.Post{ID: id, Owner: caller.String(), Title: "new"}, nil)

	got, err := svc.Posts.Update(context.Background(), id, models.PostPatch{Title: strPtr(" new ")}, caller)
	require.NoError(t, err)
	require.Equal(t, "new", got.Title)
}

func TestPosts_Update_EmptyPatchField_Validation(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Обнуление обязательного поля запрещено.
	_, err := svc.Posts.Update(context.Background(), "68b000000000000000000001",
		models.PostPatch{Title: strPtr("   ")}, uuid.New())
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []string{"title"}, verr.Fields)
}

func TestPosts_Delete_OK_And_Forbidden(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	caller := uuid.New()
	id := "68b000000000000000000001"

	st.EXPECT().PostByID(gomock.Any(), id).
		Return(&models.Post{ID: id, Owner: caller.String()}, nil)
	st.EXPECT().DeletePost(gomock.Any(), id).Return(nil)

	require.NoError(t, svc.Posts.Delete(context.Background(), id, caller))

	st.EXPECT().PostByID(gomock.Any(), id).
		Return(&models.Post{ID: id, Owner: uuid.New().String()}, nil)

	err := svc.Posts.Delete(context.Background(), id, caller)
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestComments_Create_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	caller := uuid.New()

	st.EXPECT().SaveComment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c models.Comment) (*models.Comment, error) {
			require.Equal(t, caller.String(), c.Owner)
			require.Equal(t, "68b000000000000000000001", c.PostID)
			c.ID = "68b000000000000000000002"
			return &c, nil
		})

	got, err := svc.Comments.Create(context.Background(), models.CreateCommentInput{
		PostID:  "68b000000000000000000001",
		Content: "nice",
	}, caller)
	require.NoError(t, err)
	require.Equal(t, "68b000000000000000000002", got.ID)
}

func TestComments_Create_Validation(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.Comments.Create(context.Background(), models.CreateCommentInput{}, uuid.New())
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.ElementsMatch(t, []string{"post_id", "content"}, verr.Fields)
}

func TestComments_List_CombinedFilters(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	owner := uuid.New().String()
	post := "68b000000000000000000001"

	st.EXPECT().Comments(gomock.Any(), owner, post).
		Return([]models.Comment{{ID: "c1", Owner: owner, PostID: post}}, nil)

	got, err := svc.Comments.List(context.Background(), ListFilter{Owner: owner, Post: post})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestComments_Update_ForeignOwner_PermissionDenied(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := "68b000000000000000000002"
	st.EXPECT().CommentByID(gomock.Any(), id).
		Return(&models.Comment{ID: id, Owner: uuid.New().String()}, nil)

	_, err := svc.Comments.Update(context.Background(), id, models.CommentPatch{Content: strPtr("x")}, uuid.New())
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestResources_List_StorageError_Propagated(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().Posts(gomock.Any(), "").Return(nil, errors.New("db down"))

	_, err := svc.Posts.List(context.Background(), ListFilter{})
	require.Error(t, err)
}
