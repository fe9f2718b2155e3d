package service

import (
	"context"
	"strings"

	"github.com/pribylovaa/go-blog-backend/internal/models"
	"github.com/pribylovaa/go-blog-backend/internal/storage"
)

// newCommentResources связывает универсальный движок с хранилищем комментариев.
func newCommentResources(st storage.Storage) *Resources[models.Comment, models.CreateCommentInput, models.CommentPatch] {
	return &Resources[models.Comment, models.CreateCommentInput, models.CommentPatch]{
		kind: "comment",
		repo: repoFuncs[models.Comment]{
			list: func(ctx context.Context, f ListFilter) ([]models.Comment, error) {
				return st.Comments(ctx, f.Owner, f.Post)
			},
			byID:    st.CommentByID,
			insert:  st.SaveComment,
			update:  st.UpdateComment,
			deleteF: st.DeleteComment,
		},
		validateCreate: func(in *models.CreateCommentInput) *ValidationError {
			in.PostID = strings.TrimSpace(in.PostID)
			in.Content = strings.TrimSpace(in.Content)

			var fields []string
			if in.PostID == "" {
				fields = append(fields, "post_id")
			}
			if in.Content == "" {
				fields = append(fields, "content")
			}

			if len(fields) > 0 {
				return &ValidationError{Fields: fields}
			}

			return nil
		},
		build: func(in models.CreateCommentInput, owner string) models.Comment {
			return models.Comment{
				PostID:  in.PostID,
				Content: in.Content,
				Owner:   owner,
			}
		},
		patchSet: func(p models.CommentPatch) (map[string]any, *ValidationError) {
			set := make(map[string]any)

			if p.Content != nil {
				v := strings.TrimSpace(*p.Content)
				if v == "" {
					return nil, &ValidationError{Fields: []string{"content"}}
				}
				set["content"] = v
			}

			return set, nil
		},
	}
}
