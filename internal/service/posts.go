package service

import (
	"context"
	"strings"

	"github.com/pribylovaa/go-blog-backend/internal/models"
	"github.com/pribylovaa/go-blog-backend/internal/storage"
)

// newPostResources связывает универсальный движок с хранилищем постов.
func newPostResources(st storage.Storage) *Resources[models.Post, models.CreatePostInput, models.PostPatch] {
	return &Resources[models.Post, models.CreatePostInput, models.PostPatch]{
		kind: "post",
		repo: repoFuncs[models.Post]{
			list: func(ctx context.Context, f ListFilter) ([]models.Post, error) {
				return st.Posts(ctx, f.Owner)
			},
			byID:    st.PostByID,
			insert:  st.SavePost,
			update:  st.UpdatePost,
			deleteF: st.DeletePost,
		},
		validateCreate: func(in *models.CreatePostInput) *ValidationError {
			in.Title = strings.TrimSpace(in.Title)
			in.Content = strings.TrimSpace(in.Content)

			var fields []string
			if in.Title == "" {
				fields = append(fields, "title")
			}
			if in.Content == "" {
				fields = append(fields, "content")
			}

			if len(fields) > 0 {
				return &ValidationError{Fields: fields}
			}

			return nil
		},
		build: func(in models.CreatePostInput, owner string) models.Post {
			return models.Post{
				Title:   in.Title,
				Content: in.Content,
				Owner:   owner,
			}
		},
		patchSet: func(p models.PostPatch) (map[string]any, *ValidationError) {
			set := make(map[string]any)
			var fields []string

			if p.Title != nil {
				if v := strings.TrimSpace(*p.Title); v != "" {
					set["title"] = v
				} else {
					fields = append(fields, "title")
				}
			}

			if p.Content != nil {
				if v := strings.TrimSpace(*p.Content); v != "" {
					set["content"] = v
				} else {
					fields = append(fields, "content")
				}
			}

			if len(fields) > 0 {
				return nil, &ValidationError{Fields: fields}
			}

			return set, nil
		},
	}
}
