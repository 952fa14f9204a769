// Package blog provides posts, categories, comments and photo galleries.
package blog

import (
	"context"

	"github.com/inkdrift/inkdrift/internal/domain"
)

// PostFilter narrows post listings.
type PostFilter struct {
	PublishedOnly   bool
	IncludeArchived bool
	CategorySlug    string
}

// Repository defines the interface for blog data access.
type Repository interface {
	CreatePost(ctx context.Context, post *domain.Post) error
	GetPostBySlug(ctx context.Context, slug string) (*domain.Post, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]domain.Post, error)
	UpdatePost(ctx context.Context, post *domain.Post) error
	ArchivePost(ctx context.Context, id string) error
	SetPublished(ctx context.Context, id string, published bool) error

	SetPostCategories(ctx context.Context, postID string, categoryIDs []string) error
	GetPostCategories(ctx context.Context, postID string) ([]string, error)

	CreateCategory(ctx context.Context, category *domain.Category) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)

	CreateComment(ctx context.Context, comment *domain.Comment) error
	ListComments(ctx context.Context, postID string) ([]domain.Comment, error)
	DeleteComment(ctx context.Context, id string) error

	SetGallery(ctx context.Context, postID string, images []domain.GalleryImage) error
	ListGallery(ctx context.Context, postID string) ([]domain.GalleryImage, error)
}
