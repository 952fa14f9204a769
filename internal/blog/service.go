package blog

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/inkdrift/inkdrift/internal/domain"
)

// Service provides blog business logic.
type Service struct {
	repo Repository
}

// NewService creates a new blog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreatePostInput contains data for creating a post.
type CreatePostInput struct {
	Title         string
	Slug          string
	ContentHTML   string
	CoverImageURL string
	CoverPosition int
	CategoryIDs   []string
}

// CreatePost creates a new draft post. The slug is derived from the title
// when not provided.
func (s *Service) CreatePost(ctx context.Context, input CreatePostInput) (*domain.Post, error) {
	slug := input.Slug
	if slug == "" {
		slug = Slugify(input.Title)
	}

	post := &domain.Post{
		Title:         input.Title,
		Slug:          slug,
		ContentHTML:   input.ContentHTML,
		CoverImageURL: input.CoverImageURL,
		CoverPosition: input.CoverPosition,
		CategoryIDs:   input.CategoryIDs,
	}

	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	if len(input.CategoryIDs) > 0 {
		if err := s.repo.SetPostCategories(ctx, post.ID, input.CategoryIDs); err != nil {
			return nil, fmt.Errorf("set post categories: %w", err)
		}
	}

	slog.Info("post created", "post_id", post.ID, "slug", post.Slug)
	return post, nil
}

// UpdatePostInput contains data for updating a post. Nil fields are left
// unchanged.
type UpdatePostInput struct {
	Title         *string
	ContentHTML   *string
	CoverImageURL *string
	CoverPosition *int
	CategoryIDs   []string
}

// UpdatePost applies a partial update to a post.
func (s *Service) UpdatePost(ctx context.Context, slug string, input UpdatePostInput) (*domain.Post, error) {
	post, err := s.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post.IsArchived() {
		return nil, ErrPostArchived
	}

	if input.Title != nil {
		post.Title = *input.Title
	}
	if input.ContentHTML != nil {
		post.ContentHTML = *input.ContentHTML
	}
	if input.CoverImageURL != nil {
		post.CoverImageURL = *input.CoverImageURL
	}
	if input.CoverPosition != nil {
		post.CoverPosition = *input.CoverPosition
	}

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		return nil, err
	}

	if input.CategoryIDs != nil {
		if err := s.repo.SetPostCategories(ctx, post.ID, input.CategoryIDs); err != nil {
			return nil, fmt.Errorf("set post categories: %w", err)
		}
		post.CategoryIDs = input.CategoryIDs
	}

	return post, nil
}

// PublishPost marks a post as published, making it visible to readers and
// eligible for newsletter broadcast.
func (s *Service) PublishPost(ctx context.Context, slug string) (*domain.Post, error) {
	post, err := s.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post.IsArchived() {
		return nil, ErrPostArchived
	}

	if err := s.repo.SetPublished(ctx, post.ID, true); err != nil {
		return nil, err
	}

	post.Published = true
	now := time.Now()
	post.PublishedAt = &now

	slog.Info("post published", "post_id", post.ID, "slug", post.Slug)
	return post, nil
}

// ArchivePost soft-deletes a post. Archived posts disappear from listings
// but keep their comments and gallery.
func (s *Service) ArchivePost(ctx context.Context, slug string) error {
	post, err := s.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.repo.ArchivePost(ctx, post.ID)
}

// GetPost returns a post by slug regardless of publication state.
func (s *Service) GetPost(ctx context.Context, slug string) (*domain.Post, error) {
	return s.repo.GetPostBySlug(ctx, slug)
}

// GetPublishedPost returns a published, non-archived post by slug. Used by
// the public read path and by newsletter broadcasts.
func (s *Service) GetPublishedPost(ctx context.Context, slug string) (*domain.Post, error) {
	post, err := s.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post.IsArchived() || !post.Published {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// ListPublished returns published posts, optionally filtered by category slug.
func (s *Service) ListPublished(ctx context.Context, categorySlug string) ([]domain.Post, error) {
	if categorySlug != "" {
		if _, err := s.repo.GetCategoryBySlug(ctx, categorySlug); err != nil {
			return nil, err
		}
	}
	return s.repo.ListPosts(ctx, PostFilter{PublishedOnly: true, CategorySlug: categorySlug})
}

// ListAll returns every non-archived post, drafts included.
func (s *Service) ListAll(ctx context.Context) ([]domain.Post, error) {
	return s.repo.ListPosts(ctx, PostFilter{})
}

// CreateCategory creates a new category.
func (s *Service) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	category := &domain.Category{
		Name: name,
		Slug: Slugify(name),
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

// AddComment attaches a reader comment to a published post.
func (s *Service) AddComment(ctx context.Context, postSlug, authorName, body string) (*domain.Comment, error) {
	post, err := s.GetPublishedPost(ctx, postSlug)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		PostID:     post.ID,
		AuthorName: strings.TrimSpace(authorName),
		Body:       strings.TrimSpace(body),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns a published post's comments in chronological order.
func (s *Service) ListComments(ctx context.Context, postSlug string) ([]domain.Comment, error) {
	post, err := s.GetPublishedPost(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, post.ID)
}

// DeleteComment removes a comment (admin moderation).
func (s *Service) DeleteComment(ctx context.Context, id string) error {
	return s.repo.DeleteComment(ctx, id)
}

// SetGallery replaces a post's gallery images with the given ordered set.
func (s *Service) SetGallery(ctx context.Context, postSlug string, images []domain.GalleryImage) ([]domain.GalleryImage, error) {
	post, err := s.repo.GetPostBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}

	for i := range images {
		images[i].PostID = post.ID
		images[i].Position = i
	}

	if err := s.repo.SetGallery(ctx, post.ID, images); err != nil {
		return nil, err
	}
	return s.repo.ListGallery(ctx, post.ID)
}

// ListGallery returns a post's gallery images ordered by position.
func (s *Service) ListGallery(ctx context.Context, postSlug string) ([]domain.GalleryImage, error) {
	post, err := s.repo.GetPostBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	return s.repo.ListGallery(ctx, post.ID)
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a title to a URL-safe slug.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugStrip.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
