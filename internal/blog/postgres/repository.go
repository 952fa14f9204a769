// Package postgres provides the PostgreSQL implementation of the blog
// repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkdrift/inkdrift/internal/blog"
	"github.com/inkdrift/inkdrift/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements blog.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreatePost creates a new draft post.
func (r *Repository) CreatePost(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (title, slug, content_html, cover_image_url, cover_position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, published, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		post.Title,
		post.Slug,
		post.ContentHTML,
		post.CoverImageURL,
		post.CoverPosition,
	).Scan(&post.ID, &post.Published, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return blog.ErrSlugTaken
		}
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// GetPostBySlug retrieves a post by slug, archived or not.
func (r *Repository) GetPostBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	query := `
		SELECT id, title, slug, content_html, cover_image_url, cover_position,
		       published, published_at, created_at, updated_at, archived_at
		FROM posts
		WHERE slug = $1
	`
	var p domain.Post
	err := r.db.QueryRow(ctx, query, slug).Scan(
		&p.ID,
		&p.Title,
		&p.Slug,
		&p.ContentHTML,
		&p.CoverImageURL,
		&p.CoverPosition,
		&p.Published,
		&p.PublishedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.ArchivedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blog.ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}

	categoryIDs, err := r.GetPostCategories(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.CategoryIDs = categoryIDs

	return &p, nil
}

// ListPosts lists posts matching the filter, newest first.
func (r *Repository) ListPosts(ctx context.Context, filter blog.PostFilter) ([]domain.Post, error) {
	query := `
		SELECT DISTINCT p.id, p.title, p.slug, p.content_html, p.cover_image_url, p.cover_position,
		       p.published, p.published_at, p.created_at, p.updated_at, p.archived_at
		FROM posts p
		LEFT JOIN post_categories pc ON pc.post_id = p.id
		LEFT JOIN categories c ON c.id = pc.category_id
		WHERE 1=1
	`
	args := []interface{}{}

	if !filter.IncludeArchived {
		query += ` AND p.archived_at IS NULL`
	}
	if filter.PublishedOnly {
		query += ` AND p.published = TRUE`
	}
	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		query += fmt.Sprintf(` AND c.slug = $%d`, len(args))
	}

	query += ` ORDER BY p.created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]domain.Post, 0)
	for rows.Next() {
		var p domain.Post
		err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Slug,
			&p.ContentHTML,
			&p.CoverImageURL,
			&p.CoverPosition,
			&p.Published,
			&p.PublishedAt,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.ArchivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// UpdatePost updates a post's editable fields.
func (r *Repository) UpdatePost(ctx context.Context, post *domain.Post) error {
	query := `
		UPDATE posts
		SET title = $2, content_html = $3, cover_image_url = $4, cover_position = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		post.ID,
		post.Title,
		post.ContentHTML,
		post.CoverImageURL,
		post.CoverPosition,
	).Scan(&post.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return blog.ErrPostNotFound
		}
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// ArchivePost soft-deletes a post.
func (r *Repository) ArchivePost(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `UPDATE posts SET archived_at = NOW(), updated_at = NOW() WHERE id = $1 AND archived_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("archive post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return blog.ErrPostNotFound
	}
	return nil
}

// SetPublished flips a post's publication flag. Publishing stamps
// published_at once; republishing keeps the original timestamp.
func (r *Repository) SetPublished(ctx context.Context, id string, published bool) error {
	query := `
		UPDATE posts
		SET published = $2,
		    published_at = CASE WHEN $2 AND published_at IS NULL THEN NOW() ELSE published_at END,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, published)
	if err != nil {
		return fmt.Errorf("set published: %w", err)
	}
	if result.RowsAffected() == 0 {
		return blog.ErrPostNotFound
	}
	return nil
}

// SetPostCategories replaces a post's category assignments.
func (r *Repository) SetPostCategories(ctx context.Context, postID string, categoryIDs []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM post_categories WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("clear post categories: %w", err)
	}

	for _, categoryID := range categoryIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO post_categories (post_id, category_id) VALUES ($1, $2)`,
			postID, categoryID,
		); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return blog.ErrCategoryNotFound
			}
			return fmt.Errorf("insert post category: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetPostCategories returns a post's category IDs.
func (r *Repository) GetPostCategories(ctx context.Context, postID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT category_id FROM post_categories WHERE post_id = $1`, postID)
	if err != nil {
		return nil, fmt.Errorf("get post categories: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan category id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateCategory creates a new category.
func (r *Repository) CreateCategory(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (name, slug)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, category.Name, category.Slug).Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return blog.ErrSlugTaken
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, slug, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategoryBySlug retrieves a category by slug.
func (r *Repository) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRow(ctx, `SELECT id, name, slug, created_at FROM categories WHERE slug = $1`, slug).
		Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blog.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// CreateComment creates a new comment.
func (r *Repository) CreateComment(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (post_id, author_name, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, comment.PostID, comment.AuthorName, comment.Body).
		Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListComments returns a post's comments in chronological order.
func (r *Repository) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	query := `
		SELECT id, post_id, author_name, body, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]domain.Comment, 0)
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// DeleteComment removes a comment.
func (r *Repository) DeleteComment(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return blog.ErrCommentNotFound
	}
	return nil
}

// SetGallery replaces a post's gallery images atomically.
func (r *Repository) SetGallery(ctx context.Context, postID string, images []domain.GalleryImage) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM gallery_images WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("clear gallery: %w", err)
	}

	for _, img := range images {
		if _, err := tx.Exec(ctx,
			`INSERT INTO gallery_images (post_id, url, caption, position) VALUES ($1, $2, $3, $4)`,
			postID, img.URL, img.Caption, img.Position,
		); err != nil {
			return fmt.Errorf("insert gallery image: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListGallery returns a post's gallery images ordered by position.
func (r *Repository) ListGallery(ctx context.Context, postID string) ([]domain.GalleryImage, error) {
	query := `
		SELECT id, post_id, url, caption, position, created_at
		FROM gallery_images
		WHERE post_id = $1
		ORDER BY position
	`
	rows, err := r.db.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}
	defer rows.Close()

	images := make([]domain.GalleryImage, 0)
	for rows.Next() {
		var img domain.GalleryImage
		if err := rows.Scan(&img.ID, &img.PostID, &img.URL, &img.Caption, &img.Position, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan gallery image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
