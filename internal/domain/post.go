package domain

import "time"

// Post represents a blog post. Content is stored as sanitized rich HTML
// produced by the editor.
type Post struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	ContentHTML   string     `json:"content_html"`
	CoverImageURL string     `json:"cover_image_url,omitempty"`
	CoverPosition int        `json:"cover_position"`
	CategoryIDs   []string   `json:"category_ids"`
	Published     bool       `json:"published"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
}

// IsArchived returns true if the post is archived.
func (p *Post) IsArchived() bool {
	return p.ArchivedAt != nil
}

// Category represents a post category used for filtering.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// GalleryImage represents one photo in a post's gallery. Images are hosted
// externally; only the URL and ordering live here.
type GalleryImage struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	URL       string    `json:"url"`
	Caption   string    `json:"caption,omitempty"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
