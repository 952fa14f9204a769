package blog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/inkdrift/inkdrift/internal/domain"
	"github.com/inkdrift/inkdrift/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrPostNotFound, Status: http.StatusNotFound, Message: "post not found"},
	{Error: ErrPostArchived, Status: http.StatusConflict, Message: "post is archived"},
	{Error: ErrSlugTaken, Status: http.StatusConflict, Message: "slug already in use"},
	{Error: ErrCategoryNotFound, Status: http.StatusNotFound, Message: "category not found"},
	{Error: ErrCommentNotFound, Status: http.StatusNotFound, Message: "comment not found"},
}

// Handler handles HTTP requests for the blog module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new blog handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterPublicRoutes registers reader-facing routes.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/posts", h.ListPublished)
	r.Get("/posts/{slug}", h.GetPublishedPost)
	r.Get("/posts/{slug}/comments", h.ListComments)
	r.Post("/posts/{slug}/comments", h.AddComment)
	r.Get("/posts/{slug}/gallery", h.ListGallery)
	r.Get("/categories", h.ListCategories)
}

// RegisterAdminRoutes registers routes that require admin auth.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.ListAll)
		r.Post("/", h.CreatePost)
		r.Patch("/{slug}", h.UpdatePost)
		r.Delete("/{slug}", h.ArchivePost)
		r.Post("/{slug}/publish", h.PublishPost)
		r.Put("/{slug}/gallery", h.SetGallery)
	})
	r.Post("/categories", h.CreateCategory)
	r.Delete("/comments/{id}", h.DeleteComment)
}

// CreatePostRequest represents request body for creating a post.
type CreatePostRequest struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Slug          string   `json:"slug" validate:"omitempty,max=200"`
	ContentHTML   string   `json:"content_html" validate:"required"`
	CoverImageURL string   `json:"cover_image_url" validate:"omitempty,url"`
	CoverPosition int      `json:"cover_position" validate:"min=0,max=100"`
	CategoryIDs   []string `json:"category_ids" validate:"dive,uuid"`
}

// CreatePost handles POST /posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	post, err := h.service.CreatePost(r.Context(), CreatePostInput{
		Title:         req.Title,
		Slug:          req.Slug,
		ContentHTML:   req.ContentHTML,
		CoverImageURL: req.CoverImageURL,
		CoverPosition: req.CoverPosition,
		CategoryIDs:   req.CategoryIDs,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, post)
}

// UpdatePostRequest represents request body for a partial post update.
type UpdatePostRequest struct {
	Title         *string  `json:"title" validate:"omitempty,max=200"`
	ContentHTML   *string  `json:"content_html"`
	CoverImageURL *string  `json:"cover_image_url" validate:"omitempty,url"`
	CoverPosition *int     `json:"cover_position" validate:"omitempty,min=0,max=100"`
	CategoryIDs   []string `json:"category_ids" validate:"dive,uuid"`
}

// UpdatePost handles PATCH /posts/{slug}.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	post, err := h.service.UpdatePost(r.Context(), slug, UpdatePostInput{
		Title:         req.Title,
		ContentHTML:   req.ContentHTML,
		CoverImageURL: req.CoverImageURL,
		CoverPosition: req.CoverPosition,
		CategoryIDs:   req.CategoryIDs,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, post)
}

// PublishPost handles POST /posts/{slug}/publish.
func (h *Handler) PublishPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.PublishPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, post)
}

// ArchivePost handles DELETE /posts/{slug}.
func (h *Handler) ArchivePost(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ArchivePost(r.Context(), chi.URLParam(r, "slug")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPublished handles GET /posts?category=slug.
func (h *Handler) ListPublished(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPublished(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, posts)
}

// ListAll handles GET /posts (admin, drafts included).
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListAll(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, posts)
}

// GetPublishedPost handles GET /posts/{slug}.
func (h *Handler) GetPublishedPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPublishedPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, post)
}

// CreateCategoryRequest represents request body for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CreateCategory handles POST /categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	category, err := h.service.CreateCategory(r.Context(), req.Name)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, category)
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, categories)
}

// AddCommentRequest represents request body for adding a comment.
type AddCommentRequest struct {
	AuthorName string `json:"author_name" validate:"required,max=100"`
	Body       string `json:"body" validate:"required,max=4000"`
}

// AddComment handles POST /posts/{slug}/comments.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	comment, err := h.service.AddComment(r.Context(), chi.URLParam(r, "slug"), req.AuthorName, req.Body)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, comment)
}

// ListComments handles GET /posts/{slug}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, comments)
}

// DeleteComment handles DELETE /comments/{id}.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// Reject malformed ids before they reach the database as a type error.
	if _, err := uuid.Parse(id); err != nil {
		httputil.Error(w, http.StatusNotFound, "comment not found")
		return
	}

	if err := h.service.DeleteComment(r.Context(), id); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GalleryImageRequest represents one image in a gallery update.
type GalleryImageRequest struct {
	URL     string `json:"url" validate:"required,url"`
	Caption string `json:"caption" validate:"max=300"`
}

// SetGalleryRequest represents request body for replacing a post's gallery.
type SetGalleryRequest struct {
	Images []GalleryImageRequest `json:"images" validate:"dive"`
}

// SetGallery handles PUT /posts/{slug}/gallery. Image order in the request
// becomes the gallery order.
func (h *Handler) SetGallery(w http.ResponseWriter, r *http.Request) {
	var req SetGalleryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	images := make([]domain.GalleryImage, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, domain.GalleryImage{URL: img.URL, Caption: img.Caption})
	}

	gallery, err := h.service.SetGallery(r.Context(), chi.URLParam(r, "slug"), images)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, gallery)
}

// ListGallery handles GET /posts/{slug}/gallery.
func (h *Handler) ListGallery(w http.ResponseWriter, r *http.Request) {
	gallery, err := h.service.ListGallery(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, gallery)
}
