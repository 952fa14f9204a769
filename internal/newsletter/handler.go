package newsletter

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/inkdrift/inkdrift/internal/blog"
	"github.com/inkdrift/inkdrift/internal/domain"
	"github.com/inkdrift/inkdrift/internal/pkg/httputil"
)

// Every form action ends in exactly one of these responses; the frontend maps
// them 1:1 to its display states.
var errorMappings = []httputil.ErrorMapping{
	{Error: ErrInvalidEmail, Status: http.StatusBadRequest, Message: "please enter a valid email address"},
	{Error: ErrAlreadySubscribed, Status: http.StatusConflict, Message: "this email is already subscribed"},
	{Error: ErrAlreadyUnsubscribed, Status: http.StatusConflict, Message: "this email is already unsubscribed"},
	{Error: ErrNotSubscribed, Status: http.StatusNotFound, Message: "this email is not subscribed"},
	{Error: ErrStorage, Status: http.StatusServiceUnavailable, Message: "something went wrong, please try again"},
	{Error: ErrDispatchUnavailable, Status: http.StatusServiceUnavailable, Message: "email delivery is currently unavailable"},
	{Error: ErrBroadcastFailed, Status: http.StatusBadGateway, Message: "newsletter delivery failed for all recipients"},
	{Error: blog.ErrPostNotFound, Status: http.StatusNotFound, Message: "post not found"},
}

// PostProvider supplies published post data for broadcasts.
type PostProvider interface {
	GetPublishedPost(ctx context.Context, slug string) (*domain.Post, error)
}

// Handler handles HTTP requests for the newsletter module.
type Handler struct {
	service    *Service
	dispatcher *Dispatcher
	posts      PostProvider
	validator  *validator.Validate
}

// NewHandler creates a new newsletter handler. dispatcher may be nil when
// email delivery is disabled; broadcast requests then fail with 503.
func NewHandler(service *Service, dispatcher *Dispatcher, posts PostProvider) *Handler {
	return &Handler{
		service:    service,
		dispatcher: dispatcher,
		posts:      posts,
		validator:  validator.New(),
	}
}

// RegisterPublicRoutes registers the subscribe/unsubscribe routes.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Route("/newsletter", func(r chi.Router) {
		r.Post("/subscribe", h.Subscribe)
		r.Post("/unsubscribe", h.Unsubscribe)
		// Deep link from email footers: unsubscribes on load.
		r.Get("/unsubscribe", h.UnsubscribeLink)
	})
}

// RegisterAdminRoutes registers routes that require admin auth.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/newsletter/subscribers", h.ListSubscribers)
	r.Get("/newsletter/subscribers/count", h.SubscriberCount)
	r.Post("/newsletter/broadcast/{slug}", h.Broadcast)
}

// EmailRequest represents request body for subscribe and unsubscribe.
type EmailRequest struct {
	Email string `json:"email" validate:"required"`
}

// Subscribe handles POST /newsletter/subscribe.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	subscriber, err := h.service.Subscribe(r.Context(), req.Email)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, subscriber)
}

// Unsubscribe handles POST /newsletter/unsubscribe.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	h.unsubscribe(w, r, req.Email)
}

// UnsubscribeLink handles GET /newsletter/unsubscribe?email=...
// The landing page skips the input form; the business logic is identical to
// the manual variant.
func (h *Handler) UnsubscribeLink(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httputil.Error(w, http.StatusBadRequest, "missing email parameter")
		return
	}

	h.unsubscribe(w, r, email)
}

func (h *Handler) unsubscribe(w http.ResponseWriter, r *http.Request, email string) {
	subscriber, err := h.service.Unsubscribe(r.Context(), email)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, subscriber)
}

// MaskedSubscriber is the admin listing entry with the local-part truncated.
type MaskedSubscriber struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	SubscribedAt string `json:"subscribed_at"`
}

// ListSubscribers handles GET /newsletter/subscribers. Local-parts are masked
// here; the service always returns full records.
func (h *Handler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subscribers, err := h.service.ActiveSubscribers(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	masked := make([]MaskedSubscriber, 0, len(subscribers))
	for _, s := range subscribers {
		masked = append(masked, MaskedSubscriber{
			ID:           s.ID,
			Email:        maskEmail(s.Email),
			SubscribedAt: s.SubscribedAt.Format("2006-01-02"),
		})
	}

	httputil.Success(w, http.StatusOK, masked)
}

// SubscriberCount handles GET /newsletter/subscribers/count.
func (h *Handler) SubscriberCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.SubscriberCount(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, map[string]int{"count": count})
}

// Broadcast handles POST /newsletter/broadcast/{slug}. Partial failure is
// still a completed operation; only a fully failed batch errors out.
func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	if h.dispatcher == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "email delivery is currently unavailable")
		return
	}

	slug := chi.URLParam(r, "slug")

	post, err := h.posts.GetPublishedPost(r.Context(), slug)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	result, err := h.dispatcher.Broadcast(r.Context(), BroadcastInput{
		PostID:    post.ID,
		PostTitle: post.Title,
		PostHTML:  post.ContentHTML,
		PostSlug:  post.Slug,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, result)
}

// maskEmail truncates the local-part for display: "alice@example.com"
// becomes "a***@example.com".
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
