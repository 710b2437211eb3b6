package post

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-blog-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/utilities"
)

// Handler exposes the /posts endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

// NewHandler returns the HTTP handlers for posts.
func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /posts: published posts, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPublished(r.Context())
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error fetching posts")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, posts)
}

// ListMine handles GET /posts/user and requires the auth gate.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	if id == "" {
		utilities.WriteError(w, h.logger, auth.ErrUnauthenticated, "")
		return
	}
	posts, err := h.svc.ListByAuthor(r.Context(), id)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error fetching user posts")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, posts)
}

// Get handles GET /posts/{id} with the post's comments.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error fetching post")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, p)
}

// Create handles POST /posts. The caller becomes the author.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInput
	if err := utilities.DecodeJSON(r, &req); err != nil {
		utilities.WriteError(w, h.logger, err, "Error creating post")
		return
	}
	id, _ := auth.IdentityFrom(r.Context())
	p, err := h.svc.Create(r.Context(), id, req)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error creating post")
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, p)
}

// Update handles PUT /posts/{id}. Owner only.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateInput
	if err := utilities.DecodeJSON(r, &req); err != nil {
		utilities.WriteError(w, h.logger, err, "Error updating post")
		return
	}
	id, _ := auth.IdentityFrom(r.Context())
	p, err := h.svc.Update(r.Context(), id, r.PathValue("id"), req)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error updating post")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /posts/{id}. Owner only. Comments go with the post.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	if err := h.svc.Delete(r.Context(), id, r.PathValue("id")); err != nil {
		utilities.WriteError(w, h.logger, err, "Error deleting post")
		return
	}
	utilities.WriteMessage(w, http.StatusOK, "Post deleted")
}
