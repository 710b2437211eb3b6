package comment

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-blog-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/utilities"
)

// Handler exposes the /comments endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

// NewHandler returns the HTTP handlers for comments.
func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, logger: logger}
}

// ListByPost handles GET /comments/post/{postId}.
func (h *Handler) ListByPost(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.ListByPost(r.Context(), r.PathValue("postId"))
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error fetching comments")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, comments)
}

// Create handles POST /comments on an existing post.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInput
	if err := utilities.DecodeJSON(r, &req); err != nil {
		utilities.WriteError(w, h.logger, err, "Error creating comment")
		return
	}
	id, _ := auth.IdentityFrom(r.Context())
	c, err := h.svc.Create(r.Context(), id, req)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error creating comment")
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, c)
}

// Update handles PUT /comments/{id}. Owner only.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateInput
	if err := utilities.DecodeJSON(r, &req); err != nil {
		utilities.WriteError(w, h.logger, err, "Error updating comment")
		return
	}
	id, _ := auth.IdentityFrom(r.Context())
	c, err := h.svc.Update(r.Context(), id, r.PathValue("id"), req)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error updating comment")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /comments/{id}. Owner only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	if err := h.svc.Delete(r.Context(), id, r.PathValue("id")); err != nil {
		utilities.WriteError(w, h.logger, err, "Error deleting comment")
		return
	}
	utilities.WriteMessage(w, http.StatusOK, "Comment deleted")
}
