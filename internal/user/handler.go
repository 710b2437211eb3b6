package user

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-blog-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/utilities"
)

// Handler exposes the /auth endpoints.
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

// NewHandler returns the HTTP handlers for /auth.
func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := utilities.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid register payload", "err", err)
		utilities.WriteError(w, h.logger, err, "Error creating user")
		return
	}
	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error creating user")
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, res)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginInput
	if err := utilities.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		utilities.WriteError(w, h.logger, err, "Error logging in")
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.logger.Debugw("login failed", "err", err)
		utilities.WriteError(w, h.logger, err, "Error logging in")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, res)
}

// Me handles GET /auth/me and requires the auth gate.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		utilities.WriteError(w, h.logger, auth.ErrUnauthenticated, "")
		return
	}
	u, err := h.svc.Me(r.Context(), id)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error fetching user")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u)
}

// UpdateProfile handles PUT /auth/profile and requires the auth gate.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		utilities.WriteError(w, h.logger, auth.ErrUnauthenticated, "")
		return
	}
	var req ProfileInput
	if err := utilities.DecodeJSON(r, &req); err != nil {
		utilities.WriteError(w, h.logger, err, "Error updating profile")
		return
	}
	u, err := h.svc.UpdateProfile(r.Context(), id, req)
	if err != nil {
		utilities.WriteError(w, h.logger, err, "Error updating profile")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u)
}
