package router

import (
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-blog-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-blog-go/internal/comment"
	"github.com/ovaphlow/pitchfork/service-blog-go/internal/post"
	"github.com/ovaphlow/pitchfork/service-blog-go/internal/user"
)

// Config holds the HTTP surface settings.
type Config struct {
	BasePath      string
	AllowedOrigin string
}

// ConfigFromEnv reads API_BASE_PATH (default /api) and CORS_ALLOWED_ORIGIN (default *).
func ConfigFromEnv() Config {
	base, ok := os.LookupEnv("API_BASE_PATH")
	if !ok {
		base = "/api"
	}
	origin := os.Getenv("CORS_ALLOWED_ORIGIN")
	if origin == "" {
		origin = "*"
	}
	return Config{BasePath: base, AllowedOrigin: origin}
}

// normalizeBase returns "" or a path with one leading and no trailing slash.
func normalizeBase(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// Deps are the services behind the routes.
type Deps struct {
	Users    *user.UserService
	Posts    *post.Service
	Comments *comment.Service
	Tokens   auth.TokenVerifier
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, deps Deps, cfg Config) http.Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}
	base := normalizeBase(cfg.BasePath)
	mux := http.NewServeMux()
	gate := auth.Middleware(deps.Tokens, logger)
	protect := func(h http.HandlerFunc) http.Handler { return gate(h) }

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// auth
	users := user.NewHandler(deps.Users, logger)
	mux.HandleFunc("POST "+base+"/auth/register", users.Register)
	mux.HandleFunc("POST "+base+"/auth/login", users.Login)
	mux.Handle("GET "+base+"/auth/me", protect(users.Me))
	mux.Handle("PUT "+base+"/auth/profile", protect(users.UpdateProfile))

	// posts
	posts := post.NewHandler(deps.Posts, logger)
	mux.HandleFunc("GET "+base+"/posts", posts.List)
	mux.Handle("GET "+base+"/posts/user", protect(posts.ListMine))
	mux.HandleFunc("GET "+base+"/posts/{id}", posts.Get)
	mux.Handle("POST "+base+"/posts", protect(posts.Create))
	mux.Handle("PUT "+base+"/posts/{id}", protect(posts.Update))
	mux.Handle("DELETE "+base+"/posts/{id}", protect(posts.Delete))

	// comments
	comments := comment.NewHandler(deps.Comments, logger)
	mux.HandleFunc("GET "+base+"/comments/post/{postId}", comments.ListByPost)
	mux.Handle("POST "+base+"/comments", protect(comments.Create))
	mux.Handle("PUT "+base+"/comments/{id}", protect(comments.Update))
	mux.Handle("DELETE "+base+"/comments/{id}", protect(comments.Delete))

	var handler http.Handler = mux
	handler = SecurityHeadersMiddleware()(handler)
	handler = CORSMiddleware(cfg.AllowedOrigin)(handler)
	handler = RecoverMiddleware(logger)(handler)
	handler = LoggingMiddleware(logger)(handler)
	handler = RequestIDMiddleware()(handler)
	return handler
}
