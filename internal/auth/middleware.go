package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/utilities"
)

// ErrUnauthenticated is what the gate answers for any missing or bad credential.
var ErrUnauthenticated = apperr.Unauthenticated("Please authenticate.")

// TokenVerifier resolves a bearer token to an identity id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Middleware returns the auth gate. Requests without a verifiable bearer token
// are answered with 401 and never reach next. The identity is not looked up in
// storage; handlers that need the record load it themselves.
func Middleware(verifier TokenVerifier, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				utilities.WriteError(w, logger, ErrUnauthenticated, ErrUnauthenticated.Message)
				return
			}
			id, err := verifier.Verify(token)
			if err != nil {
				if logger != nil {
					logger.Debugw("token rejected", "path", r.URL.Path, "err", err)
				}
				utilities.WriteError(w, logger, ErrUnauthenticated, ErrUnauthenticated.Message)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < len("bearer ") || !strings.EqualFold(h[:len("bearer ")], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(h[len("bearer "):])
	return token, token != ""
}
