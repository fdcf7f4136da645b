package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"example.com/trainerworkload/internal/logging"
	httptransport "example.com/trainerworkload/internal/transport/http"
)

// PublicPaths are served without a token.
var PublicPaths = []string{"/healthz", "/metrics"}

// Middleware rejects requests that do not carry a valid bearer token.
type Middleware struct {
	cfg    Config
	public map[string]struct{}
	logger logging.Logger
}

// NewMiddleware builds a Middleware that lets publicPaths through unauthenticated.
func NewMiddleware(cfg Config, logger logging.Logger, publicPaths ...string) *Middleware {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &Middleware{cfg: cfg, public: toSet(publicPaths), logger: logger}
}

// Wrap authenticates requests before handing them to next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := m.public[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		token, err := bearerToken(r.Header.Get("Authorization"))
		var claims *Claims
		if err == nil {
			claims, err = Parse(token, m.cfg)
		}
		if err != nil {
			m.logger.Warn("rejected unauthenticated request",
				logging.TransactionID(httptransport.TransactionIDFromContext(r.Context())),
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Err(err),
			)
			unauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: expected Bearer scheme", ErrInvalidToken)
	}
	return token, nil
}

// unauthorized answers in the same problem shape as the workload API.
func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="trainer-workload"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"type":   "unauthorized",
		"detail": err.Error(),
	})
}
