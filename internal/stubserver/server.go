// Package stubserver is an in-memory stand-in for the Budget Mini Bot
// REST API, used for local development and integration tests. It speaks
// the same envelope and endpoint surface as the real backend but serves
// only seeded data; none of the backend's actual balance or report
// logic lives here.
package stubserver

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/budgetminibot/appcore/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// userIDKey is the context key for the authenticated user ID.
const userIDKey contextKey = "user_id"

// Server holds the stub's in-memory state.
type Server struct {
	tokens *tokenManager
	logger *slog.Logger

	mu        sync.Mutex
	users     map[int64]*userRecord
	groups    map[int64]*groupRecord
	transfers []models.TransferRequest
	nextID    int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates an empty stub server signing tokens with the given secret.
func New(secret string, opts ...Option) *Server {
	s := &Server{
		tokens: newTokenManager(secret, 24*time.Hour),
		logger: slog.Default(),
		users:  make(map[int64]*userRecord),
		groups: make(map[int64]*groupRecord),
		nextID: 1_000_000, // synthetic IDs for users registered without init data
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the full HTTP handler: routes under /api/v1, metrics
// exposition, and the logging and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/telegram", s.handleAuthTelegram)
	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("GET /api/v1/users/me", s.requireAuth(s.handleMe))
	mux.HandleFunc("GET /api/v1/groups/{id}/rules", s.requireAuth(s.handleGroupRules))
	mux.HandleFunc("POST /api/v1/groups/{id}/join", s.requireAuth(s.handleJoinGroup))
	mux.HandleFunc("POST /api/v1/rules/accept-rules", s.requireAuth(s.handleAcceptRules))
	mux.HandleFunc("GET /api/v1/groups/{id}/balances", s.requireAuth(s.handleGroupBalances))
	mux.HandleFunc("GET /api/v1/groups/{id}/members", s.requireAuth(s.handleGroupMembers))
	mux.HandleFunc("POST /api/v1/transfers/", s.requireAuth(s.handleSendTransfer))
	mux.HandleFunc("POST /api/v1/transfers/send-notification", s.requireAuth(s.handleTransferNotification))

	mux.Handle("GET /metrics", promhttp.Handler())

	return s.loggingMiddleware(corsMiddleware(mux))
}

// Serve runs the stub on addr until the listener fails. The handler is
// wrapped with h2c so HTTP/2 works without TLS.
func (s *Server) Serve(addr string) error {
	h2cHandler := h2c.NewHandler(s.Handler(), &http2.Server{})
	s.logger.Info("stub API server starting", "address", addr)
	return http.ListenAndServe(addr, h2cHandler)
}

// loggingMiddleware logs all incoming requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAuth validates the bearer token and stores the user ID in the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, errMissingToken.Error())
			return
		}
		claims, err := s.tokens.validate(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errInvalidToken.Error())
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next(w, r.WithContext(ctx))
	}
}

// requestUserID extracts the authenticated user ID from the context.
func requestUserID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}
