package httpapi

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type RouterConfig struct {
	// ModeratorToken guards the queue and decision endpoints. Empty disables
	// them.
	ModeratorToken string
	// Limiter throttles uploads and decisions per client address. Nil means
	// unlimited.
	Limiter RateLimiter
	Logger  zerolog.Logger
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	moderator := func(next http.HandlerFunc) http.Handler {
		return requireModerator(cfg.ModeratorToken, next)
	}
	limited := func(next http.Handler) http.Handler {
		return rateLimit(cfg.Limiter, next)
	}

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /videos/feed", h.ListFeed)
	mux.Handle("GET /videos/queue", moderator(h.ListQueue))
	mux.Handle("GET /videos/{id}", identifyModerator(cfg.ModeratorToken, http.HandlerFunc(h.GetVideo)))
	mux.Handle("POST /videos/{id}/decision", limited(moderator(h.Decide)))
	mux.Handle("POST /videos", limited(http.HandlerFunc(h.Submit)))

	return accessLog(cfg.Logger, mux)
}

type moderatorKey struct{}

func requireModerator(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validModeratorToken(token, r) {
			writeErrorJSON(w, http.StatusUnauthorized, "moderator token required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), moderatorKey{}, true)))
	})
}

// identifyModerator lets every request through and marks the ones carrying a
// valid moderator token. A wrong token is treated as anonymous.
func identifyModerator(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if validModeratorToken(token, r) {
			r = r.WithContext(context.WithValue(r.Context(), moderatorKey{}, true))
		}
		next.ServeHTTP(w, r)
	})
}

func isModerator(ctx context.Context) bool {
	ok, _ := ctx.Value(moderatorKey{}).(bool)
	return ok
}

func validModeratorToken(token string, r *http.Request) bool {
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return token != "" && ok && subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

func rateLimit(limiter RateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			writeErrorJSON(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func accessLog(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}
