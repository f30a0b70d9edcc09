package server

import (
	"net/http"
	"time"

	log "go.uber.org/zap"

	"github.com/yanet-platform/lifeexit/internal/types/traceid"
)

// requestIDMiddleware adds a request ID to the request context and response
// headers. A request ID sent by the client is kept.
func requestIDMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := traceid.ID(r.Header.Get(traceid.HeaderKey))
			if reqID == "" {
				reqID = traceid.Generate()
			}

			r = r.WithContext(traceid.NewContext(r.Context(), reqID))
			w.Header().Set(traceid.HeaderKey, reqID.String())

			start := time.Now()
			next.ServeHTTP(w, r)

			logger.Info("HTTP request completed",
				log.String("method", r.Method),
				log.String("path", r.URL.Path),
				log.String("remote_addr", r.RemoteAddr),
				log.Stringer("request_id", reqID),
				log.Duration("duration", time.Since(start)),
			)
		})
	}
}
