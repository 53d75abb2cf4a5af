package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/georegions/regions/pkg/logger"
)

// AccessLog returns a middleware that logs one line per request. Server
// errors are logged at error level and client errors at warn level.
func AccessLog(log *logger.Logger) Middleware {
	if log == nil {
		log = logger.Nop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrap(w)

			next.ServeHTTP(rw, r)

			level := slog.LevelInfo
			switch {
			case rw.statusCode >= http.StatusInternalServerError:
				level = slog.LevelError
			case rw.statusCode >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			if !log.Enabled(level) {
				return
			}

			log.Slog().Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", rw.statusCode,
				"bytes", rw.bytes,
				"duration", time.Since(start),
				"request_id", GetRequestID(r.Context()),
				"client_ip", GetClientIP(r.Context()),
			)
		})
	}
}
