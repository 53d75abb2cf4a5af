package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/georegions/regions/internal/metrics"
	"github.com/georegions/regions/internal/models"
	"github.com/georegions/regions/pkg/logger"
)

// Recover returns a middleware that turns a handler panic into a 500 error
// body. http.ErrAbortHandler is re-raised so the server can drop the
// connection.
func Recover(log *logger.Logger) Middleware {
	if log == nil {
		log = logger.Nop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := wrap(w)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				metrics.PanicsTotal.Inc()

				id := ErrorID(r.Context())
				log.Error("panic serving request",
					"panic", rec,
					"request_id", id,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				if rw.wroteHeader {
					return
				}
				rw.Header().Set("Content-Type", "application/json")
				rw.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(rw).Encode(models.NewErrorResponse(id, http.StatusText(http.StatusInternalServerError)))
			}()

			next.ServeHTTP(rw, r)
		})
	}
}
