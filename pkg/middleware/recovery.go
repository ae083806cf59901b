package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	apperrors "ptcms/pkg/errors"
	httputil "ptcms/pkg/http"
	"ptcms/pkg/logger"
)

// Recovery turns a handler panic into a 500. http.ErrAbortHandler is passed
// on to net/http untouched. Upgraded live sessions own the connection, so
// nothing is written back for them.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				log.Error("Handler panicked",
					"request_id", RequestIDFromContext(r.Context()),
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"live", isWebSocketUpgrade(r),
					"stack", string(debug.Stack()),
				)
				if isWebSocketUpgrade(r) {
					return
				}
				_ = httputil.WriteError(w, apperrors.Internal("Lỗi hệ thống, vui lòng thử lại", nil))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
