package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/shashiranjanraj/recordshop/pkg/logger"
	"github.com/shashiranjanraj/recordshop/pkg/response"
)

// Recovery answers a handler panic with a JSON 500. A panic after the
// response started (an event stream, an upgraded socket) can only drop the
// connection, so it is re-raised as http.ErrAbortHandler. Panics that
// already are http.ErrAbortHandler pass through unlogged. Mount it first.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(v)
			}
			logger.L.Error("feed: handler panic",
				"panic", v,
				"request_id", w.Header().Get(HeaderRequestID),
				"method", r.Method,
				"path", r.URL.Path,
				"started", rw.started,
				"stack", string(debug.Stack()),
			)
			if rw.started {
				panic(http.ErrAbortHandler)
			}
			response.Error(w, http.StatusInternalServerError, "Internal Server Error")
		}()
		next.ServeHTTP(rw, r)
	})
}
