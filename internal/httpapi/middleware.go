package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"
)

// Ambient middleware for the marketplace API: request ids, access logging
// and panic recovery. NewRouter stacks them outermost-first.

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID tags every request with an id and echoes it back to the client.
// An id supplied by a trusted proxy via X-Request-Id is kept as-is.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = freshRequestID()
			}
			w.Header().Set("X-Request-Id", id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
		})
	}
}

func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// RequestLogger writes one access-log line per request. Server errors are
// logged at error level so they stand out from routine traffic.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := &loggedResponse{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(lw, r)

			l := logger
			if rid, ok := GetRequestID(r.Context()); ok {
				l = l.With("request_id", rid)
			}
			level := slog.LevelInfo
			if lw.status >= 500 {
				level = slog.LevelError
			}
			l.Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"ip", clientIP(r),
				"status", lw.status,
				"bytes", lw.written,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// Recoverer converts a handler panic into a JSON 500 instead of a dropped
// connection. http.ErrAbortHandler keeps its meaning and is re-raised.
func Recoverer(logger *slog.Logger, isProd bool) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				fields := []any{"panic", rec, "method", r.Method, "path", r.URL.Path}
				if !isProd {
					fields = append(fields, "stack", string(debug.Stack()))
				}
				logger.Error("handler panic", fields...)
				WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}

type loggedResponse struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *loggedResponse) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *loggedResponse) Write(p []byte) (int, error) {
	n, err := w.ResponseWriter.Write(p)
	w.written += n
	return n, err
}

func freshRequestID() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "t-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(b[:])
}
