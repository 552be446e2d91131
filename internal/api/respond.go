package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/jobs"
	"github.com/sells-group/outreach-cli/internal/scrape"
)

type errorBody struct {
	Detail string `json:"detail"`
	Kind   string `json:"error_kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeFailure maps err onto a status code by its scrape category.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	kind := scrape.KindOf(err)
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed",
			zap.String("path", r.URL.Path),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorBody{Detail: err.Error(), Kind: string(kind)})
}

func statusFor(err error) int {
	if errors.Is(err, jobs.ErrNotFound) {
		return http.StatusNotFound
	}
	switch scrape.KindOf(err) {
	case scrape.KindUnsupportedPlatform:
		return http.StatusBadRequest
	case scrape.KindMissingConfiguration, scrape.KindMissingCredential:
		return http.StatusServiceUnavailable
	case scrape.KindProviderInvocation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger logs one line per request through zap.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			zap.L().Info("api: request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
