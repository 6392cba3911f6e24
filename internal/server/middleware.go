package server

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/stockinfo/internal/common"
	"github.com/bobmcallan/stockinfo/internal/models"
)

type middleware func(http.Handler) http.Handler

// maxCorrelationIDLen bounds client-supplied ids before they reach the logs.
const maxCorrelationIDLen = 64

// statusRecorder captures the status and body size of a response for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.written += n
	return n, err
}

// Flush passes through to the wrapped writer when it supports flushing.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// lookup is the company/market pair a request asks about.
type lookup struct {
	company string
	market  string
}

// requestLookup reads the lookup fields from the query. ok is false for
// requests that carry no company, such as the bare form page or /api/health.
// An unrecognised market is logged as sent.
func requestLookup(r *http.Request) (lookup, bool) {
	if !r.URL.Query().Has("company") {
		return lookup{}, false
	}
	f := readForm(r)
	l := lookup{company: strings.TrimSpace(f.Company), market: f.Market}
	if m, err := models.ParseMarket(f.Market); err == nil {
		l.market = string(m)
	}
	return l, true
}

// attachmentName returns the download file name a response declared, if any.
func attachmentName(h http.Header) string {
	cd := h.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// recoveryMiddleware turns a handler panic into a 500 JSON error.
func recoveryMiddleware(logger *common.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				event := logger.Error().
					Str("panic", fmt.Sprintf("%v", rec)).
					Str("path", r.URL.Path).
					Str("correlation_id", w.Header().Get("X-Correlation-ID"))
				if l, ok := requestLookup(r); ok {
					event = event.Str("company", l.company).Str("market", l.market)
				}
				event.Msg("Panic recovered in HTTP handler")
				WriteErrorWithCode(w, http.StatusInternalServerError, "Internal server error", "internal_error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware opens the read-only /api/ routes to other origins.
// The HTML page is same-origin only.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-Correlation-ID")
		h.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Correlation-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// correlationIDMiddleware echoes the caller's request id or mints a short one.
func correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = strings.TrimSpace(r.Header.Get("X-Correlation-ID"))
		}
		if len(id) > maxCorrelationIDLen {
			id = id[:maxCorrelationIDLen]
		}
		if id == "" {
			id = uuid.New().String()[:8]
		}
		w.Header().Set("X-Correlation-ID", id)
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware writes one access line per request: trace for success,
// info for client errors, error for server and upstream failures. Report
// requests carry the company and market they asked for, and downloads
// carry the file name served.
func loggingMiddleware(logger *common.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sr, r)

			event := logger.Trace()
			switch {
			case sr.status >= 500:
				event = logger.Error()
			case sr.status >= 400:
				event = logger.Info()
			}

			event = event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sr.status).
				Int("bytes", sr.written).
				Dur("duration", time.Since(start)).
				Str("correlation_id", w.Header().Get("X-Correlation-ID"))
			if l, ok := requestLookup(r); ok {
				event = event.Str("company", l.company).Str("market", l.market)
			}
			if name := attachmentName(sr.Header()); name != "" {
				event = event.Str("download", name)
			}
			event.Msg("HTTP request")
		})
	}
}

// applyMiddleware wraps handler so that the first entry runs outermost.
func applyMiddleware(handler http.Handler, logger *common.Logger) http.Handler {
	stack := []middleware{
		recoveryMiddleware(logger),
		corsMiddleware,
		correlationIDMiddleware,
		loggingMiddleware(logger),
	}
	for i := len(stack) - 1; i >= 0; i-- {
		handler = stack[i](handler)
	}
	return handler
}
