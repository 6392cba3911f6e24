package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockinfo/internal/common"
)

func TestCorrelationIDMiddleware_Generated(t *testing.T) {
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Correlation-ID"); len(got) != 8 {
		t.Errorf("Expected generated 8-char correlation ID, got %q", got)
	}
}

func TestCorrelationIDMiddleware_PropagatesRequestID(t *testing.T) {
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	req.Header.Set("X-Correlation-ID", "corr-456")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Correlation-ID"); got != "req-123" {
		t.Errorf("Expected X-Request-ID to win, got %q", got)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	called := false
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/report", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rr.Code)
	}
	if called {
		t.Error("Preflight must not reach the handler")
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected Access-Control-Allow-Origin: *")
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition") {
		t.Error("Expected Content-Disposition to be exposed for downloads")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(common.NewSilentLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
}

func TestLoggingMiddleware_LevelsByStatus(t *testing.T) {
	tests := []struct {
		status int
		logged bool
	}{
		{http.StatusOK, false},
		{http.StatusNotFound, true},
		{http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := common.NewLoggerWithOutput("info", &buf)
		handler := loggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte("x"))
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/report?company=NAVER", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		out := buf.String()
		if tt.logged != strings.Contains(out, "HTTP request") {
			t.Errorf("status %d: logged=%v, output %q", tt.status, tt.logged, out)
		}
		if tt.logged && !strings.Contains(out, `"path":"/api/report"`) {
			t.Errorf("status %d: expected path in log, got %q", tt.status, out)
		}
	}
}

func TestApplyMiddleware_SetsCorrelationHeader(t *testing.T) {
	handler := applyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), common.NewSilentLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Errorf("Expected 418, got %d", rr.Code)
	}
	if rr.Header().Get("X-Correlation-ID") == "" {
		t.Error("Expected X-Correlation-ID header")
	}
}

func TestLoggingMiddleware_LogsLookupFields(t *testing.T) {
	var buf bytes.Buffer
	logger := common.NewLoggerWithOutput("info", &buf)
	handler := loggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/report?company=%20NAVER%20&market=KOSDAQ&start=2021-01-04", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"company":"NAVER"`)
	assert.Contains(t, out, `"market":"kosdaq"`)
	assert.NotContains(t, out, `"query"`)
	assert.NotContains(t, out, "start=2021-01-04")
}

func TestLoggingMiddleware_DefaultMarketAndNoLookup(t *testing.T) {
	var buf bytes.Buffer
	logger := common.NewLoggerWithOutput("info", &buf)
	handler := loggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/ticker?company=NAVER", nil))
	assert.Contains(t, buf.String(), `"market":"kospi"`)

	buf.Reset()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	out := buf.String()
	require.Contains(t, out, "HTTP request")
	assert.NotContains(t, out, `"company"`)
	assert.NotContains(t, out, `"market"`)
}

func TestLoggingMiddleware_LogsDownloadName(t *testing.T) {
	var buf bytes.Buffer
	logger := common.NewLoggerWithOutput("trace", &buf)
	handler := loggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteAttachment(w, "text/csv; charset=utf-8", "stock_data.csv", []byte("Date,Close\n"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/report/csv?company=NAVER", nil))

	out := buf.String()
	assert.Contains(t, out, `"download":"stock_data.csv"`)
	assert.Contains(t, out, `"bytes":11`)
}

func TestApplyMiddleware_PassesFlusherThrough(t *testing.T) {
	var flusherOK bool
	handler := applyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var f http.Flusher
		f, flusherOK = w.(http.Flusher)
		w.Write([]byte("partial"))
		if flusherOK {
			f.Flush()
		}
	}), common.NewSilentLogger())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.True(t, flusherOK, "wrapped writer must implement http.Flusher")
	assert.True(t, rr.Flushed)
}

func TestCORSMiddleware_PageIsSameOrigin(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?company=NAVER", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorrelationIDMiddleware_TruncatesLongIDs(t *testing.T) {
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", 200))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Len(t, rr.Header().Get("X-Correlation-ID"), maxCorrelationIDLen)
}
