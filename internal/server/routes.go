package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/bobmcallan/stockinfo/internal/common"
	"github.com/bobmcallan/stockinfo/internal/models"
)

// handleShutdown handles POST /api/shutdown outside production. The signal
// is sent without blocking; a request made while one is already pending is
// acknowledged but not queued.
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteErrorWithCode(w, http.StatusForbidden, "Shutdown is disabled in production", "forbidden")
		return
	}

	signalled := s.requestShutdown()
	s.logger.Info().
		Bool("signalled", signalled).
		Str("uptime", time.Since(s.app.StartupTime).Round(time.Second).String()).
		Msg("Shutdown requested via HTTP endpoint")

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":    "shutting_down",
		"signalled": signalled,
	})
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// requestShutdown notifies the shutdown channel if it has room.
func (s *Server) requestShutdown() bool {
	if s.shutdownChan == nil {
		return false
	}
	select {
	case s.shutdownChan <- struct{}{}:
		return true
	default:
		return false
	}
}

// registerRoutes sets up the page and REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Page
	mux.HandleFunc("/", s.handleIndex)

	// Lookup and reports
	mux.HandleFunc("/api/ticker", s.handleTicker)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/report/csv", s.handleReportCSV)
	mux.HandleFunc("/api/report/xlsx", s.handleReportXLSX)
	mux.HandleFunc("/api/report/chart.png", s.handleReportChart)

	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/diagnostics", s.handleDiagnostics)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	cfg := s.app.Config
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":     common.GetFullVersion(),
		"environment": cfg.Environment,
		"uptime":      time.Since(s.app.StartupTime).Round(time.Second).String(),
		"goroutines":  runtime.NumGoroutine(),
		"heap_alloc":  mem.HeapAlloc,
		"upstreams": map[string]string{
			"kind":  cfg.Clients.KIND.BaseURL,
			"yahoo": cfg.Clients.Yahoo.BaseURL,
		},
		"markets": []models.Market{models.MarketKOSPI, models.MarketKOSDAQ},
	})
}
