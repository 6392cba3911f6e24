package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/stockinfo/internal/interfaces"
	"github.com/bobmcallan/stockinfo/internal/models"
)

// Form defaults shown on first load of the page.
const (
	DefaultCompany = "NAVER"
	DefaultMarket  = models.MarketKOSPI
	DefaultStart   = "2019-01-01"
	DefaultEnd     = "2021-12-31"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WritePipelineError maps a pipeline error to its status and code.
func WritePipelineError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	WriteErrorWithCode(w, status, errorMessage(err), code)
}

// WriteAttachment writes a binary download with a Content-Disposition file name.
func WriteAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// errorStatus maps pipeline errors onto HTTP status codes and error codes.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrTickerNotFound):
		return http.StatusNotFound, "ticker_not_found"
	case errors.Is(err, models.ErrEmptySeries):
		return http.StatusNotFound, "empty_series"
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, models.ErrInvalidRange), errors.Is(err, models.ErrUnknownMarket):
		return http.StatusBadRequest, "invalid_request"
	case models.IsUpstream(err):
		return http.StatusBadGateway, "upstream_failure"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream_failure"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// errorMessage renders err for display, dropping the stage prefix.
func errorMessage(err error) string {
	var se *models.StageError
	if errors.As(err, &se) {
		err = se.Err
	}
	var ue *models.UpstreamError
	if errors.As(err, &ue) {
		if ue.StatusCode != 0 {
			return fmt.Sprintf("The %s data source is unavailable (status %d). Please try again later.", ue.Source, ue.StatusCode)
		}
		return fmt.Sprintf("The %s data source could not be reached. Please try again later.", ue.Source)
	}
	return err.Error()
}

// formValues are the raw query values of a report request.
type formValues struct {
	Company string
	Market  string
	Start   string
	End     string
}

// readForm reads the query string, applying the page defaults for missing fields.
// The company is taken as typed; matching against the listing is exact.
func readForm(r *http.Request) formValues {
	q := r.URL.Query()
	f := formValues{
		Company: q.Get("company"),
		Market:  q.Get("market"),
		Start:   q.Get("start"),
		End:     q.Get("end"),
	}
	if !q.Has("company") {
		f.Company = DefaultCompany
	}
	if f.Market == "" {
		f.Market = string(DefaultMarket)
	}
	if f.Start == "" {
		f.Start = DefaultStart
	}
	if f.End == "" {
		f.End = DefaultEnd
	}
	return f
}

// request converts the form into a validated pipeline request.
func (f formValues) request() (interfaces.ReportRequest, error) {
	market, err := models.ParseMarket(f.Market)
	if err != nil {
		return interfaces.ReportRequest{}, err
	}
	dr, err := models.ParseDateRange(f.Start, f.End)
	if err != nil {
		return interfaces.ReportRequest{}, err
	}
	return interfaces.ReportRequest{Company: f.Company, Market: market, Range: dr}, nil
}
