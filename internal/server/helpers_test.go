package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockinfo/internal/models"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("x: %w", models.ErrTickerNotFound), http.StatusNotFound, "ticker_not_found"},
		{"empty", &models.StageError{Stage: models.StageFetch, Err: models.ErrEmptySeries}, http.StatusNotFound, "empty_series"},
		{"range", fmt.Errorf("%w: end before start", models.ErrInvalidRange), http.StatusBadRequest, "invalid_request"},
		{"market", models.ErrUnknownMarket, http.StatusBadRequest, "invalid_request"},
		{"blank company", &models.StageError{Stage: models.StageValidate, Err: fmt.Errorf("%w: company name is required", models.ErrInvalidRequest)}, http.StatusBadRequest, "invalid_request"},
		{"upstream", &models.StageError{Stage: models.StageResolve, Err: &models.UpstreamError{Source: "kind", StatusCode: 503}}, http.StatusBadGateway, "upstream_failure"},
		{"deadline", &models.StageError{Stage: models.StageResolve, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "upstream_failure"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		status, code := errorStatus(tt.err)
		assert.Equal(t, tt.status, status, tt.name)
		assert.Equal(t, tt.code, code, tt.name)
	}
}

func TestErrorMessage(t *testing.T) {
	msg := errorMessage(&models.StageError{Stage: models.StageFetch, Err: &models.UpstreamError{Source: "yahoo", StatusCode: 429}})
	assert.Equal(t, "The yahoo data source is unavailable (status 429). Please try again later.", msg)

	msg = errorMessage(&models.StageError{Stage: models.StageResolve, Err: &models.UpstreamError{Source: "kind", Err: context.DeadlineExceeded}})
	assert.Equal(t, "The kind data source could not be reached. Please try again later.", msg)

	msg = errorMessage(&models.StageError{Stage: models.StageResolve, Err: fmt.Errorf("company %q in KOSPI: %w", "Nope", models.ErrTickerNotFound)})
	assert.Equal(t, `company "Nope" in KOSPI: ticker not found`, msg)
}

func TestReadForm_Defaults(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	f := readForm(r)
	assert.Equal(t, formValues{Company: "NAVER", Market: "kospi", Start: "2019-01-01", End: "2021-12-31"}, f)

	req, err := f.request()
	require.NoError(t, err)
	assert.Equal(t, models.MarketKOSPI, req.Market)
	assert.Equal(t, "2019-01-01..2021-12-31", req.Range.String())
}

func TestReadForm_CompanyTakenAsTyped(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?company=+NAVER+&market=KOSDAQ", nil)
	f := readForm(r)
	assert.Equal(t, " NAVER ", f.Company)

	req, err := f.request()
	require.NoError(t, err)
	assert.Equal(t, " NAVER ", req.Company)
	assert.Equal(t, models.MarketKOSDAQ, req.Market)
}

func TestWriteAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAttachment(rec, "text/csv; charset=utf-8", models.CSVFileName, []byte("a,b\n"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="stock_data.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
	assert.Equal(t, "a,b\n", rec.Body.String())
}

func TestFormatNumber(t *testing.T) {
	tests := map[float64]string{
		0:          "0",
		999:        "999",
		1000:       "1,000",
		121500:     "121,500",
		1234567.5:  "1,234,567.5",
		0.25:       "0.25",
		-45000.5:   "-45,000.5",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatNumber(in), "%v", in)
	}
}
