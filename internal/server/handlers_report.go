package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/bobmcallan/stockinfo/internal/models"
)

// barResponse is a price bar with its date rendered as YYYY-MM-DD.
type barResponse struct {
	Date        string  `json:"date"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	AdjClose    float64 `json:"adj_close"`
	Volume      int64   `json:"volume"`
	Dividends   float64 `json:"dividends"`
	StockSplits float64 `json:"stock_splits"`
}

type reportResponse struct {
	Company   string            `json:"company"`
	Ticker    *models.Ticker    `json:"ticker"`
	Start     string            `json:"start"`
	End       string            `json:"end"`
	Currency  string            `json:"currency,omitempty"`
	Rows      int               `json:"rows"`
	Preview   []barResponse     `json:"preview"`
	Downloads map[string]string `json:"downloads"`
}

func toBarResponses(bars []models.PriceBar) []barResponse {
	out := make([]barResponse, len(bars))
	for i, b := range bars {
		out[i] = barResponse{
			Date:        b.Date.Format(models.DateLayout),
			Open:        b.Open,
			High:        b.High,
			Low:         b.Low,
			Close:       b.Close,
			AdjClose:    b.AdjClose,
			Volume:      b.Volume,
			Dividends:   b.Dividends,
			StockSplits: b.StockSplits,
		}
	}
	return out
}

// handleTicker handles GET /api/ticker?company=&market=
func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	company := r.URL.Query().Get("company")
	if strings.TrimSpace(company) == "" {
		WriteErrorWithCode(w, http.StatusBadRequest, "company is required", "invalid_request")
		return
	}

	market, err := models.ParseMarket(readForm(r).Market)
	if err != nil {
		WritePipelineError(w, err)
		return
	}

	ticker, err := s.app.Pipeline.Resolve(r.Context(), company, market)
	if err != nil {
		WritePipelineError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ticker)
}

// runReport parses the query and runs the pipeline, writing the error response on failure.
func (s *Server) runReport(w http.ResponseWriter, r *http.Request) (*models.PriceReport, bool) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return nil, false
	}

	form := readForm(r)
	if strings.TrimSpace(r.URL.Query().Get("company")) == "" {
		WriteErrorWithCode(w, http.StatusBadRequest, "company is required", "invalid_request")
		return nil, false
	}

	req, err := form.request()
	if err != nil {
		WritePipelineError(w, err)
		return nil, false
	}

	report, err := s.app.Pipeline.Run(r.Context(), req)
	if err != nil {
		WritePipelineError(w, err)
		return nil, false
	}
	return report, true
}

// handleReport handles GET /api/report with a JSON summary and preview rows.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.runReport(w, r)
	if !ok {
		return
	}

	query := downloadQuery(report)
	resp := reportResponse{
		Company: report.Company,
		Ticker:  report.Ticker,
		Start:   report.Range.Start.Format(models.DateLayout),
		End:     report.Range.End.Format(models.DateLayout),
		Rows:    report.Rows,
		Preview: toBarResponses(report.Preview),
		Downloads: map[string]string{
			"csv":   "/api/report/csv?" + query,
			"xlsx":  "/api/report/xlsx?" + query,
			"chart": "/api/report/chart.png?" + query,
		},
	}
	if report.Series != nil {
		resp.Currency = report.Series.Currency
	}

	WriteJSON(w, http.StatusOK, resp)
}

// handleReportCSV handles GET /api/report/csv
func (s *Server) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := s.runReport(w, r)
	if !ok {
		return
	}
	WriteAttachment(w, "text/csv; charset=utf-8", models.CSVFileName, report.CSV)
}

// handleReportXLSX handles GET /api/report/xlsx
func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	report, ok := s.runReport(w, r)
	if !ok {
		return
	}
	WriteAttachment(w, xlsxContentType, models.XLSXFileName, report.XLSX)
}

// handleReportChart handles GET /api/report/chart.png
func (s *Server) handleReportChart(w http.ResponseWriter, r *http.Request) {
	report, ok := s.runReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(report.ChartPNG)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// downloadQuery rebuilds the canonical query string for a report.
func downloadQuery(report *models.PriceReport) string {
	q := url.Values{}
	q.Set("company", report.Company)
	if report.Ticker != nil {
		q.Set("market", string(report.Ticker.Market))
	}
	q.Set("start", report.Range.Start.Format(models.DateLayout))
	q.Set("end", report.Range.End.Format(models.DateLayout))
	return q.Encode()
}
