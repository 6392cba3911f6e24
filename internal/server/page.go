package server

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/stockinfo/internal/common"
	"github.com/bobmcallan/stockinfo/internal/models"
)

//go:embed templates/index.html
var indexTemplate string

var indexPage = template.Must(template.New("index").Funcs(template.FuncMap{
	"date":   func(t time.Time) string { return t.Format(models.DateLayout) },
	"number": formatNumber,
	"volume": func(v int64) string { return groupThousands(strconv.FormatInt(v, 10)) },
}).Parse(indexTemplate))

type marketOption struct {
	Value    string
	Label    string
	Selected bool
}

// pageData is the view model for the single page.
type pageData struct {
	Form    formValues
	Markets []marketOption
	Error   string
	Report  *pageReport
	Version string
}

type pageReport struct {
	Company   string
	Ticker    *models.Ticker
	Range     string
	Rows      int
	Currency  string
	Preview   []models.PriceBar
	ChartURI  template.URL
	CSVURI    template.URL
	XLSXURI   template.URL
	CSVFile   string
	XLSXFile  string
	Ambiguous bool
}

func marketOptions(selected string) []marketOption {
	var opts []marketOption
	for _, m := range []models.Market{models.MarketKOSPI, models.MarketKOSDAQ} {
		opts = append(opts, marketOption{
			Value:    string(m),
			Label:    m.Label(),
			Selected: strings.EqualFold(selected, string(m)),
		})
	}
	return opts
}

func dataURI(contentType string, data []byte) template.URL {
	return template.URL("data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data))
}

func newPageReport(report *models.PriceReport) *pageReport {
	pr := &pageReport{
		Company:   report.Company,
		Ticker:    report.Ticker,
		Range:     report.Range.Start.Format(models.DateLayout) + " ~ " + report.Range.End.Format(models.DateLayout),
		Rows:      report.Rows,
		Preview:   report.Preview,
		ChartURI:  dataURI("image/png", report.ChartPNG),
		CSVURI:    dataURI("text/csv;charset=utf-8", report.CSV),
		XLSXURI:   dataURI(xlsxContentType, report.XLSX),
		CSVFile:   models.CSVFileName,
		XLSXFile:  models.XLSXFileName,
		Ambiguous: report.Ticker != nil && report.Ticker.Ambiguous(),
	}
	if report.Series != nil {
		pr.Currency = report.Series.Currency
	}
	return pr
}

// handleIndex renders the page. A report is built whenever company is in the query;
// failures render as a message above the form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	form := readForm(r)
	data := pageData{
		Form:    form,
		Markets: marketOptions(form.Market),
		Version: common.GetVersion(),
	}
	status := http.StatusOK

	if r.URL.Query().Has("company") {
		if strings.TrimSpace(form.Company) == "" {
			status = http.StatusBadRequest
			data.Error = "Enter a company name."
		} else {
			report, err := s.buildPageReport(r, form)
			if err != nil {
				status, _ = errorStatus(err)
				data.Error = errorMessage(err)
			} else {
				data.Report = newPageReport(report)
			}
		}
	}

	var buf bytes.Buffer
	if err := indexPage.Execute(&buf, data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (s *Server) buildPageReport(r *http.Request, form formValues) (*models.PriceReport, error) {
	req, err := form.request()
	if err != nil {
		return nil, err
	}
	return s.app.Pipeline.Run(r.Context(), req)
}

// formatNumber renders a price with thousands separators and at most two decimals.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")
	out := groupThousands(intPart)
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func groupThousands(digits string) string {
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")
	if len(digits) <= 3 {
		if neg {
			return "-" + digits
		}
		return digits
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 && !(neg && b.Len() == 1) {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
