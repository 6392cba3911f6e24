// Package report builds price reports: preview rows, close chart and downloadable exports
package report

import (
	"context"
	"fmt"
	"time"
	"unicode"

	"github.com/golang/freetype/truetype"

	"github.com/bobmcallan/stockinfo/internal/common"
	"github.com/bobmcallan/stockinfo/internal/interfaces"
	"github.com/bobmcallan/stockinfo/internal/models"
)

// Service implements ReportBuilder
type Service struct {
	prices interfaces.PriceSource
	logger *common.Logger
	config common.ReportConfig
	font   *truetype.Font
}

// NewService creates a new report service. A configured chart font that
// fails to load is logged and the default font is used instead.
func NewService(prices interfaces.PriceSource, logger *common.Logger, config common.ReportConfig) *Service {
	s := &Service{
		prices: prices,
		logger: logger,
		config: config,
	}
	if s.config.PreviewRows <= 0 {
		s.config.PreviewRows = 5
	}
	if config.ChartFont != "" {
		font, err := LoadFont(config.ChartFont)
		if err != nil {
			logger.Warn().Err(err).Str("font", config.ChartFont).Msg("Chart font unavailable, using default")
		} else {
			s.font = font
		}
	}
	return s
}

// Build fetches the inclusive date range for ticker and renders every artifact.
func (s *Service) Build(ctx context.Context, company string, ticker *models.Ticker, dr models.DateRange) (*models.PriceReport, error) {
	if err := dr.Validate(); err != nil {
		return nil, err
	}

	from, to := dr.ProviderInterval()
	series, err := s.prices.GetDailyHistory(ctx, ticker.Symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch %s prices: %w", ticker.Symbol, err)
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("%s %s: %w", ticker.Symbol, dr, models.ErrEmptySeries)
	}

	start := time.Now()
	report := &models.PriceReport{
		Company: company,
		Ticker:  ticker,
		Range:   dr,
		Series:  series,
		Preview: series.Head(s.config.PreviewRows),
		Rows:    series.Len(),
	}

	report.ChartPNG, err = RenderCloseChart(series, ChartOptions{
		Title:  s.chartTitle(company, ticker.Symbol),
		Width:  s.config.ChartWidth,
		Height: s.config.ChartHeight,
		Font:   s.font,
	})
	if err != nil {
		return nil, err
	}

	if report.CSV, err = WriteCSV(series); err != nil {
		return nil, err
	}
	if report.XLSX, err = WriteXLSX(series); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("symbol", ticker.Symbol).
		Int("rows", report.Rows).
		Int("chart_bytes", len(report.ChartPNG)).
		Int("xlsx_bytes", len(report.XLSX)).
		Dur("elapsed", time.Since(start)).
		Msg("Report rendered")

	return report, nil
}

// chartTitle includes the company name only when the font can draw it.
func (s *Service) chartTitle(company, symbol string) string {
	if company != "" && (s.font != nil || isASCII(company)) && company != symbol {
		return fmt.Sprintf("%s (%s) close price", company, symbol)
	}
	return symbol + " close price"
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// Ensure Service implements ReportBuilder
var _ interfaces.ReportBuilder = (*Service)(nil)
