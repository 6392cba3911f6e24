package interfaces

import (
	"context"

	"github.com/bobmcallan/stockinfo/internal/models"
)

// TickerResolver maps company names to exchange-qualified ticker symbols
type TickerResolver interface {
	Resolve(ctx context.Context, company string, market models.Market) (*models.Ticker, error)
}

// ReportBuilder fetches price history and renders the report artifacts
type ReportBuilder interface {
	Build(ctx context.Context, company string, ticker *models.Ticker, dr models.DateRange) (*models.PriceReport, error)
}

// ReportRequest is the explicit input of one page interaction
type ReportRequest struct {
	Company string
	Market  models.Market
	Range   models.DateRange
}

// ReportPipeline runs resolve then build for one request
type ReportPipeline interface {
	Resolve(ctx context.Context, company string, market models.Market) (*models.Ticker, error)
	Run(ctx context.Context, req ReportRequest) (*models.PriceReport, error)
}
