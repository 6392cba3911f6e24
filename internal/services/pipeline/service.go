// Package pipeline chains ticker resolution and report building for one request
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/stockinfo/internal/common"
	"github.com/bobmcallan/stockinfo/internal/interfaces"
	"github.com/bobmcallan/stockinfo/internal/models"
)

// Service runs validate, resolve and fetch in order. Every failure comes back
// as a *models.StageError naming the stage.
type Service struct {
	resolver interfaces.TickerResolver
	builder  interfaces.ReportBuilder
	logger   *common.Logger
}

// NewService creates a new pipeline service
func NewService(resolver interfaces.TickerResolver, builder interfaces.ReportBuilder, logger *common.Logger) *Service {
	return &Service{
		resolver: resolver,
		builder:  builder,
		logger:   logger,
	}
}

// Resolve runs the validate and resolve stages only.
func (s *Service) Resolve(ctx context.Context, company string, market models.Market) (*models.Ticker, error) {
	if err := validateLookup(company, market); err != nil {
		return nil, &models.StageError{Stage: models.StageValidate, Err: err}
	}

	var ticker *models.Ticker
	err := s.stage(ctx, models.StageResolve, func(ctx context.Context) error {
		var err error
		ticker, err = s.resolver.Resolve(ctx, company, market)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ticker, nil
}

// Run executes the full chain for req.
func (s *Service) Run(ctx context.Context, req interfaces.ReportRequest) (*models.PriceReport, error) {
	if err := req.Range.Validate(); err != nil {
		return nil, &models.StageError{Stage: models.StageValidate, Err: err}
	}

	ticker, err := s.Resolve(ctx, req.Company, req.Market)
	if err != nil {
		return nil, err
	}

	var report *models.PriceReport
	err = s.stage(ctx, models.StageFetch, func(ctx context.Context) error {
		var err error
		report, err = s.builder.Build(ctx, req.Company, ticker, req.Range)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("company", req.Company).
		Str("symbol", ticker.Symbol).
		Str("range", req.Range.String()).
		Int("rows", report.Rows).
		Msg("Report built")

	return report, nil
}

func (s *Service) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &models.StageError{Stage: name, Err: err}
	}

	start := time.Now()
	err := fn(ctx)
	s.logger.Debug().
		Str("stage", name).
		Dur("elapsed", time.Since(start)).
		Bool("ok", err == nil).
		Msg("Pipeline stage finished")

	if err != nil {
		return &models.StageError{Stage: name, Err: err}
	}
	return nil
}

var errEmptyCompany = fmt.Errorf("%w: company name is required", models.ErrInvalidRequest)

func validateLookup(company string, market models.Market) error {
	if strings.TrimSpace(company) == "" {
		return errEmptyCompany
	}
	if market.Suffix() == "" {
		return models.ErrUnknownMarket
	}
	return nil
}

// Ensure Service implements ReportPipeline
var _ interfaces.ReportPipeline = (*Service)(nil)
