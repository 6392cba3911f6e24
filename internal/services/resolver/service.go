// Package resolver maps company names to exchange-qualified ticker symbols
package resolver

import (
	"context"
	"fmt"

	"github.com/bobmcallan/stockinfo/internal/common"
	"github.com/bobmcallan/stockinfo/internal/interfaces"
	"github.com/bobmcallan/stockinfo/internal/models"
)

// Service implements TickerResolver on top of a listing source
type Service struct {
	listing interfaces.ListingSource
	logger  *common.Logger
}

// NewService creates a new resolver service
func NewService(listing interfaces.ListingSource, logger *common.Logger) *Service {
	return &Service{
		listing: listing,
		logger:  logger,
	}
}

// Resolve downloads the listing for market and returns the ticker of the
// first row whose name equals company exactly. Matching is case-sensitive
// with no trimming or fuzzy matching. When several rows share the name the
// first one still wins and Ticker.Matches reports the count.
func (s *Service) Resolve(ctx context.Context, company string, market models.Market) (*models.Ticker, error) {
	if market.Suffix() == "" {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownMarket, market)
	}

	rows, err := s.listing.GetListing(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("fetch %s listing: %w", market, err)
	}

	ticker := match(rows, company, market)
	if ticker == nil {
		s.logger.Info().Str("company", company).Str("market", string(market)).Int("rows", len(rows)).Msg("Company not in listing")
		return nil, fmt.Errorf("company %q in %s: %w", company, market.Label(), models.ErrTickerNotFound)
	}

	if ticker.Ambiguous() {
		s.logger.Warn().
			Str("company", company).
			Str("market", string(market)).
			Int("matches", ticker.Matches).
			Str("symbol", ticker.Symbol).
			Msg("Company name matches several listing rows, using the first")
	}

	return ticker, nil
}

func match(rows []models.ListingRow, company string, market models.Market) *models.Ticker {
	var ticker *models.Ticker
	for _, row := range rows {
		if row.Name != company {
			continue
		}
		if ticker == nil {
			ticker = &models.Ticker{
				Symbol: row.Code + market.Suffix(),
				Code:   row.Code,
				Name:   row.Name,
				Market: market,
			}
		}
		ticker.Matches++
	}
	return ticker
}

// Ensure Service implements TickerResolver
var _ interfaces.TickerResolver = (*Service)(nil)
