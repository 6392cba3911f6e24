// Package interfaces defines service contracts for stockinfo
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/stockinfo/internal/models"
)

// ListingSource provides the company listing for a market segment
type ListingSource interface {
	// GetListing downloads the full listing table for the market, in source order
	GetListing(ctx context.Context, market models.Market) ([]models.ListingRow, error)
}

// PriceSource provides daily price history
type PriceSource interface {
	// GetDailyHistory retrieves daily bars for the half-open interval [from, to)
	GetDailyHistory(ctx context.Context, symbol string, from, to time.Time) (*models.PriceSeries, error)
}
