package models

import (
	"fmt"
	"strings"
)

// Market identifies a KRX market segment.
type Market string

const (
	MarketKOSPI  Market = "kospi"  // primary board
	MarketKOSDAQ Market = "kosdaq" // secondary board
)

// ParseMarket parses a market flag case-insensitively.
func ParseMarket(s string) (Market, error) {
	switch Market(strings.ToLower(strings.TrimSpace(s))) {
	case MarketKOSPI:
		return MarketKOSPI, nil
	case MarketKOSDAQ:
		return MarketKOSDAQ, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMarket, s)
}

// Suffix returns the exchange suffix the price provider expects.
func (m Market) Suffix() string {
	switch m {
	case MarketKOSPI:
		return ".KS"
	case MarketKOSDAQ:
		return ".KQ"
	}
	return ""
}

// KINDMarketType returns the marketType query value used by the KIND listing download.
func (m Market) KINDMarketType() string {
	switch m {
	case MarketKOSPI:
		return "stockMkt"
	case MarketKOSDAQ:
		return "kosdaqMkt"
	}
	return ""
}

// Label returns a display label for the market.
func (m Market) Label() string {
	switch m {
	case MarketKOSPI:
		return "KOSPI"
	case MarketKOSDAQ:
		return "KOSDAQ"
	}
	return string(m)
}

// ListingRow is one company entry from the KIND listing table.
type ListingRow struct {
	Name string `json:"name"`
	Code string `json:"code"` // 6 characters, zero-padded
}

// Ticker is the result of resolving a company name against a listing.
type Ticker struct {
	Symbol  string `json:"symbol"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Market  Market `json:"market"`
	Matches int    `json:"matches"` // listing rows with the exact name; >1 means ambiguous
}

// Ambiguous reports whether more than one listing row carried the name.
func (t *Ticker) Ambiguous() bool {
	return t.Matches > 1
}
