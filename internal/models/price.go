package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used on the wire and in exports.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange truncates both bounds to calendar dates.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: CalendarDate(start), End: CalendarDate(end)}
}

// ParseDateRange parses two YYYY-MM-DD strings into a validated range.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start date %q", ErrInvalidRange, start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end date %q", ErrInvalidRange, end)
	}
	r := NewDateRange(s, e)
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate rejects ranges whose end precedes the start.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidRange)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidRange,
			r.End.Format(DateLayout), r.Start.Format(DateLayout))
	}
	return nil
}

// ProviderInterval returns the half-open interval [Start, End+1d) that makes
// an end-exclusive provider include the user's end date.
func (r DateRange) ProviderInterval() (from, to time.Time) {
	return r.Start, r.End.AddDate(0, 0, 1)
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// CalendarDate strips the time of day, keeping the calendar date as seen in t's location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PriceBar is one trading day of price history.
type PriceBar struct {
	Date        time.Time `json:"date"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	AdjClose    float64   `json:"adjusted_close"`
	Volume      int64     `json:"volume"`
	Dividends   float64   `json:"dividends"`
	StockSplits float64   `json:"stock_splits"`
}

// PriceSeries is daily price history for one ticker, ascending by date.
type PriceSeries struct {
	Symbol   string     `json:"symbol"`
	Currency string     `json:"currency,omitempty"`
	Timezone string     `json:"timezone,omitempty"`
	Bars     []PriceBar `json:"bars"`
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Head returns up to n leading bars.
func (s *PriceSeries) Head(n int) []PriceBar {
	if s == nil || n <= 0 {
		return nil
	}
	if n > len(s.Bars) {
		n = len(s.Bars)
	}
	return s.Bars[:n]
}
