package yahoo

import (
	"sort"
	"time"

	"github.com/bobmcallan/stockinfo/internal/models"
)

// chartResponse is the v8 chart API envelope.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Currency             string `json:"currency"`
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
		GMTOffset            int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp []int64 `json:"timestamp"`
	Events    struct {
		Dividends map[string]dividendEvent `json:"dividends"`
		Splits    map[string]splitEvent    `json:"splits"`
	} `json:"events"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

type dividendEvent struct {
	Amount float64 `json:"amount"`
	Date   int64   `json:"date"`
}

type splitEvent struct {
	Date        int64   `json:"date"`
	Numerator   float64 `json:"numerator"`
	Denominator float64 `json:"denominator"`
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

// toSeries converts the chart result into ascending daily bars within [from, to).
func (c *Client) toSeries(symbol string, chart *chartResponse, from, to time.Time) *models.PriceSeries {
	series := &models.PriceSeries{Symbol: symbol}
	if len(chart.Chart.Result) == 0 {
		return series
	}

	result := chart.Chart.Result[0]
	series.Currency = result.Meta.Currency
	series.Timezone = result.Meta.ExchangeTimezoneName
	if result.Meta.Symbol != "" {
		series.Symbol = result.Meta.Symbol
	}
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return series
	}

	loc := c.location
	if result.Meta.GMTOffset != 0 {
		loc = time.FixedZone(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)
	}
	dateOf := func(ts int64) time.Time {
		return models.CalendarDate(time.Unix(ts, 0).In(loc))
	}

	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	index := make(map[time.Time]int, len(result.Timestamp))
	bars := make([]models.PriceBar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, okO := at(quote.Open, i)
		h, okH := at(quote.High, i)
		l, okL := at(quote.Low, i)
		cl, okC := at(quote.Close, i)
		if !okO && !okH && !okL && !okC {
			continue // null bar (holiday or halted session)
		}

		d := dateOf(ts)
		if d.Before(from) || !d.Before(to) {
			continue
		}

		vol, _ := at(quote.Volume, i)
		adjClose, okA := at(adj, i)
		if !okA {
			adjClose = cl
		}

		bar := models.PriceBar{
			Date:     d,
			Open:     o,
			High:     h,
			Low:      l,
			Close:    cl,
			AdjClose: adjClose,
			Volume:   int64(vol),
		}
		if c.autoAdjust && cl != 0 && adjClose != 0 && adjClose != cl {
			ratio := adjClose / cl
			bar.Open *= ratio
			bar.High *= ratio
			bar.Low *= ratio
			bar.Close = adjClose
		}

		// Keep the last bar for a repeated date.
		if j, dup := index[d]; dup {
			bars[j] = bar
			continue
		}
		index[d] = len(bars)
		bars = append(bars, bar)
	}

	for _, div := range result.Events.Dividends {
		if j, ok := index[dateOf(div.Date)]; ok {
			bars[j].Dividends += div.Amount
		}
	}
	for _, split := range result.Events.Splits {
		if split.Denominator == 0 {
			continue
		}
		if j, ok := index[dateOf(split.Date)]; ok {
			bars[j].StockSplits = split.Numerator / split.Denominator
		}
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	series.Bars = bars
	return series
}
