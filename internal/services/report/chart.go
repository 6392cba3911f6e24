package report

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/stockinfo/internal/models"
)

// ChartOptions controls close price chart rendering.
type ChartOptions struct {
	Title  string
	Width  int
	Height int
	Font   *truetype.Font // nil uses the go-chart default (no Hangul glyphs)
}

// LoadFont parses a TrueType font file for chart text.
func LoadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	font, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return font, nil
}

// RenderCloseChart renders a PNG line chart of closing prices over time.
// Returns raw PNG bytes.
func RenderCloseChart(series *models.PriceSeries, opts ChartOptions) ([]byte, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("render chart: %w", models.ErrEmptySeries)
	}

	xValues := make([]time.Time, 0, series.Len()+1)
	yValues := make([]float64, 0, series.Len()+1)
	minY, maxY := series.Bars[0].Close, series.Bars[0].Close
	for _, bar := range series.Bars {
		xValues = append(xValues, bar.Date)
		yValues = append(yValues, bar.Close)
		if bar.Close < minY {
			minY = bar.Close
		}
		if bar.Close > maxY {
			maxY = bar.Close
		}
	}

	// go-chart needs a non-zero X range; draw a single session as a flat segment.
	if len(xValues) == 1 {
		xValues = append(xValues, xValues[0].AddDate(0, 0, 1))
		yValues = append(yValues, yValues[0])
	}

	closeSeries := chart.TimeSeries{
		Name: "Close",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2,
		},
		XValues: xValues,
		YValues: yValues,
	}

	span := xValues[len(xValues)-1].Sub(xValues[0])
	dateFormat := "2006-01"
	if span <= 93*24*time.Hour {
		dateFormat = "01-02"
	}

	gridStyle := chart.Style{
		StrokeColor: drawing.ColorFromHex("e5e7eb"), // gray-200
		StrokeWidth: 1,
	}

	yAxis := chart.YAxis{
		Name:           "Price (KRW)",
		GridMajorStyle: gridStyle,
		ValueFormatter: func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return formatPrice(f)
			}
			return ""
		},
	}
	// Flat series also need a non-zero Y range.
	if minY == maxY {
		pad := maxY * 0.01
		if pad == 0 {
			pad = 1
		}
		yAxis.Range = &chart.ContinuousRange{Min: minY - pad, Max: maxY + pad}
	}

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 1200
	}
	if height <= 0 {
		height = 400
	}

	graph := chart.Chart{
		Title:  opts.Title,
		Font:   opts.Font,
		Width:  width,
		Height: height,
		TitleStyle: chart.Style{
			FontSize: 16,
		},
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			TickPosition:   chart.TickPositionBetweenTicks,
			GridMajorStyle: gridStyle,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format(dateFormat)
				}
				return ""
			},
		},
		YAxis:  yAxis,
		Series: []chart.Series{closeSeries},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// formatPrice renders a KRW price with thousands separators.
func formatPrice(v float64) string {
	n := int64(v + 0.5)
	if v < 0 {
		n = int64(v - 0.5)
	}
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
