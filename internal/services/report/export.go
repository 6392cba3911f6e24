package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bobmcallan/stockinfo/internal/models"
)

// Export columns, in file order.
var columns = []string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume", "Dividends", "Stock Splits"}

const (
	sheetName      = "Sheet1"
	xlsxDateFormat = "yyyy-mm-dd"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV serializes the full series, one row per trading day.
func WriteCSV(series *models.PriceSeries) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, bar := range series.Bars {
		record := []string{
			bar.Date.Format(models.DateLayout),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
			formatFloat(bar.AdjClose),
			strconv.FormatInt(bar.Volume, 10),
			formatFloat(bar.Dividends),
			formatFloat(bar.StockSplits),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %s: %w", record[0], err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseCSV reads bars written by WriteCSV. Only Date and Close are required;
// other known columns are read when present.
func ParseCSV(r io.Reader) ([]models.PriceBar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	if _, ok := idx["Date"]; !ok {
		return nil, errors.New("csv header missing Date column")
	}
	if _, ok := idx["Close"]; !ok {
		return nil, errors.New("csv header missing Close column")
	}

	var bars []models.PriceBar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		field := func(name string) (string, bool) {
			i, ok := idx[name]
			if !ok || i >= len(record) {
				return "", false
			}
			return record[i], true
		}
		float := func(name string) (float64, error) {
			s, ok := field(name)
			if !ok || s == "" {
				return 0, nil
			}
			return strconv.ParseFloat(s, 64)
		}

		dateStr, _ := field("Date")
		d, err := time.Parse(models.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: bad date %q", line, dateStr)
		}
		bar := models.PriceBar{Date: d}

		targets := []struct {
			name string
			dst  *float64
		}{
			{"Open", &bar.Open}, {"High", &bar.High}, {"Low", &bar.Low}, {"Close", &bar.Close},
			{"Adj Close", &bar.AdjClose}, {"Dividends", &bar.Dividends}, {"Stock Splits", &bar.StockSplits},
		}
		for _, tgt := range targets {
			v, err := float(tgt.name)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: bad %s: %w", line, tgt.name, err)
			}
			*tgt.dst = v
		}
		if s, ok := field("Volume"); ok && s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: bad Volume: %w", line, err)
			}
			bar.Volume = v
		}

		bars = append(bars, bar)
	}
	return bars, nil
}

// WriteXLSX serializes the full series to a workbook. The Date column holds
// date-only serials formatted yyyy-mm-dd.
func WriteXLSX(series *models.PriceSeries) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write xlsx header: %w", err)
	}

	for i, bar := range series.Bars {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			models.CalendarDate(bar.Date),
			bar.Open, bar.High, bar.Low, bar.Close, bar.AdjClose,
			bar.Volume, bar.Dividends, bar.StockSplits,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write xlsx row %d: %w", i+2, err)
		}
	}

	if n := len(series.Bars); n > 0 {
		dateFmt := xlsxDateFormat
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
		if err != nil {
			return nil, fmt.Errorf("create date style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(1, n+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, "A2", last, style); err != nil {
			return nil, fmt.Errorf("apply date style: %w", err)
		}
	}
	if err := f.SetColWidth(sheetName, "A", "A", 12); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
